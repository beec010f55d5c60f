// Package main is the entry point for the weather MCP server.
//
// It loads configuration, wires the NWS gateway, weather service and MCP tool
// surface, then serves JSON-RPC over stdin/stdout until the input stream
// closes or SIGINT/SIGTERM arrives. Stdout carries only protocol frames; all
// logging goes to stderr.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	"weathermcp/internal/config"
	"weathermcp/internal/external"
	"weathermcp/internal/nws"
	"weathermcp/internal/security"
	"weathermcp/internal/tools"
	"weathermcp/internal/weather"
)

// maxRedirects bounds how many redirects an upstream request may follow.
const maxRedirects = 5

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so that main() can cleanly exit on error.
func run(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg, err := config.LoadConfig(".env")
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(stderr, cfg.LogLevel)
	logger.Info("weather MCP server starting",
		"environment", cfg.Environment,
		"name", cfg.Server.Name,
		"version", cfg.Server.Version,
		"build_version", cfg.Build.Version,
		"commit", cfg.Build.Commit,
		"upstream", cfg.Upstream.BaseURL,
	)

	mcpServer, err := buildServer(cfg, logger)
	if err != nil {
		return err
	}

	stdio := server.NewStdioServer(mcpServer)
	stdio.SetErrorLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError))

	err = stdio.Listen(ctx, stdin, stdout)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio transport: %w", err)
	}

	logger.Info("weather MCP server stopped")
	return nil
}

// buildServer wires the gateway, service, and tool surface from configuration.
func buildServer(cfg *config.Config, logger *slog.Logger) (*server.MCPServer, error) {
	httpClient, err := newHTTPClient(cfg.Upstream)
	if err != nil {
		return nil, fmt.Errorf("creating http client: %w", err)
	}

	gateway := nws.NewClient(nws.Options{
		BaseURL:    cfg.Upstream.BaseURL,
		UserAgent:  cfg.Upstream.UserAgent,
		HTTPClient: httpClient,
		Breaker: external.BreakerSettings{
			Name:             "nws",
			FailureThreshold: cfg.Upstream.BreakerThreshold,
			Cooldown:         cfg.Upstream.BreakerCooldown,
		},
		Logger: logger.With("component", "nws"),
	})

	svc := weather.NewService(gateway, logger.With("component", "weather"))
	return tools.NewServer(cfg.Server, svc, logger.With("component", "tools")), nil
}

// newHTTPClient returns the outbound client, SSRF-guarded unless disabled.
func newHTTPClient(cfg config.UpstreamConfig) (*http.Client, error) {
	if cfg.BlockPrivateNetworks {
		return security.NewSafeHTTPClient(cfg.Timeout, maxRedirects)
	}
	return &http.Client{Timeout: cfg.Timeout}, nil
}

// newLogger creates a structured slog.Logger writing JSON to w at the given level.
func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     lvl,
		AddSource: false,
	})
	return slog.New(handler)
}
