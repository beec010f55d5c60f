// Package tools exposes the weather service as MCP tools.
//
// Each tool is a small struct with a Definition (the advertised schema) and a
// Handle method. Arguments are bound and validated here, before any upstream
// request is made; invalid input becomes a tool error result, never a
// protocol error.
package tools

import (
	"context"
	"errors"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"weathermcp/internal/config"
	"weathermcp/internal/types"
)

// Tool names as advertised to clients.
const (
	NameGetAlerts   = "get-alerts"
	NameGetForecast = "get-forecast"
)

// WeatherService is implemented by weather.Service.
type WeatherService interface {
	Alerts(ctx context.Context, state string) (string, error)
	Forecast(ctx context.Context, lat, lon float64) (string, error)
}

// AlertsTool serves get-alerts.
type AlertsTool struct {
	svc      WeatherService
	validate *validator.Validate
}

// NewAlertsTool creates the get-alerts tool.
func NewAlertsTool(svc WeatherService) *AlertsTool {
	return &AlertsTool{svc: svc, validate: newValidator()}
}

// Definition returns the get-alerts schema.
func (t *AlertsTool) Definition() mcp.Tool {
	return mcp.NewTool(NameGetAlerts,
		mcp.WithDescription("Get weather alerts for a state"),
		mcp.WithString("state",
			mcp.Required(),
			mcp.Description("Two-letter state code (e.g. CA, NY)"),
			mcp.MinLength(types.StateCodeLength),
			mcp.MaxLength(types.StateCodeLength),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

// Handle executes get-alerts.
func (t *AlertsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args alertsArgs
	if err := bindArgs(t.validate, req, &args); err != nil {
		return invalidArguments(ctx, NameGetAlerts, err), nil
	}

	text, err := t.svc.Alerts(ctx, args.State)
	if err != nil {
		return serviceFailure(ctx, NameGetAlerts, err), nil
	}
	return mcp.NewToolResultText(text), nil
}

// ForecastTool serves get-forecast.
type ForecastTool struct {
	svc      WeatherService
	validate *validator.Validate
}

// NewForecastTool creates the get-forecast tool.
func NewForecastTool(svc WeatherService) *ForecastTool {
	return &ForecastTool{svc: svc, validate: newValidator()}
}

// Definition returns the get-forecast schema.
func (t *ForecastTool) Definition() mcp.Tool {
	return mcp.NewTool(NameGetForecast,
		mcp.WithDescription("Get weather forecast for a location"),
		mcp.WithNumber("latitude",
			mcp.Required(),
			mcp.Description("Latitude of the location"),
			mcp.Min(types.MinLat),
			mcp.Max(types.MaxLat),
		),
		mcp.WithNumber("longitude",
			mcp.Required(),
			mcp.Description("Longitude of the location"),
			mcp.Min(types.MinLon),
			mcp.Max(types.MaxLon),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

// Handle executes get-forecast.
func (t *ForecastTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args forecastArgs
	if err := bindArgs(t.validate, req, &args); err != nil {
		return invalidArguments(ctx, NameGetForecast, err), nil
	}

	text, err := t.svc.Forecast(ctx, *args.Latitude, *args.Longitude)
	if err != nil {
		return serviceFailure(ctx, NameGetForecast, err), nil
	}
	return mcp.NewToolResultText(text), nil
}

// invalidArguments logs a rejected call and renders it as a tool error.
func invalidArguments(ctx context.Context, tool string, err error) *mcp.CallToolResult {
	logger := types.LoggerFromContext(ctx, nil)
	logger.Warn("tool arguments rejected", "tool", tool, "code", types.CodeOf(err), "error", err)

	msg := "invalid arguments"
	var appErr *types.AppError
	if errors.As(err, &appErr) {
		msg = appErr.Message
	}
	return mcp.NewToolResultError("Invalid arguments for " + tool + ": " + msg)
}

// serviceFailure renders an error returned by the weather service. Validation
// errors read as invalid arguments; anything else is logged and hidden.
func serviceFailure(ctx context.Context, tool string, err error) *mcp.CallToolResult {
	if types.CodeOf(err).IsValidation() {
		return invalidArguments(ctx, tool, err)
	}
	logger := types.LoggerFromContext(ctx, nil)
	logger.Error("tool failed", "tool", tool, "code", types.CodeOf(err), "error", err)
	return mcp.NewToolResultError(msgUnexpected)
}

// NewServer builds the MCP server with both weather tools registered.
func NewServer(cfg config.ServerConfig, svc WeatherService, logger *slog.Logger) *server.MCPServer {
	if logger == nil {
		logger = slog.Default()
	}

	s := server.NewMCPServer(cfg.Name, cfg.Version,
		server.WithToolCapabilities(false),
		server.WithToolHandlerMiddleware(RequestContext(logger)),
		server.WithToolHandlerMiddleware(Recoverer()),
	)

	alerts := NewAlertsTool(svc)
	forecast := NewForecastTool(svc)
	s.AddTools(
		server.ServerTool{Tool: alerts.Definition(), Handler: alerts.Handle},
		server.ServerTool{Tool: forecast.Definition(), Handler: forecast.Handle},
	)
	return s
}
