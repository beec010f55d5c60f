package tools

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"weathermcp/internal/types"
)

// msgUnexpected is the tool error text for failures that are not the caller's.
const msgUnexpected = "an unexpected error occurred"

// RequestContext assigns every tool call a request ID and a logger scoped to
// it, then logs the call's outcome and duration. It must be the outermost
// middleware so that everything downstream sees the scoped logger.
func RequestContext(logger *slog.Logger) server.ToolHandlerMiddleware {
	return func(next server.ToolHandlerFunc) server.ToolHandlerFunc {
		return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			start := time.Now()
			requestID := uuid.NewString()

			scoped := logger.With(
				slog.String("request_id", requestID),
				slog.String("tool", req.Params.Name),
			)
			ctx = types.WithRequestID(ctx, requestID)
			ctx = types.WithLogger(ctx, scoped)

			result, err := next(ctx, req)

			attrs := []any{slog.Duration("duration", time.Since(start))}
			switch {
			case err != nil:
				scoped.Error("tool call failed", append(attrs, slog.String("error", err.Error()))...)
			case result != nil && result.IsError:
				scoped.Info("tool call returned error result", attrs...)
			default:
				scoped.Info("tool call completed", attrs...)
			}
			return result, err
		}
	}
}

// Recoverer converts a panic in a tool handler into a tool error result and
// logs the stack trace. The stdio session stays up.
func Recoverer() server.ToolHandlerMiddleware {
	return func(next server.ToolHandlerFunc) server.ToolHandlerFunc {
		return func(ctx context.Context, req mcp.CallToolRequest) (result *mcp.CallToolResult, err error) {
			defer func() {
				if rvr := recover(); rvr != nil {
					types.LoggerFromContext(ctx, nil).Error("panic recovered",
						slog.String("tool", req.Params.Name),
						slog.String("panic", fmt.Sprintf("%v", rvr)),
						slog.String("stack", string(debug.Stack())),
					)
					result = mcp.NewToolResultError(msgUnexpected)
					err = nil
				}
			}()
			return next(ctx, req)
		}
	}
}
