package types

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithRequestID_GetRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-123")
	assert.Equal(t, "req-123", GetRequestID(ctx))
}

func TestGetRequestID_Missing(t *testing.T) {
	assert.Empty(t, GetRequestID(context.Background()))
}

func TestLoggerFromContext(t *testing.T) {
	scoped := slog.New(slog.NewTextHandler(io.Discard, nil))
	fallback := slog.New(slog.NewJSONHandler(io.Discard, nil))

	ctx := WithLogger(context.Background(), scoped)
	assert.Same(t, scoped, LoggerFromContext(ctx, fallback))
}

// TestLoggerFromContext_Fallbacks verifies the fallback chain when no logger
// has been stored: explicit fallback first, then slog.Default().
func TestLoggerFromContext_Fallbacks(t *testing.T) {
	fallback := slog.New(slog.NewJSONHandler(io.Discard, nil))

	assert.Same(t, fallback, LoggerFromContext(context.Background(), fallback))
	assert.Same(t, slog.Default(), LoggerFromContext(context.Background(), nil))
}
