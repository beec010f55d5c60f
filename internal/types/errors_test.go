package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAppErrorImplementsError verifies that *AppError satisfies the error interface.
func TestAppErrorImplementsError(t *testing.T) {
	var _ error = (*AppError)(nil)
}

// TestAppErrorErrorFormat verifies the Error() method produces "code: message".
func TestAppErrorErrorFormat(t *testing.T) {
	appErr := &AppError{
		Code:    ErrCodeUpstreamUnavailable,
		Message: "upstream returned 500",
	}

	assert.Equal(t, "upstream_unavailable: upstream returned 500", appErr.Error())
}

func TestAppErrorUnwrap(t *testing.T) {
	underlying := errors.New("connection refused")
	appErr := NewAppError(ErrCodeUpstreamUnavailable, "request failed", underlying)

	assert.Same(t, underlying, appErr.Unwrap())
	assert.ErrorIs(t, appErr, underlying)
}

func TestAppErrorErrorsAs(t *testing.T) {
	appErr := NewAppError(ErrCodeMissingForecastURL, "no forecast link", nil)
	wrapped := fmt.Errorf("stage 1: %w", appErr)

	var target *AppError
	require.True(t, errors.As(wrapped, &target))
	assert.Equal(t, ErrCodeMissingForecastURL, target.Code)
}

// TestAppErrorWithDetails verifies the original error is not mutated.
func TestAppErrorWithDetails(t *testing.T) {
	original := NewAppError(ErrCodeUpstreamUnavailable, "bad status", nil)
	original.Details = map[string]any{"url": "https://api.weather.gov/alerts"}

	enriched := original.WithDetails(map[string]any{"status": 503})

	assert.Len(t, original.Details, 1)
	assert.Equal(t, 503, enriched.Details["status"])
	assert.Equal(t, "https://api.weather.gov/alerts", enriched.Details["url"])
	assert.Equal(t, original.Code, enriched.Code)
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"nil", nil, ""},
		{"plain error", errors.New("boom"), ErrCodeInternalUnexpected},
		{"app error", NewAppError(ErrCodeMissingAlerts, "none", nil), ErrCodeMissingAlerts},
		{"wrapped app error", fmt.Errorf("outer: %w", NewAppError(ErrCodeUpstreamRateLimited, "open", nil)), ErrCodeUpstreamRateLimited},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CodeOf(tt.err))
		})
	}
}

func TestErrorCodeFamilies(t *testing.T) {
	assert.True(t, ErrCodeUpstreamUnavailable.IsUpstream())
	assert.True(t, ErrCodeUpstreamRateLimited.IsUpstream())
	assert.False(t, ErrCodeMissingForecastURL.IsUpstream())

	assert.True(t, ErrCodeMissingForecastURL.IsMissingData())
	assert.True(t, ErrCodeMissingForecastPeriods.IsMissingData())
	assert.False(t, ErrCodeValidationInvalidState.IsMissingData())

	assert.True(t, ErrCodeValidationInvalidLat.IsValidation())
	assert.False(t, ErrCodeInternalUnexpected.IsValidation())
}
