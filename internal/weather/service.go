// Package weather turns National Weather Service responses into the plain
// text returned by the get-alerts and get-forecast tools.
//
// Upstream failures never escape as Go errors: every outcome of a lookup,
// including "the service was down", is a sentence for the caller. The only
// error a Service returns is a validation error for out-of-range input.
package weather

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"weathermcp/internal/nws"
	"weathermcp/internal/types"
)

// Upstream is the subset of the NWS gateway the service depends on.
type Upstream interface {
	FetchAlerts(ctx context.Context, area string) (*nws.AlertsResponse, error)
	FetchPoints(ctx context.Context, lat, lon float64) (*nws.PointsResponse, error)
	FetchForecast(ctx context.Context, forecastURL string) (*nws.ForecastResponse, error)
}

// Caller-facing messages.
const (
	msgAlertsFailed        = "Failed to retrieve alerts data"
	msgNoActiveAlerts      = "No active alerts for %s"
	msgActiveAlerts        = "Active alerts for %s:\n\n%s"
	msgPointsFailed        = "Failed to retrieve grid point data for coordinates: %s, %s. This location may not be supported by the NWS API (only US locations are supported)."
	msgMissingForecastURL  = "Failed to get forecast URL from grid point data"
	msgForecastFailed      = "Failed to retrieve forecast data"
	msgNoForecastPeriods   = "No forecast periods available"
	msgForecastForLocation = "Forecast for %s, %s:\n\n%s"
)

// Service implements the two tool handlers on top of an Upstream.
type Service struct {
	upstream Upstream
	logger   *slog.Logger
}

// NewService creates a Service. A nil logger falls back to slog.Default().
func NewService(upstream Upstream, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{upstream: upstream, logger: logger}
}

// Alerts returns the active alerts for a two-letter state code. The code is
// case-insensitive; "ca" and "CA" produce the same request.
func (s *Service) Alerts(ctx context.Context, state string) (string, error) {
	code, err := types.NormalizeStateCode(state)
	if err != nil {
		return "", err
	}
	logger := types.LoggerFromContext(ctx, s.logger).With("state", code)

	resp, err := s.upstream.FetchAlerts(ctx, code)
	if err != nil {
		logFailure(logger, "alerts lookup failed", err)
		return msgAlertsFailed, nil
	}

	if resp.Features == nil {
		// A missing or mistyped features member decodes to nil, not an empty list.
		logger.Warn("alerts response has no feature list", "code", types.ErrCodeMissingAlerts)
	}
	if len(resp.Features) == 0 {
		logger.Info("no active alerts")
		return fmt.Sprintf(msgNoActiveAlerts, code), nil
	}

	logger.Info("alerts retrieved", "count", len(resp.Features))
	return fmt.Sprintf(msgActiveAlerts, code, formatAlerts(resp.Features)), nil
}

// Forecast returns the forecast for a coordinate. It first resolves the grid
// point to a forecast URL and only then fetches the periods; a failure in the
// first stage means the second request is never made.
func (s *Service) Forecast(ctx context.Context, lat, lon float64) (string, error) {
	if err := types.ValidateCoordinates(lat, lon); err != nil {
		return "", err
	}
	logger := types.LoggerFromContext(ctx, s.logger).With("latitude", lat, "longitude", lon)
	latText, lonText := formatCoordinate(lat), formatCoordinate(lon)

	forecastURL, err := s.resolveForecastURL(ctx, lat, lon)
	if err != nil {
		logFailure(logger, "grid point lookup failed", err)
		if types.CodeOf(err).IsMissingData() {
			return msgMissingForecastURL, nil
		}
		return fmt.Sprintf(msgPointsFailed, latText, lonText), nil
	}

	periods, err := s.fetchPeriods(ctx, forecastURL)
	if err != nil {
		logFailure(logger.With("url", forecastURL), "forecast lookup failed", err)
		if types.CodeOf(err).IsMissingData() {
			return msgNoForecastPeriods, nil
		}
		return msgForecastFailed, nil
	}

	logger.Info("forecast retrieved", "periods", len(periods))
	return fmt.Sprintf(msgForecastForLocation, latText, lonText, formatPeriods(periods)), nil
}

// resolveForecastURL performs the points lookup and extracts the forecast
// link. The link must be an absolute http(s) URL.
func (s *Service) resolveForecastURL(ctx context.Context, lat, lon float64) (string, error) {
	resp, err := s.upstream.FetchPoints(ctx, lat, lon)
	if err != nil {
		return "", err
	}

	raw := resp.Properties.Forecast
	if raw == nil || *raw == "" {
		return "", types.NewAppError(types.ErrCodeMissingForecastURL, "points response has no forecast link", nil)
	}

	u, err := url.Parse(*raw)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", types.NewAppError(types.ErrCodeMissingForecastURL, "points response has an unusable forecast link", err).
			WithDetails(map[string]any{"forecast": *raw})
	}
	return u.String(), nil
}

// fetchPeriods follows the forecast link and returns its periods in order.
func (s *Service) fetchPeriods(ctx context.Context, forecastURL string) ([]nws.ForecastPeriod, error) {
	resp, err := s.upstream.FetchForecast(ctx, forecastURL)
	if err != nil {
		return nil, err
	}
	switch {
	case resp.Properties.Periods == nil:
		return nil, types.NewAppError(types.ErrCodeMissingForecastPeriods, "forecast response has no periods list", nil)
	case len(resp.Properties.Periods) == 0:
		return nil, types.NewAppError(types.ErrCodeMissingForecastPeriods, "forecast response has no periods", nil)
	}
	return resp.Properties.Periods, nil
}

// logFailure records a failed lookup. Upstream outages and incomplete
// responses are expected and logged as warnings; anything else is an error.
func logFailure(logger *slog.Logger, msg string, err error) {
	code := types.CodeOf(err)
	if code.IsUpstream() || code.IsMissingData() {
		logger.Warn(msg, "code", code, "error", err)
		return
	}
	logger.Error(msg, "code", code, "error", err)
}
