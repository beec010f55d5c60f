// Package nws is the request gateway to the National Weather Service API
// (api.weather.gov). It issues single GET requests with the fixed identifying
// headers, decodes GeoJSON bodies, and folds every failure (network error,
// non-2xx status, undecodable body) into an upstream_unavailable AppError
// after logging it. Nothing past this boundary ever sees a raw transport error.
package nws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"weathermcp/internal/external"
	"weathermcp/internal/types"
)

// Fixed upstream identity.
const (
	DefaultBaseURL   = "https://api.weather.gov"
	DefaultUserAgent = "weather-app/1.0"
	AcceptGeoJSON    = "application/geo+json"
)

// maxResponseBytes caps how much of a response body is decoded.
const maxResponseBytes = 10 << 20

// Client is the NWS request gateway.
type Client struct {
	http    *external.BaseClient
	baseURL string
	logger  *slog.Logger
}

// Options configures a Client. Zero values fall back to the package defaults.
type Options struct {
	BaseURL    string
	UserAgent  string
	HTTPClient *http.Client
	Breaker    external.BreakerSettings
	Logger     *slog.Logger
}

// NewClient creates an NWS gateway.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Breaker.Name == "" {
		opts.Breaker = external.DefaultBreakerSettings("nws")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Client{
		http: external.NewBaseClient(
			opts.HTTPClient,
			opts.Breaker,
			opts.UserAgent,
			external.WithAccept(AcceptGeoJSON),
			external.WithLogger(opts.Logger),
		),
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		logger:  opts.Logger,
	}
}

// AlertsURL builds the active-alerts-by-area endpoint. The code is used as
// given; callers normalize it first.
func (c *Client) AlertsURL(area string) string {
	return fmt.Sprintf("%s/alerts?%s", c.baseURL, url.Values{"area": {area}}.Encode())
}

// PointsURL builds the grid point lookup for a coordinate, rounded to four
// decimal places (the precision the API accepts without redirecting).
func (c *Client) PointsURL(lat, lon float64) string {
	return fmt.Sprintf("%s/points/%.4f,%.4f", c.baseURL, lat, lon)
}

// FetchAlerts returns the active alerts for a two-letter area code.
func (c *Client) FetchAlerts(ctx context.Context, area string) (*AlertsResponse, error) {
	var out AlertsResponse
	if err := c.GetJSON(ctx, c.AlertsURL(area), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchPoints returns the grid point metadata for a coordinate.
func (c *Client) FetchPoints(ctx context.Context, lat, lon float64) (*PointsResponse, error) {
	var out PointsResponse
	if err := c.GetJSON(ctx, c.PointsURL(lat, lon), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchForecast follows a forecast URL obtained from a points lookup.
func (c *Client) FetchForecast(ctx context.Context, forecastURL string) (*ForecastResponse, error) {
	var out ForecastResponse
	if err := c.GetJSON(ctx, forecastURL, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetJSON issues one GET to rawURL and decodes the JSON body into out.
//
// The body is not validated against a schema: a parseable document with
// missing fields decodes as-is. Fields whose JSON type does not match the
// destination are left unset and logged rather than failing the whole call.
func (c *Client) GetJSON(ctx context.Context, rawURL string, out any) error {
	logger := types.LoggerFromContext(ctx, c.logger)

	fail := func(err *types.AppError) error {
		logger.Error("weather service request failed",
			"url", rawURL,
			"code", err.Code,
			"error", err,
		)
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fail(types.NewAppError(types.ErrCodeUpstreamUnavailable, "failed to build request", err))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		var appErr *types.AppError
		if errors.As(err, &appErr) {
			return fail(appErr)
		}
		return fail(types.NewAppError(types.ErrCodeUpstreamUnavailable, "upstream request failed", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.CopyN(io.Discard, resp.Body, 4<<10)
		return fail(types.NewAppError(
			types.ErrCodeUpstreamUnavailable,
			fmt.Sprintf("HTTP error! status %d", resp.StatusCode),
			nil,
		).WithDetails(map[string]any{"status": resp.StatusCode}))
	}

	dec := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes))
	if err := dec.Decode(out); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			logger.Warn("weather service response has mistyped field",
				"url", rawURL,
				"field", typeErr.Field,
				"error", err,
			)
			return nil
		}
		return fail(types.NewAppError(types.ErrCodeUpstreamUnavailable, "failed to decode response", err))
	}

	logger.Debug("weather service request succeeded", "url", rawURL, "status", resp.StatusCode)
	return nil
}
