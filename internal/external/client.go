// Package external provides the anti-corruption layer between the weather
// domain and third-party HTTP APIs. All outbound HTTP calls are routed through
// the BaseClient, which enforces consistent behavior: identifying headers,
// request-ID propagation, optional circuit breaking, compressed-body decoding,
// and error mapping.
//
// The BaseClient issues exactly one attempt per call. Callers that need a
// different policy compose it on top. The circuit breaker is disabled unless a
// positive FailureThreshold is configured, so by default no call's outcome
// affects another.
package external

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"weathermcp/internal/types"

	"github.com/sony/gobreaker/v2"
)

// HeaderRequestID carries the per-invocation correlation ID upstream.
const HeaderRequestID = "X-Request-ID"

// acceptEncoding lists the content codings decodeBody understands.
const acceptEncoding = "gzip, zstd"

// BreakerSettings configures the circuit breaker guarding an upstream.
type BreakerSettings struct {
	Name string
	// FailureThreshold is the number of consecutive failures that opens the
	// breaker. Zero disables tripping.
	FailureThreshold uint32
	// Cooldown is how long the breaker stays open before allowing a probe request.
	Cooldown time.Duration
}

// DefaultBreakerSettings returns a never-tripping breaker for the named upstream.
func DefaultBreakerSettings(name string) BreakerSettings {
	return BreakerSettings{
		Name:             name,
		FailureThreshold: 0,
		Cooldown:         30 * time.Second,
	}
}

// BaseClient wraps an *http.Client and a circuit breaker. Provider clients
// (the NWS gateway) embed or hold a BaseClient to inherit this behavior.
type BaseClient struct {
	client    *http.Client
	breaker   *gobreaker.CircuitBreaker[*http.Response]
	userAgent string
	accept    string
	logger    *slog.Logger
}

// BaseClientOption is a functional option for configuring a BaseClient.
type BaseClientOption func(*BaseClient)

// WithAccept sets the Accept header sent on requests that do not set one.
func WithAccept(accept string) BaseClientOption {
	return func(c *BaseClient) {
		c.accept = accept
	}
}

// WithLogger sets the logger used for breaker state transitions.
func WithLogger(logger *slog.Logger) BaseClientOption {
	return func(c *BaseClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewBaseClient creates a BaseClient with the given http client, breaker
// settings, and user agent string.
func NewBaseClient(
	httpClient *http.Client,
	settings BreakerSettings,
	userAgent string,
	opts ...BaseClientOption,
) *BaseClient {
	bc := &BaseClient{
		client:    httpClient,
		userAgent: userAgent,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(bc)
	}

	threshold := settings.FailureThreshold
	bc.breaker = gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     settings.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return threshold > 0 && counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: isBreakerSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			bc.logger.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	return bc
}

// isBreakerSuccess reports whether err leaves the breaker's failure count
// untouched. Caller cancellation is not an upstream failure.
func isBreakerSuccess(err error) bool {
	return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Do executes the HTTP request with:
//  1. Request ID injection (X-Request-ID from context)
//  2. User-Agent, Accept, and Accept-Encoding header injection
//  3. Circuit breaker wrapping (5xx and 429 count as failures)
//  4. Transparent gzip/zstd body decoding
//  5. Error mapping to types.AppError
//
// On success (any status other than 5xx/429), Do returns the response with a
// decoded body. The caller is responsible for closing the response body and
// for interpreting non-2xx statuses.
func (c *BaseClient) Do(req *http.Request) (*http.Response, error) {
	if reqID := types.GetRequestID(req.Context()); reqID != "" {
		req.Header.Set(HeaderRequestID, reqID)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.accept != "" && req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", c.accept)
	}
	req.Header.Set("Accept-Encoding", acceptEncoding)

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		r, doErr := c.client.Do(req)
		if doErr != nil {
			return nil, doErr
		}
		if r.StatusCode >= 500 {
			return r, fmt.Errorf("upstream returned %d", r.StatusCode)
		}
		if r.StatusCode == http.StatusTooManyRequests {
			return r, fmt.Errorf("upstream returned 429")
		}
		return r, nil
	})
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, c.mapError(resp, err)
	}

	if err := decodeBody(resp); err != nil {
		resp.Body.Close()
		return nil, types.NewAppError(
			types.ErrCodeUpstreamUnavailable,
			"failed to decode response body",
			err,
		)
	}

	return resp, nil
}

// mapError translates HTTP-level failures into domain-level AppErrors.
func (c *BaseClient) mapError(resp *http.Response, err error) *types.AppError {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return types.NewAppError(
			types.ErrCodeUpstreamRateLimited,
			"circuit breaker is open; upstream service unavailable",
			err,
		)
	}

	if resp != nil {
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return types.NewAppError(
				types.ErrCodeUpstreamRateLimited,
				"upstream rate limit exceeded",
				err,
			).WithDetails(map[string]any{"status": resp.StatusCode})
		case resp.StatusCode >= 500:
			return types.NewAppError(
				types.ErrCodeUpstreamUnavailable,
				fmt.Sprintf("upstream returned %d", resp.StatusCode),
				err,
			).WithDetails(map[string]any{"status": resp.StatusCode})
		}
	}

	// Network error, DNS failure, blocked dial, context cancellation.
	return types.NewAppError(
		types.ErrCodeUpstreamUnavailable,
		"upstream request failed",
		err,
	)
}
