// Package config defines the process-wide configuration for the weather MCP
// server. Configuration is loaded once at startup and is immutable thereafter.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File -> Struct Defaults (Lowest)
//
// The defaults reproduce the fixed constants of the upstream integration
// (base URL, user agent), so an empty environment needs no configuration.
package config

import "time"

// Config is the top-level configuration struct.
// It is populated once during process initialization and never modified.
type Config struct {
	// System Metadata
	Environment string `envconfig:"APP_ENV" default:"local" validate:"oneof=local dev prod"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	Server   ServerConfig
	Upstream UpstreamConfig

	// Build Metadata (Injected via ldflags, not Env)
	Build BuildInfo
}

// ServerConfig holds the identity the MCP server advertises during initialize.
type ServerConfig struct {
	Name    string `envconfig:"MCP_SERVER_NAME" default:"weather" validate:"required"`
	Version string `envconfig:"MCP_SERVER_VERSION" default:"1.0.0" validate:"required"`
}

// UpstreamConfig holds settings for the National Weather Service API client.
type UpstreamConfig struct {
	BaseURL   string `envconfig:"NWS_BASE_URL" default:"https://api.weather.gov" validate:"required,url"`
	UserAgent string `envconfig:"NWS_USER_AGENT" default:"weather-app/1.0" validate:"required"`

	// Timeout of zero leaves the transport default in place (no client timeout).
	Timeout time.Duration `envconfig:"NWS_TIMEOUT" default:"0s" validate:"gte=0"`

	// BlockPrivateNetworks refuses to dial loopback and private ranges. The
	// forecast URL is taken from an upstream response, so this is on by default.
	BlockPrivateNetworks bool `envconfig:"NWS_BLOCK_PRIVATE_NETWORKS" default:"true"`

	// BreakerThreshold of zero disables the circuit breaker.
	BreakerThreshold uint32        `envconfig:"NWS_BREAKER_THRESHOLD" default:"0"`
	BreakerCooldown  time.Duration `envconfig:"NWS_BREAKER_COOLDOWN" default:"30s" validate:"gt=0"`
}

// BuildInfo holds build-time metadata injected via ldflags.
// These values are NOT populated from environment variables.
type BuildInfo struct {
	Version   string `ignored:"true"`
	Commit    string `ignored:"true"`
	BuildTime string `ignored:"true"`
}

// ConfigErrorType categorizes configuration loading failures to aid debugging.
type ConfigErrorType string

const (
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates a failure when parsing environment variable values
	// into their target types.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
)
