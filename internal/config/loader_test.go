package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetEnv removes key from the environment for the duration of the test and
// restores the previous state afterward, including values set by godotenv.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	prev, had := os.LookupEnv(key)
	require.NoError(t, os.Unsetenv(key))
	t.Cleanup(func() {
		if had {
			os.Setenv(key, prev)
		} else {
			os.Unsetenv(key)
		}
	})
}

// TestLoadConfig_Defaults verifies that an empty environment reproduces the
// fixed upstream constants.
func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{
		"APP_ENV", "LOG_LEVEL", "MCP_SERVER_NAME", "MCP_SERVER_VERSION",
		"NWS_BASE_URL", "NWS_USER_AGENT", "NWS_TIMEOUT", "NWS_BLOCK_PRIVATE_NETWORKS",
		"NWS_BREAKER_THRESHOLD", "NWS_BREAKER_COOLDOWN",
	} {
		unsetEnv(t, key)
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "weather", cfg.Server.Name)
	assert.Equal(t, "1.0.0", cfg.Server.Version)
	assert.Equal(t, "https://api.weather.gov", cfg.Upstream.BaseURL)
	assert.Equal(t, "weather-app/1.0", cfg.Upstream.UserAgent)
	assert.Equal(t, time.Duration(0), cfg.Upstream.Timeout)
	assert.True(t, cfg.Upstream.BlockPrivateNetworks)
	assert.Equal(t, uint32(0), cfg.Upstream.BreakerThreshold)
	assert.Equal(t, 30*time.Second, cfg.Upstream.BreakerCooldown)
	assert.Equal(t, "dev", cfg.Build.Version)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("NWS_BASE_URL", "https://nws.example.test")
	t.Setenv("NWS_USER_AGENT", "(example.com, ops@example.com)")
	t.Setenv("NWS_TIMEOUT", "15s")
	t.Setenv("NWS_BLOCK_PRIVATE_NETWORKS", "false")
	t.Setenv("NWS_BREAKER_THRESHOLD", "3")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Environment)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "https://nws.example.test", cfg.Upstream.BaseURL)
	assert.Equal(t, "(example.com, ops@example.com)", cfg.Upstream.UserAgent)
	assert.Equal(t, 15*time.Second, cfg.Upstream.Timeout)
	assert.False(t, cfg.Upstream.BlockPrivateNetworks)
	assert.Equal(t, uint32(3), cfg.Upstream.BreakerThreshold)
}

// TestLoadConfig_DotenvDoesNotOverrideEnv verifies the priority chain:
// OS environment beats the dotenv file, and the file beats defaults.
func TestLoadConfig_DotenvDoesNotOverrideEnv(t *testing.T) {
	unsetEnv(t, "MCP_SERVER_NAME")
	t.Setenv("LOG_LEVEL", "warn")

	path := filepath.Join(t.TempDir(), "test.env")
	content := "LOG_LEVEL=error\nMCP_SERVER_NAME=weather-staging\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "weather-staging", cfg.Server.Name)
}

func TestLoadConfig_MissingDotenvIsNotFatal(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.env"))
	require.NoError(t, err)
}

func TestLoadConfig_ParsingError(t *testing.T) {
	t.Setenv("NWS_TIMEOUT", "soon")

	_, err := LoadConfig()
	require.Error(t, err)

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, ErrParsing, cfgErr.Type)
}

func TestLoadConfig_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown environment", "APP_ENV", "staging"},
		{"unknown log level", "LOG_LEVEL", "verbose"},
		{"base url not a url", "NWS_BASE_URL", "api.weather.gov"},
		{"negative timeout", "NWS_TIMEOUT", "-1s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := LoadConfig()
			require.Error(t, err)

			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, ErrValidation, cfgErr.Type)
		})
	}
}

func TestConfigError_Format(t *testing.T) {
	withCause := &ConfigError{Type: ErrParsing, Message: "bad value", Err: errors.New("invalid duration")}
	assert.Equal(t, "[PARSING_FAILED] bad value: invalid duration", withCause.Error())

	bare := &ConfigError{Type: ErrValidation, Message: "missing field"}
	assert.Equal(t, "[VALIDATION_FAILED] missing field", bare.Error())
	assert.Nil(t, bare.Unwrap())
}
