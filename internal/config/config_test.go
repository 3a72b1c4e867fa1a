package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecotrace/ecotrace/internal/config"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"APP_PORT", "APP_ENV", "ASSISTANT_TIMEOUT", "GEMINI_API_KEY", "PUBSUB_PROJECT_ID"} {
		t.Setenv(k, "")
	}

	cfg := config.FromEnv()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, config.EnvDevelopment, cfg.Environment)
	assert.Equal(t, 5*time.Second, cfg.AssistantTimeout)
	assert.Equal(t, "gemini-1.5-pro-latest", cfg.AssistantModel)
	assert.False(t, cfg.AssistantEnabled())
	assert.False(t, cfg.PubSubEnabled())
	assert.NoError(t, cfg.Validate())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("ASSISTANT_TIMEOUT", "2s")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("GEMINI_API_KEY", "key")

	cfg := config.FromEnv()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 2*time.Second, cfg.AssistantTimeout)
	assert.True(t, cfg.OTelEnabled)
	assert.True(t, cfg.AssistantEnabled())
}

func validConfig() config.Config {
	return config.Config{
		Port:             "8080",
		Environment:      config.EnvDevelopment,
		LogLevel:         "info",
		JWTSigningKey:    config.DevSigningKey,
		AssistantTimeout: 5 * time.Second,
		OTLPEndpoint:     "localhost:4317",
	}
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	factors := filepath.Join(dir, "factors.yaml")
	require.NoError(t, os.WriteFile(factors, []byte("factors: {}\n"), 0o600))

	tests := []struct {
		name    string
		mutate  func(c *config.Config)
		wantErr string
	}{
		{"valid", func(*config.Config) {}, ""},
		{"bad port", func(c *config.Config) { c.Port = "abc" }, "invalid port 'abc'"},
		{"port out of range", func(c *config.Config) { c.Port = "70000" }, "between 1 and 65535"},
		{"bad env", func(c *config.Config) { c.Environment = "staging" }, "invalid environment"},
		{"bad log level", func(c *config.Config) { c.LogLevel = "loud" }, "invalid log level"},
		{"dev key in production", func(c *config.Config) { c.Environment = config.EnvProduction }, "JWT_SIGNING_KEY must be set"},
		{"short key in production", func(c *config.Config) {
			c.Environment = config.EnvProduction
			c.JWTSigningKey = "short"
		}, "at least 32 characters"},
		{"pubsub without topic", func(c *config.Config) {
			c.PubSubProjectID = "proj"
			c.PubSubSubscription = "sub"
		}, "PUBSUB_TOPIC"},
		{"bad otlp endpoint", func(c *config.Config) {
			c.OTelEnabled = true
			c.OTLPEndpoint = "collector"
		}, "invalid OTLP endpoint"},
		{"assistant timeout", func(c *config.Config) { c.AssistantTimeout = time.Hour }, "invalid assistant timeout"},
		{"missing factors file", func(c *config.Config) { c.EmissionFactorsFile = filepath.Join(dir, "nope.yaml") }, "emission factors file"},
		{"existing factors file", func(c *config.Config) { c.EmissionFactorsFile = factors }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	cfg := validConfig()
	cfg.Port = "0"
	cfg.LogLevel = "loud"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Equal(t, 2, strings.Count(err.Error(), "\n- "))
}
