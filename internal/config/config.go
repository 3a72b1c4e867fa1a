// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environments.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// DevSigningKey is only accepted outside production.
const DevSigningKey = "local-dev-signing-key-change-in-production"

// Config is the configuration shared by the API and the worker.
// Database settings live in database.ConfigFromEnv.
type Config struct {
	// HTTP server
	Port        string
	Environment string
	LogLevel    string
	RequireTLS  bool

	// Tokens
	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string

	// Emission model
	EmissionFactorsFile string

	// Assistant
	GeminiAPIKey     string
	AssistantModel   string
	AssistantTimeout time.Duration

	// Pub/Sub
	PubSubProjectID    string
	PubSubTopic        string
	PubSubSubscription string

	// Telemetry
	OTelEnabled  bool
	OTLPEndpoint string

	// Feature flags
	FlagCacheTTL time.Duration
}

// Load reads an optional .env file and then the environment.
func Load() *Config {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads the environment only.
func FromEnv() *Config {
	return &Config{
		Port:        getEnv("APP_PORT", "8080"),
		Environment: getEnv("APP_ENV", EnvDevelopment),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		RequireTLS:  getEnvBool("REQUIRE_TLS", false),

		JWTSigningKey: getEnv("JWT_SIGNING_KEY", DevSigningKey),
		JWTIssuer:     getEnv("JWT_ISSUER", "https://api.ecotrace.dev"),
		JWTAudience:   getEnv("JWT_AUDIENCE", "ecotrace-api"),

		EmissionFactorsFile: getEnv("EMISSION_FACTORS_FILE", ""),

		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		AssistantModel:   getEnv("ASSISTANT_MODEL", "gemini-1.5-pro-latest"),
		AssistantTimeout: getEnvDuration("ASSISTANT_TIMEOUT", 5*time.Second),

		PubSubProjectID:    getEnv("PUBSUB_PROJECT_ID", ""),
		PubSubTopic:        getEnv("PUBSUB_TOPIC", "calculation-events"),
		PubSubSubscription: getEnv("PUBSUB_SUBSCRIPTION", "calculation-events-tips"),

		OTelEnabled:  getEnvBool("OTEL_ENABLED", false),
		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		FlagCacheTTL: getEnvDuration("FEATURE_FLAG_CACHE_TTL", time.Minute),
	}
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// AssistantEnabled reports whether an API key is configured.
func (c *Config) AssistantEnabled() bool {
	return c.GeminiAPIKey != ""
}

// PubSubEnabled reports whether events go through Pub/Sub.
func (c *Config) PubSubEnabled() bool {
	return c.PubSubProjectID != ""
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.Environment != EnvDevelopment && c.Environment != EnvProduction && c.Environment != "test" {
		errs = append(errs, fmt.Sprintf("invalid environment '%s': must be development, test or production", c.Environment))
	}

	switch strings.ToLower(c.LogLevel) {
	case "trace", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("invalid log level '%s'", c.LogLevel))
	}

	if c.JWTSigningKey == "" {
		errs = append(errs, "JWT signing key cannot be empty")
	} else if c.IsProduction() {
		if c.JWTSigningKey == DevSigningKey {
			errs = append(errs, "JWT_SIGNING_KEY must be set in production")
		} else if len(c.JWTSigningKey) < 32 {
			errs = append(errs, "JWT signing key must be at least 32 characters in production")
		}
	}

	if c.AssistantTimeout < 100*time.Millisecond || c.AssistantTimeout > time.Minute {
		errs = append(errs, fmt.Sprintf("invalid assistant timeout %v: must be between 100ms and 1m", c.AssistantTimeout))
	}

	if c.PubSubEnabled() {
		if c.PubSubTopic == "" {
			errs = append(errs, "PUBSUB_TOPIC cannot be empty when PUBSUB_PROJECT_ID is set")
		}
		if c.PubSubSubscription == "" {
			errs = append(errs, "PUBSUB_SUBSCRIPTION cannot be empty when PUBSUB_PROJECT_ID is set")
		}
	}

	if c.OTelEnabled {
		if _, _, err := net.SplitHostPort(c.OTLPEndpoint); err != nil {
			errs = append(errs, fmt.Sprintf("invalid OTLP endpoint '%s': must be host:port", c.OTLPEndpoint))
		}
	}

	if c.EmissionFactorsFile != "" {
		if _, err := os.Stat(c.EmissionFactorsFile); err != nil {
			errs = append(errs, fmt.Sprintf("emission factors file not readable: %v", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
