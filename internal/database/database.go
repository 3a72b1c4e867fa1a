// Package database provides PostgreSQL connection management and schema migrations.
package database

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config holds database connection configuration.
type Config struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// AutoMigrate applies pending migrations on startup.
	AutoMigrate bool
}

// ConfigFromEnv creates a Config from DB_* environment variables.
func ConfigFromEnv() Config {
	port, _ := strconv.Atoi(getEnvOrDefault("DB_PORT", "5432"))
	maxOpen, _ := strconv.Atoi(getEnvOrDefault("DB_MAX_OPEN_CONNS", "10"))
	maxIdle, _ := strconv.Atoi(getEnvOrDefault("DB_MAX_IDLE_CONNS", "2"))
	lifetime, _ := time.ParseDuration(getEnvOrDefault("DB_CONN_MAX_LIFETIME", "5m"))
	autoMigrate, _ := strconv.ParseBool(getEnvOrDefault("DB_AUTO_MIGRATE", "true"))

	return Config{
		Host:            getEnvOrDefault("DB_HOST", "localhost"),
		Port:            port,
		User:            getEnvOrDefault("DB_USER", "ecotrace"),
		Password:        getEnvOrDefault("DB_PASSWORD", "localdev"),
		Database:        getEnvOrDefault("DB_NAME", "ecotrace"),
		SSLMode:         getEnvOrDefault("DB_SSL_MODE", "disable"),
		MaxOpenConns:    maxOpen,
		MaxIdleConns:    maxIdle,
		ConnMaxLifetime: lifetime,
		AutoMigrate:     autoMigrate,
	}
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var problems []string
	if c.Host == "" {
		problems = append(problems, "DB_HOST is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		problems = append(problems, "DB_PORT must be between 1 and 65535")
	}
	if c.Database == "" {
		problems = append(problems, "DB_NAME is required")
	}
	if c.MaxOpenConns <= 0 {
		problems = append(problems, "DB_MAX_OPEN_CONNS must be positive")
	}
	if c.MaxIdleConns < 0 || c.MaxIdleConns > c.MaxOpenConns {
		problems = append(problems, "DB_MAX_IDLE_CONNS must be between 0 and DB_MAX_OPEN_CONNS")
	}
	if len(problems) > 0 {
		return errors.New("database config: " + strings.Join(problems, "; "))
	}
	return nil
}

// ConnectionString returns the PostgreSQL connection URL.
func (c Config) ConnectionString() string {
	return c.url("postgres")
}

// MigrationURL returns the connection URL understood by the pgx/v5 migrate driver.
func (c Config) MigrationURL() string {
	return c.url("pgx5")
}

func (c Config) url(scheme string) string {
	u := url.URL{
		Scheme:   scheme,
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Database,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}

// Connect creates a new database connection pool and verifies it with a ping.
func Connect(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns) //nolint:gosec // bounded by Validate
	poolConfig.MinConns = int32(cfg.MaxIdleConns) //nolint:gosec // bounded by Validate
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
