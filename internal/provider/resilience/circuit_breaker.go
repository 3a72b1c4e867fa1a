// Package resilience wraps calls to external providers (the generative
// language API) with per-attempt timeouts, retries and a circuit breaker.
package resilience

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// CircuitBreakerConfig holds configuration for the circuit breaker.
type CircuitBreakerConfig struct {
	// Name identifies the circuit breaker in logs and health reports.
	Name string

	// MaxRequests is the number of requests allowed through while half-open.
	MaxRequests uint32

	// Interval is the cyclic period for clearing counts while closed. Zero never clears.
	Interval time.Duration

	// Timeout is how long the breaker stays open before probing again.
	Timeout time.Duration

	// ReadyToTrip decides when to open. Nil uses DefaultReadyToTrip.
	ReadyToTrip func(counts gobreaker.Counts) bool

	// IsSuccessful classifies errors that should not count as failures.
	IsSuccessful func(err error) bool
}

// DefaultCircuitBreakerConfig returns the breaker settings used for providers.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:        name,
		MaxRequests: 1,
		Timeout:     60 * time.Second,
		ReadyToTrip: DefaultReadyToTrip,
	}
}

// DefaultReadyToTrip opens the breaker after at least 5 requests with a failure
// rate of 50% or more.
func DefaultReadyToTrip(counts gobreaker.Counts) bool {
	if counts.Requests < 5 {
		return false
	}
	return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
}

// NewCircuitBreaker creates a typed breaker that logs state transitions.
func NewCircuitBreaker[T any](cfg CircuitBreakerConfig, logger zerolog.Logger) *gobreaker.CircuitBreaker[T] {
	readyToTrip := cfg.ReadyToTrip
	if readyToTrip == nil {
		readyToTrip = DefaultReadyToTrip
	}

	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:         cfg.Name,
		MaxRequests:  cfg.MaxRequests,
		Interval:     cfg.Interval,
		Timeout:      cfg.Timeout,
		ReadyToTrip:  readyToTrip,
		IsSuccessful: cfg.IsSuccessful,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("provider", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})
}
