package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// ErrCircuitOpen is returned when the circuit breaker rejects a call.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Config holds configuration for an Executor.
type Config struct {
	// Name identifies the provider.
	Name string

	// Timeout bounds each individual attempt.
	Timeout time.Duration

	// MaxRetries is the number of retries after the first attempt.
	MaxRetries uint64

	// InitialInterval is the first backoff interval.
	InitialInterval time.Duration

	// MaxInterval caps the backoff interval.
	MaxInterval time.Duration

	// CircuitBreaker overrides DefaultCircuitBreakerConfig when set.
	CircuitBreaker *CircuitBreakerConfig

	// Registry receives the executor for health reporting when set.
	Registry *Registry

	Logger zerolog.Logger
}

// DefaultConfig returns the settings used for provider calls: 5 s per attempt,
// 2 retries.
func DefaultConfig(name string) Config {
	cb := DefaultCircuitBreakerConfig(name)
	return Config{
		Name:            name,
		Timeout:         5 * time.Second,
		MaxRetries:      2,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		CircuitBreaker:  &cb,
		Logger:          zerolog.Nop(),
	}
}

// Executor runs provider calls returning T with timeout, retry and circuit breaking.
type Executor[T any] struct {
	cfg      Config
	breaker  *gobreaker.CircuitBreaker[T]
	registry *Registry
}

// NewExecutor creates an executor and registers it when cfg.Registry is set.
func NewExecutor[T any](cfg Config) *Executor[T] {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = 200 * time.Millisecond
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = 2 * time.Second
	}

	cbCfg := DefaultCircuitBreakerConfig(cfg.Name)
	if cfg.CircuitBreaker != nil {
		cbCfg = *cfg.CircuitBreaker
	}
	if cbCfg.IsSuccessful == nil {
		cbCfg.IsSuccessful = isBreakerSuccess
	}

	e := &Executor[T]{
		cfg:      cfg,
		breaker:  NewCircuitBreaker[T](cbCfg, cfg.Logger),
		registry: cfg.Registry,
	}
	if e.registry != nil {
		e.registry.Register(cfg.Name, e)
	}
	return e
}

// Name returns the provider name.
func (e *Executor[T]) Name() string {
	return e.cfg.Name
}

// State returns the current circuit breaker state.
func (e *Executor[T]) State() gobreaker.State {
	return e.breaker.State()
}

// Counts returns the current circuit breaker counts.
func (e *Executor[T]) Counts() gobreaker.Counts {
	return e.breaker.Counts()
}

// Execute runs fn until it succeeds, returns a permanent error, the retries
// are exhausted or ctx is done. Each attempt gets its own timeout.
func (e *Executor[T]) Execute(ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = e.cfg.InitialInterval
	bo.MaxInterval = e.cfg.MaxInterval
	bo.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, e.cfg.MaxRetries), ctx)

	var result T
	operation := func() error {
		v, err := e.breaker.Execute(func() (T, error) {
			attemptCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
			defer cancel()
			return fn(attemptCtx)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(ErrCircuitOpen)
			}
			var perm *PermanentError
			if errors.As(err, &perm) {
				return backoff.Permanent(perm.Err)
			}
			return err
		}
		result = v
		return nil
	}

	err := backoff.Retry(operation, policy)
	if e.registry != nil {
		if err != nil {
			e.registry.RecordFailure(e.cfg.Name, err)
		} else {
			e.registry.RecordSuccess(e.cfg.Name)
		}
	}
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// PermanentError marks an error as not worth retrying, such as a rejected request.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// Permanent wraps err so Execute stops retrying and the breaker does not count it.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

func isBreakerSuccess(err error) bool {
	if err == nil {
		return true
	}
	var perm *PermanentError
	return errors.As(err, &perm)
}
