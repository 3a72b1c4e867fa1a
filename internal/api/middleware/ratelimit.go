package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	"github.com/ecotrace/ecotrace/internal/api/models"
)

// RateLimitConfig holds configuration for rate limiting.
type RateLimitConfig struct {
	RequestLimit int
	WindowLength time.Duration
}

// Rate limits per route group.
var (
	// AuthRateLimit applies to signup, login and refresh (10 req/min per IP).
	AuthRateLimit = RateLimitConfig{RequestLimit: 10, WindowLength: time.Minute}

	// ExpensiveRateLimit applies to the assistant and the public estimate (30 req/min).
	ExpensiveRateLimit = RateLimitConfig{RequestLimit: 30, WindowLength: time.Minute}

	// CalculationRateLimit applies to the calculation routes (100 req per 15 min per user).
	CalculationRateLimit = RateLimitConfig{RequestLimit: 100, WindowLength: 15 * time.Minute}

	// StandardRateLimit applies to everything else (100 req/min).
	StandardRateLimit = RateLimitConfig{RequestLimit: 100, WindowLength: time.Minute}
)

// RateLimitByIP limits by client IP. Run chi's RealIP middleware first when
// behind a proxy.
func RateLimitByIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowLength,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(limitExceeded(cfg)),
	)
}

// RateLimitByUser limits by authenticated user, falling back to the client IP.
func RateLimitByUser(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowLength,
		httprate.WithKeyFuncs(keyByUserOrIP),
		httprate.WithLimitHandler(limitExceeded(cfg)),
	)
}

func keyByUserOrIP(r *http.Request) (string, error) {
	if userID := GetUserID(r.Context()); userID != "" {
		return "user:" + userID, nil
	}
	return httprate.KeyByRealIP(r)
}

// limitExceeded writes an RFC 7807 response. httprate does not expose the
// reset time, so Retry-After is the full window.
func limitExceeded(cfg RateLimitConfig) http.HandlerFunc {
	retryAfter := strconv.Itoa(int(cfg.WindowLength.Seconds()))
	return func(w http.ResponseWriter, r *http.Request) {
		problem := models.NewTooManyRequests(GetRequestID(r.Context()), "Too many requests, please try again later.")
		problem.Instance = r.URL.Path
		w.Header().Set("Retry-After", retryAfter)
		problem.Write(w)
	}
}
