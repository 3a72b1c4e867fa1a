package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ecotrace/ecotrace/internal/api/middleware"
)

func doRequest(h http.Handler, remoteAddr, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitByIP(t *testing.T) {
	cfg := middleware.RateLimitConfig{RequestLimit: 3, WindowLength: time.Minute}
	handler := middleware.RateLimitByIP(cfg)(okHandler())

	for i := 0; i < 3; i++ {
		rec := doRequest(handler, "10.0.0.1:12345", "/test")
		assert.Equal(t, http.StatusOK, rec.Code, "request %d should be allowed", i+1)
	}

	rec := doRequest(handler, "10.0.0.1:12345", "/test")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	rec = doRequest(handler, "10.0.0.2:12345", "/test")
	assert.Equal(t, http.StatusOK, rec.Code, "other IPs have their own budget")
}

func TestRateLimitByUser_KeysOnUserID(t *testing.T) {
	cfg := middleware.RateLimitConfig{RequestLimit: 2, WindowLength: 15 * time.Minute}
	limited := middleware.RateLimitByUser(cfg)(okHandler())

	asUser := func(userID, remoteAddr string) int {
		req := httptest.NewRequest(http.MethodGet, "/v1/calculations", http.NoBody)
		req.RemoteAddr = remoteAddr
		req = req.WithContext(middleware.WithUserID(req.Context(), userID))
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, asUser("usr_a", "192.168.1.1:1"))
	assert.Equal(t, http.StatusOK, asUser("usr_a", "192.168.1.2:1"))
	assert.Equal(t, http.StatusTooManyRequests, asUser("usr_a", "192.168.1.3:1"), "same user from a new IP")
	assert.Equal(t, http.StatusOK, asUser("usr_b", "192.168.1.1:1"))
}

func TestRateLimitByUser_FallsBackToIP(t *testing.T) {
	cfg := middleware.RateLimitConfig{RequestLimit: 1, WindowLength: time.Minute}
	handler := middleware.RateLimitByUser(cfg)(okHandler())

	assert.Equal(t, http.StatusOK, doRequest(handler, "172.16.0.1:1", "/test").Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(handler, "172.16.0.1:1", "/test").Code)
	assert.Equal(t, http.StatusOK, doRequest(handler, "172.16.0.2:1", "/test").Code)
}

func TestRateLimitExceeded_Problem(t *testing.T) {
	cfg := middleware.RateLimitConfig{RequestLimit: 1, WindowLength: 15 * time.Minute}
	handler := middleware.RequestID(middleware.RateLimitByIP(cfg)(okHandler()))

	assert.Equal(t, http.StatusOK, doRequest(handler, "203.0.113.1:1", "/v1/calculations").Code)
	rec := doRequest(handler, "203.0.113.1:1", "/v1/calculations")

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "900", rec.Header().Get("Retry-After"))

	body := rec.Body.String()
	assert.Contains(t, body, "too-many-requests")
	assert.Contains(t, body, "Too many requests, please try again later.")
	assert.Contains(t, body, "/v1/calculations")
}

func TestDefaultRateLimitConfigs(t *testing.T) {
	tests := []struct {
		name   string
		cfg    middleware.RateLimitConfig
		limit  int
		window time.Duration
	}{
		{"auth", middleware.AuthRateLimit, 10, time.Minute},
		{"expensive", middleware.ExpensiveRateLimit, 30, time.Minute},
		{"calculation", middleware.CalculationRateLimit, 100, 15 * time.Minute},
		{"standard", middleware.StandardRateLimit, 100, time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.limit, tt.cfg.RequestLimit)
			assert.Equal(t, tt.window, tt.cfg.WindowLength)
		})
	}
}
