package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/ecotrace/ecotrace/internal/api/middleware"
)

func TestSecurityHeaders(t *testing.T) {
	handler := middleware.SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/factors", http.NoBody))

	h := rec.Header()
	assert.Equal(t, "nosniff", h.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", h.Get("X-Frame-Options"))
	assert.Equal(t, "max-age=31536000; includeSubDomains", h.Get("Strict-Transport-Security"))
	assert.Equal(t, "default-src 'none'; frame-ancestors 'none'", h.Get("Content-Security-Policy"))
	assert.Equal(t, "strict-origin-when-cross-origin", h.Get("Referrer-Policy"))
	assert.Equal(t, "geolocation=(), camera=(), microphone=()", h.Get("Permissions-Policy"))
	assert.Equal(t, "no-store", h.Get("Cache-Control"))
}

func TestRequireTLS(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
		proto   string
		want    int
	}{
		{"disabled allows http", false, "http", http.StatusOK},
		{"enabled rejects http", true, "http", http.StatusForbidden},
		{"enabled allows https", true, "https", http.StatusOK},
		{"enabled allows direct connections", true, "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := middleware.RequireTLS(tt.enabled)(okHandler())

			req := httptest.NewRequest(http.MethodGet, "/v1/calculations", http.NoBody)
			if tt.proto != "" {
				req.Header.Set("X-Forwarded-Proto", tt.proto)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusForbidden {
				assert.Contains(t, rec.Body.String(), "tls-required")
				assert.Contains(t, rec.Body.String(), "This endpoint requires HTTPS")
			}
		})
	}
}

func TestRequireJSON(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		contentType string
		want        int
	}{
		{"json", http.MethodPost, "application/json", http.StatusOK},
		{"json with charset", http.MethodPost, "application/json; charset=utf-8", http.StatusOK},
		{"missing", http.MethodPost, "", http.StatusOK},
		{"form", http.MethodPost, "application/x-www-form-urlencoded", http.StatusUnsupportedMediaType},
		{"lookalike", http.MethodPut, "application/jsonp", http.StatusUnsupportedMediaType},
		{"get ignored", http.MethodGet, "text/plain", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := middleware.RequireJSON(okHandler())

			req := httptest.NewRequest(tt.method, "/v1/calculations", http.NoBody)
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusUnsupportedMediaType {
				assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
			}
		})
	}
}

func TestRecovery(t *testing.T) {
	handler := middleware.RequestID(middleware.Recovery(zerolog.Nop())(
		http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("boom")
		}),
	))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/dashboard", http.NoBody))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal-error")
	assert.Contains(t, rec.Body.String(), "/v1/dashboard")
}

func TestRecovery_AbortHandlerRepanics(t *testing.T) {
	handler := middleware.Recovery(zerolog.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	})
}
