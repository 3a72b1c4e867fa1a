package middleware_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/ecotrace/ecotrace/internal/api/middleware"
)

func installTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return sr
}

// calculationsRouter mounts handler under a parameterized chi route.
func calculationsRouter(mw func(http.Handler) http.Handler, status int) http.Handler {
	r := chi.NewRouter()
	r.Use(mw)
	r.Get("/v1/calculations/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{}`))
	})
	return r
}

func spanAttr(attrs []attribute.KeyValue, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range attrs {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTracing_NamesSpanAfterRoute(t *testing.T) {
	sr := installTracer(t)
	handler := calculationsRouter(middleware.Tracing("ecotrace-api"), http.StatusNotFound)

	req := httptest.NewRequest(http.MethodGet, "/v1/calculations/calc_123", http.NoBody)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /v1/calculations/{id}", spans[0].Name())

	route, ok := spanAttr(spans[0].Attributes(), "http.route")
	require.True(t, ok)
	assert.Equal(t, "/v1/calculations/{id}", route.AsString())

	status, ok := spanAttr(spans[0].Attributes(), "http.response.status_code")
	require.True(t, ok)
	assert.Equal(t, int64(404), status.AsInt64())
	assert.NotEqual(t, codes.Error, spans[0].Status().Code)
}

func TestTracing_PropagatesContext(t *testing.T) {
	sr := installTracer(t)
	handler := middleware.Tracing("ecotrace-api")(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	req.Header.Set("traceparent", "00-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-01")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "0af7651916cd43dd8448eb211c80319c", spans[0].SpanContext().TraceID().String())
	assert.Equal(t, "GET /test", spans[0].Name())
}

func TestTracing_ServerErrorAndRequestID(t *testing.T) {
	sr := installTracer(t)
	handler := middleware.RequestID(middleware.Tracing("ecotrace-api")(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}),
	))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/test", http.NoBody))

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "Internal Server Error", spans[0].Status().Description)

	id, ok := spanAttr(spans[0].Attributes(), "request.id")
	require.True(t, ok)
	assert.Contains(t, id.AsString(), "req_")
}

func TestMetrics_RecordsRoutePattern(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(mp)
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	metrics, err := middleware.NewMetrics()
	require.NoError(t, err)
	handler := calculationsRouter(metrics.Middleware(), http.StatusOK)

	for _, id := range []string{"calc_1", "calc_2"} {
		req := httptest.NewRequest(http.MethodGet, "/v1/calculations/"+id, http.NoBody)
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var total *metricdata.Sum[int64]
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == "http.server.request.total" {
				sum, ok := m.Data.(metricdata.Sum[int64])
				require.True(t, ok)
				total = &sum
			}
		}
	}
	require.NotNil(t, total, "request counter not exported")
	require.Len(t, total.DataPoints, 1, "both ids share one route series")

	dp := total.DataPoints[0]
	assert.Equal(t, int64(2), dp.Value)
	route, ok := dp.Attributes.Value("http.route")
	require.True(t, ok)
	assert.Equal(t, "/v1/calculations/{id}", route.AsString())
}

func TestMetrics_DefaultStatus(t *testing.T) {
	metrics, err := middleware.NewMetrics()
	require.NoError(t, err)

	handler := metrics.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("response"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", http.NoBody))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "response", rec.Body.String())
}

func decodeLogLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	inner := middleware.Logger(zerolog.New(&buf))(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte("created"))
		}),
	)
	handler := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner.ServeHTTP(w, r.WithContext(middleware.WithUserID(r.Context(), "usr_1")))
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/calculations", http.NoBody)
	req.Header.Set("User-Agent", "ecotrace-test")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	entry := decodeLogLine(t, &buf)
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "request completed", entry["message"])
	assert.Equal(t, "POST", entry["method"])
	assert.Equal(t, "/v1/calculations", entry["path"])
	assert.Equal(t, float64(201), entry["status"])
	assert.Equal(t, float64(7), entry["bytes"])
	assert.Equal(t, "usr_1", entry["user_id"])
	assert.Equal(t, "ecotrace-test", entry["user_agent"])
	assert.Contains(t, entry["request_id"], "req_")
	assert.NotContains(t, entry, "trace_id")
}

func TestLogger_LevelByStatus(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "info"},
		{http.StatusNotFound, "warn"},
		{http.StatusServiceUnavailable, "error"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var buf bytes.Buffer
			handler := middleware.Logger(zerolog.New(&buf))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/test", http.NoBody))

			assert.Equal(t, tt.level, decodeLogLine(t, &buf)["level"])
		})
	}
}

func TestLogger_IncludesTraceID(t *testing.T) {
	installTracer(t)

	var buf bytes.Buffer
	handler := middleware.Tracing("ecotrace-api")(middleware.Logger(zerolog.New(&buf))(okHandler()))

	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	entry := decodeLogLine(t, &buf)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", entry["trace_id"])
	assert.NotEmpty(t, entry["span_id"])
}
