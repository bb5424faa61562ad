package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// setupTestTracer sets up a test tracer provider and returns the span recorder.
func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	t.Cleanup(func() {
		_ = tp.Shutdown(t.Context())
	})

	return sr
}

func spanAttr(span sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func newTracedRouter() *gin.Engine {
	return newTestRouter(
		RequestID(),
		TracingWithConfig(TracingConfig{ServiceName: "test-service", Enabled: true}),
		TracingAttributeInjector(),
		SpanErrorMarker(),
	)
}

func TestTracingWithConfig_Disabled(t *testing.T) {
	sr := setupTestTracer(t)

	router := newTestRouter(TracingWithConfig(TracingConfig{Enabled: false}))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, sr.Ended())
}

func TestTracing_BatchRouteCarriesBatchID(t *testing.T) {
	sr := setupTestTracer(t)
	router := newTracedRouter()
	router.POST("/api/v1/marketplace/batches/:id/apply", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	batchID := uuid.New().String()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/marketplace/batches/"+batchID+"/apply", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "/api/v1/marketplace/batches/:id/apply", spans[0].Name())

	v, ok := spanAttr(spans[0], "batch_id")
	require.True(t, ok)
	assert.Equal(t, batchID, v.AsString())

	v, ok = spanAttr(spans[0], "request_id")
	require.True(t, ok)
	assert.Equal(t, "req-42", v.AsString())

	_, ok = spanAttr(spans[0], "staged_order_id")
	assert.False(t, ok)
}

func TestTracing_StagedOrderRouteCarriesStagedOrderID(t *testing.T) {
	sr := setupTestTracer(t)
	router := newTracedRouter()
	router.GET("/api/v1/marketplace/staged-orders/:id", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	id := uuid.New().String()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/marketplace/staged-orders/"+id, nil))

	spans := sr.Ended()
	require.Len(t, spans, 1)
	v, ok := spanAttr(spans[0], "staged_order_id")
	require.True(t, ok)
	assert.Equal(t, id, v.AsString())
}

func TestTracing_MalformedIDIsNotRecorded(t *testing.T) {
	sr := setupTestTracer(t)
	router := newTracedRouter()
	router.GET("/api/v1/marketplace/batches/:id", func(c *gin.Context) {
		c.Status(http.StatusBadRequest)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/marketplace/batches/not-a-uuid", nil))

	spans := sr.Ended()
	require.Len(t, spans, 1)
	_, ok := spanAttr(spans[0], "batch_id")
	assert.False(t, ok)
}

func TestTracing_HealthIsNotTraced(t *testing.T) {
	sr := setupTestTracer(t)
	router := newTracedRouter()
	router.GET("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, sr.Ended())
}

func TestSpanErrorMarker(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		wantCode   codes.Code
		wantStatus bool
	}{
		{name: "success leaves span untouched", status: http.StatusOK, wantCode: codes.Unset},
		{name: "client error records status only", status: http.StatusConflict, wantCode: codes.Unset, wantStatus: true},
		{name: "server error marks span failed", status: http.StatusInternalServerError, wantCode: codes.Error, wantStatus: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sr := setupTestTracer(t)
			router := newTracedRouter()
			router.GET("/test", func(c *gin.Context) {
				c.Status(tt.status)
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

			spans := sr.Ended()
			require.Len(t, spans, 1)
			assert.Equal(t, tt.wantCode, spans[0].Status().Code)

			v, ok := spanAttr(spans[0], "http.status_code")
			assert.Equal(t, tt.wantStatus, ok)
			if tt.wantStatus {
				assert.Equal(t, int64(tt.status), v.AsInt64())
			}
		})
	}
}
