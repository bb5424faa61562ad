package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, recorded := observer.New(zapcore.DebugLevel)
	return zap.New(core), recorded
}

func startSpan(t *testing.T) (context.Context, trace.Span) {
	t.Helper()
	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return tp.Tracer("test").Start(context.Background(), "apply")
}

func TestFromContext(t *testing.T) {
	base, _ := newObservedLogger()

	assert.Same(t, base, FromContext(WithContext(context.Background(), base)))
	assert.NotNil(t, FromContext(context.Background()))

	wrongType := context.WithValue(context.Background(), loggerKey, "not a logger")
	assert.NotNil(t, FromContext(wrongType))
}

func TestWithFields_TagsLoggerAndContext(t *testing.T) {
	base, recorded := newObservedLogger()

	ctx, tagged := WithFields(context.Background(), base, Fields{RequestID: "req-1", BatchID: "batch-1"})
	tagged.Info("importing")

	assert.Equal(t, Fields{RequestID: "req-1", BatchID: "batch-1"}, FieldsFrom(ctx))
	assert.Same(t, tagged, FromContext(ctx))

	entries := recorded.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "batch-1", fields["batch_id"])
	assert.NotContains(t, fields, "staged_order_id")
}

func TestWithFields_MergesOverExisting(t *testing.T) {
	base, _ := newObservedLogger()

	ctx, _ := WithFields(context.Background(), base, Fields{RequestID: "req-1", BatchID: "batch-1"})
	ctx, _ = WithFields(ctx, base, Fields{StagedOrderID: "order-1"})
	ctx, _ = WithFields(ctx, base, Fields{RequestID: "req-2"})

	assert.Equal(t, Fields{RequestID: "req-2", BatchID: "batch-1", StagedOrderID: "order-1"}, FieldsFrom(ctx))
}

func TestFieldsFrom_Empty(t *testing.T) {
	assert.Equal(t, Fields{}, FieldsFrom(context.Background()))
}

func TestFor_AddsTraceAndCorrelationFields(t *testing.T) {
	base, recorded := newObservedLogger()

	ctx, span := startSpan(t)
	defer span.End()
	ctx, _ = WithFields(ctx, zap.NewNop(), Fields{BatchID: "batch-1", StagedOrderID: "order-1"})

	For(ctx, base).Warn("staged order not applied")

	entries := recorded.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, span.SpanContext().TraceID().String(), fields["trace_id"])
	assert.Equal(t, span.SpanContext().SpanID().String(), fields["span_id"])
	assert.Equal(t, "batch-1", fields["batch_id"])
	assert.Equal(t, "order-1", fields["staged_order_id"])
}

func TestFor_WithoutSpanOrFields(t *testing.T) {
	base, recorded := newObservedLogger()

	assert.Same(t, base, For(context.Background(), base))
	For(context.Background(), nil).Info("dropped")
	assert.Empty(t, recorded.All())
}

func TestGetTraceAndSpanID(t *testing.T) {
	assert.Empty(t, GetTraceID(context.Background()))
	assert.Empty(t, GetSpanID(context.Background()))

	ctx, span := startSpan(t)
	defer span.End()
	assert.Len(t, GetTraceID(ctx), 32)
	assert.Len(t, GetSpanID(ctx), 16)

	// A span context without IDs is not valid
	invalid := trace.ContextWithSpanContext(context.Background(), trace.SpanContext{})
	assert.Empty(t, GetTraceID(invalid))
	assert.Empty(t, GetSpanID(invalid))
}
