package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of service spans
const TracerName = "github.com/erp/resale"

// Span attribute keys for marketplace operations. The HTTP layer tags
// server spans with the same batch and staged order keys.
const (
	AttrBatchID         = attribute.Key("batch_id")
	AttrStagedOrderID   = attribute.Key("staged_order_id")
	AttrExternalOrderID = attribute.Key("external_order_id")
	AttrSourceLabel     = attribute.Key("source_label")
	AttrRowCount        = attribute.Key("row_count")
	AttrFailedCount     = attribute.Key("failed_count")
	AttrOrderCount      = attribute.Key("order_count")
	AttrAppliedCount    = attribute.Key("applied_count")
	AttrSkippedCount    = attribute.Key("skipped_count")
	AttrErrorCode       = attribute.Key("error_code")
)

// StartServiceSpan starts an internal span named {service}.{method} on the
// global tracer provider. The caller ends the span.
//
//	ctx, span := telemetry.StartServiceSpan(ctx, "marketplace_apply", "apply",
//	    telemetry.AttrBatchID.String(batchID.String()))
//	defer span.End()
func StartServiceSpan(ctx context.Context, service, method string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	opts := []trace.SpanStartOption{trace.WithSpanKind(trace.SpanKindInternal)}
	if len(attrs) > 0 {
		opts = append(opts, trace.WithAttributes(attrs...))
	}
	return otel.GetTracerProvider().Tracer(TracerName).Start(ctx, service+"."+method, opts...)
}

// RecordError records err on span and marks it failed. A nil err is ignored.
func RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetOK marks span successful.
func SetOK(span trace.Span) {
	if span == nil {
		return
	}
	span.SetStatus(codes.Ok, "")
}

// AddEvent adds a timestamped event to span.
func AddEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	if span == nil {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
