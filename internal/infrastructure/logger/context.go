package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ctxKey int

const (
	loggerKey ctxKey = iota
	fieldsKey
)

// Fields correlates the log entries of one request or apply run. Empty
// values are omitted from log entries.
type Fields struct {
	RequestID     string
	BatchID       string
	StagedOrderID string
}

func (f Fields) merge(other Fields) Fields {
	if other.RequestID != "" {
		f.RequestID = other.RequestID
	}
	if other.BatchID != "" {
		f.BatchID = other.BatchID
	}
	if other.StagedOrderID != "" {
		f.StagedOrderID = other.StagedOrderID
	}
	return f
}

func (f Fields) zapFields() []zap.Field {
	fields := make([]zap.Field, 0, 3)
	if f.RequestID != "" {
		fields = append(fields, zap.String("request_id", f.RequestID))
	}
	if f.BatchID != "" {
		fields = append(fields, zap.String("batch_id", f.BatchID))
	}
	if f.StagedOrderID != "" {
		fields = append(fields, zap.String("staged_order_id", f.StagedOrderID))
	}
	return fields
}

// WithContext attaches logger to ctx
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger attached to ctx, or a no-op logger
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(loggerKey).(*zap.Logger); ok && logger != nil {
		return logger
	}
	return zap.NewNop()
}

// WithFields records f on ctx, merged over any fields already there, and
// returns the context together with logger tagged with the non-empty values
// of f. The returned logger is also attached to the returned context.
func WithFields(ctx context.Context, logger *zap.Logger, f Fields) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, fieldsKey, FieldsFrom(ctx).merge(f))
	tagged := logger.With(f.zapFields()...)
	return WithContext(ctx, tagged), tagged
}

// FieldsFrom returns the correlation fields recorded on ctx
func FieldsFrom(ctx context.Context) Fields {
	f, _ := ctx.Value(fieldsKey).(Fields)
	return f
}

// For tags base with the trace and span IDs of the active span and the
// correlation fields of ctx. Services hold their own logger and call
// For at the log site:
//
//	logger.For(ctx, s.logger).Warn("staged order not applied", ...)
func For(ctx context.Context, base *zap.Logger) *zap.Logger {
	if base == nil {
		base = zap.NewNop()
	}
	fields := traceFields(ctx)
	fields = append(fields, FieldsFrom(ctx).zapFields()...)
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}

// GetTraceID returns the trace ID of the active span, or ""
func GetTraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}

// GetSpanID returns the span ID of the active span, or ""
func GetSpanID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return ""
	}
	return sc.SpanID().String()
}

func traceFields(ctx context.Context) []zap.Field {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return nil
	}
	return []zap.Field{
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	}
}
