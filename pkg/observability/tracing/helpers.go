package tracing

import (
	"context"

	"github.com/Sokol111/eventsink/pkg/core/logger"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// GetTraceIDAndSpanID extracts both trace ID and span ID from context.
func GetTraceIDAndSpanID(ctx context.Context) (string, string) {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return "", ""
	}
	return sc.TraceID().String(), sc.SpanID().String()
}

// WithTraceLogger returns a context whose logger carries the current trace and span ids.
// The context is returned unchanged when it has no valid span.
func WithTraceLogger(ctx context.Context) context.Context {
	traceID, spanID := GetTraceIDAndSpanID(ctx)
	if traceID == "" {
		return ctx
	}
	log := logger.Get(ctx).With(zap.String("trace_id", traceID), zap.String("span_id", spanID))
	return logger.With(ctx, log)
}
