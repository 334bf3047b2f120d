package apm

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Tracer wraps an otel tracer behind the package's Span type so callers
// never touch the otel span API directly.
type Tracer interface {
	StartSpanFromContext(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, Span)
	SpanFromContext(ctx context.Context) Span
	GetTracer() trace.Tracer
}

type openTracer struct {
	tracer trace.Tracer
}

// NewTracer returns a Tracer backed by the globally registered provider.
func NewTracer(name string) Tracer {
	return &openTracer{
		otel.Tracer(name),
	}
}

func (t *openTracer) StartSpanFromContext(
	ctx context.Context, name string, opts ...trace.SpanStartOption,
) (context.Context, Span) {
	ctx, span := t.tracer.Start(ctx, name, opts...)
	return ctx, NewSpan(span)
}

// SpanFromContext returns the span already carried by ctx, or a no-op span.
func (t *openTracer) SpanFromContext(ctx context.Context) Span {
	return NewSpan(trace.SpanFromContext(ctx))
}

func (t *openTracer) GetTracer() trace.Tracer {
	return t.tracer
}
