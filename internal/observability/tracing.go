package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Catalog semantic attribute keys.
const (
	AttrProductID   = "catalog.product_id"
	AttrOperation   = "catalog.operation"
	AttrCacheHit    = "catalog.cache_hit"
	AttrResultCount = "catalog.result_count"
)

// Catalog operation names used for spans and metric attributes.
const (
	OpList   = "list"
	OpFilter = "filter"
	OpGet    = "get"
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Tracer wraps an OpenTelemetry tracer with catalog span helpers.
type Tracer struct {
	tracer      trace.Tracer
	serviceName string
}

// NewTracer creates a new Tracer using the given TracerProvider.
func NewTracer(tp trace.TracerProvider, serviceName string) *Tracer {
	return &Tracer{
		tracer:      tp.Tracer(TracerName),
		serviceName: serviceName,
	}
}

// NewNoopTracer creates a tracer that does nothing.
func NewNoopTracer() *Tracer {
	return &Tracer{tracer: tracenoop.NewTracerProvider().Tracer("")}
}

// StartSpan starts a new span with the given name and attributes.
func (t *Tracer) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// StartOperation starts a "catalog.<op>" span. id is recorded when positive.
func (t *Tracer) StartOperation(ctx context.Context, op string, id int) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{attribute.String(AttrOperation, op)}
	if id > 0 {
		attrs = append(attrs, attribute.Int(AttrProductID, id))
	}
	return t.tracer.Start(ctx, "catalog."+op, trace.WithAttributes(attrs...))
}

// RecordError records err on span and marks it failed. Nil is ignored.
func (t *Tracer) RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
