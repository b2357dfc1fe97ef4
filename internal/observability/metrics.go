package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Metrics holds the catalog metric instruments.
type Metrics struct {
	operationDuration metric.Float64Histogram
	operationCount    metric.Int64Counter
	resultCount       metric.Int64Histogram
	cacheLookups      metric.Int64Counter
	dbQueryDuration   metric.Float64Histogram
	errorCount        metric.Int64Counter
}

// NewMetrics creates a new Metrics instance with the given MeterProvider.
// An instrument that cannot be created with its options is created bare.
func NewMetrics(mp metric.MeterProvider) *Metrics {
	meter := mp.Meter(MeterName)
	m := &Metrics{}
	var err error

	m.operationDuration, err = meter.Float64Histogram(
		"catalog.operation.duration",
		metric.WithDescription("Duration of catalog operations in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		m.operationDuration, _ = meter.Float64Histogram("catalog.operation.duration")
	}

	m.operationCount, err = meter.Int64Counter(
		"catalog.operation.count",
		metric.WithDescription("Total number of catalog operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		m.operationCount, _ = meter.Int64Counter("catalog.operation.count")
	}

	m.resultCount, err = meter.Int64Histogram(
		"catalog.result.count",
		metric.WithDescription("Number of products returned by list and filter"),
		metric.WithUnit("{product}"),
	)
	if err != nil {
		m.resultCount, _ = meter.Int64Histogram("catalog.result.count")
	}

	m.cacheLookups, err = meter.Int64Counter(
		"catalog.cache.lookups",
		metric.WithDescription("Cache lookups by outcome"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		m.cacheLookups, _ = meter.Int64Counter("catalog.cache.lookups")
	}

	m.dbQueryDuration, err = meter.Float64Histogram(
		"catalog.db.query.duration",
		metric.WithDescription("Duration of database statements in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		m.dbQueryDuration, _ = meter.Float64Histogram("catalog.db.query.duration")
	}

	m.errorCount, err = meter.Int64Counter(
		"catalog.error.count",
		metric.WithDescription("Total number of failed catalog operations"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		m.errorCount, _ = meter.Int64Counter("catalog.error.count")
	}

	return m
}

// NewNoopMetrics creates metrics that do nothing.
func NewNoopMetrics() *Metrics {
	return NewMetrics(noop.NewMeterProvider())
}

// RecordOperation records one completed catalog operation.
func (m *Metrics) RecordOperation(ctx context.Context, op string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(
		attribute.String(AttrOperation, op),
		attribute.Bool("error", err != nil),
	)
	m.operationDuration.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	m.operationCount.Add(ctx, 1, attrs)
	if err != nil {
		m.errorCount.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrOperation, op)))
	}
}

// RecordResultCount records the size of a list or filter result.
func (m *Metrics) RecordResultCount(ctx context.Context, op string, count int) {
	m.resultCount.Record(ctx, int64(count), metric.WithAttributes(attribute.String(AttrOperation, op)))
}

// RecordCacheLookup counts one cache lookup.
func (m *Metrics) RecordCacheLookup(ctx context.Context, op string, hit bool) {
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrOperation, op),
		attribute.Bool(AttrCacheHit, hit),
	))
}

// RecordDBQuery records metrics for a database statement.
func (m *Metrics) RecordDBQuery(ctx context.Context, operation string, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String("db.operation", operation))
	m.dbQueryDuration.Record(ctx, float64(duration.Microseconds())/1000, attrs)
}
