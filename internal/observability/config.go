// Package observability provides OpenTelemetry-based instrumentation for the
// catalog service: spans and metrics per catalog operation, GORM callbacks
// for database statements, and Server-Timing response metrics.
//
// Everything falls back to the global otel providers, which are no-ops
// until an SDK is installed by the host process.
package observability

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/Humphrey-He/prodcat/configs"
)

// Instrumentation identity constants
const (
	TracerName = "github.com/Humphrey-He/prodcat"
	MeterName  = "github.com/Humphrey-He/prodcat"
)

// Config holds the observability configuration of the catalog service.
type Config struct {
	// TracerProvider is the OpenTelemetry tracer provider.
	// If nil, the global provider is used.
	TracerProvider trace.TracerProvider

	// MeterProvider is the OpenTelemetry meter provider.
	// If nil, the global provider is used.
	MeterProvider metric.MeterProvider

	// ServiceName is used to identify this service in traces.
	ServiceName string

	// EnableDBTracing creates a span for every GORM statement.
	EnableDBTracing bool

	// EnableServerTiming adds the Server-Timing header to responses.
	EnableServerTiming bool

	tracer  *Tracer
	metrics *Metrics
}

// Option is a functional option for configuring observability.
type Option func(*Config)

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Config) {
		c.TracerProvider = tp
	}
}

// WithMeterProvider sets the meter provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *Config) {
		c.MeterProvider = mp
	}
}

// NewConfig builds a Config from the service configuration and options and
// creates its tracer and metrics.
func NewConfig(cfg configs.ObservabilityConfig, opts ...Option) *Config {
	c := &Config{
		ServiceName:        cfg.ServiceName,
		EnableDBTracing:    cfg.DBTracing,
		EnableServerTiming: cfg.ServerTiming,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.TracerProvider == nil {
		c.TracerProvider = otel.GetTracerProvider()
	}
	if c.MeterProvider == nil {
		c.MeterProvider = otel.GetMeterProvider()
	}

	c.tracer = NewTracer(c.TracerProvider, c.ServiceName)
	c.metrics = NewMetrics(c.MeterProvider)
	return c
}

// Tracer returns the configured tracer, or a no-op tracer if not configured.
func (c *Config) Tracer() *Tracer {
	if c == nil || c.tracer == nil {
		return NewNoopTracer()
	}
	return c.tracer
}

// Metrics returns the configured metrics, or no-op metrics if not configured.
func (c *Config) Metrics() *Metrics {
	if c == nil || c.metrics == nil {
		return NewNoopMetrics()
	}
	return c.metrics
}
