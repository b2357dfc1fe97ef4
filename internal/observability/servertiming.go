package observability

import (
	"context"
	"net/http"

	servertiming "github.com/mitchellh/go-server-timing"
)

// ServerTimingMetric wraps the server-timing library's Metric type.
type ServerTimingMetric struct {
	metric *servertiming.Metric
}

// Stop stops the timing metric.
func (m *ServerTimingMetric) Stop() {
	if m != nil && m.metric != nil {
		m.metric.Stop()
	}
}

// StartServerTiming starts a server-timing metric with the given name and
// description. Without timing in ctx it returns a no-op metric.
func StartServerTiming(ctx context.Context, name, description string) *ServerTimingMetric {
	timing := servertiming.FromContext(ctx)
	if timing == nil {
		return &ServerTimingMetric{}
	}
	m := timing.NewMetric(name)
	if description != "" {
		m = m.WithDesc(description)
	}
	return &ServerTimingMetric{metric: m.Start()}
}

// ServerTimingHandler wraps next so that handlers can add Server-Timing
// metrics through the request context. It returns next unchanged when
// server timing is disabled.
func ServerTimingHandler(cfg *Config, next http.Handler) http.Handler {
	if cfg == nil || !cfg.EnableServerTiming {
		return next
	}
	return servertiming.Middleware(next, nil)
}
