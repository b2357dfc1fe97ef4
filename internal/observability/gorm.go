package observability

import (
	"context"
	"errors"
	"time"

	servertiming "github.com/mitchellh/go-server-timing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const (
	gormSpanKey      = "catalog:gorm:span"
	gormStartTimeKey = "catalog:gorm:start"
	gormTimingKey    = "catalog:gorm:timing"
	gormCallbackName = "catalog:observability"
)

// RegisterGORMCallbacks instruments every GORM statement with a span (when
// EnableDBTracing is set), a duration metric, and a "db" Server-Timing
// metric on requests that carry server timing. It is a no-op when neither
// tracing nor server timing is enabled.
func RegisterGORMCallbacks(db *gorm.DB, cfg *Config) error {
	if cfg == nil || (!cfg.EnableDBTracing && !cfg.EnableServerTiming) {
		return nil
	}

	cb := db.Callback()

	if err := cb.Query().Before("gorm:query").Register(gormCallbackName+":before_query", before(cfg, "db.query")); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register(gormCallbackName+":after_query", after(cfg, "SELECT")); err != nil {
		return err
	}

	if err := cb.Create().Before("gorm:create").Register(gormCallbackName+":before_create", before(cfg, "db.create")); err != nil {
		return err
	}
	if err := cb.Create().After("gorm:create").Register(gormCallbackName+":after_create", after(cfg, "INSERT")); err != nil {
		return err
	}

	if err := cb.Update().Before("gorm:update").Register(gormCallbackName+":before_update", before(cfg, "db.update")); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register(gormCallbackName+":after_update", after(cfg, "UPDATE")); err != nil {
		return err
	}

	if err := cb.Delete().Before("gorm:delete").Register(gormCallbackName+":before_delete", before(cfg, "db.delete")); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Register(gormCallbackName+":after_delete", after(cfg, "DELETE")); err != nil {
		return err
	}

	if err := cb.Row().Before("gorm:row").Register(gormCallbackName+":before_row", before(cfg, "db.row")); err != nil {
		return err
	}
	if err := cb.Row().After("gorm:row").Register(gormCallbackName+":after_row", after(cfg, "ROW")); err != nil {
		return err
	}

	if err := cb.Raw().Before("gorm:raw").Register(gormCallbackName+":before_raw", before(cfg, "db.raw")); err != nil {
		return err
	}
	return cb.Raw().After("gorm:raw").Register(gormCallbackName+":after_raw", after(cfg, "RAW"))
}

func before(cfg *Config, spanName string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}

		if cfg.EnableServerTiming {
			if timing := servertiming.FromContext(ctx); timing != nil {
				db.InstanceSet(gormTimingKey, timing.NewMetric("db").WithDesc(spanName).Start())
			}
		}

		if cfg.EnableDBTracing {
			var span trace.Span
			ctx, span = cfg.Tracer().StartSpan(ctx, spanName, attribute.String("db.system", db.Dialector.Name()))
			db.Statement.Context = ctx
			db.InstanceSet(gormSpanKey, span)
		}

		db.InstanceSet(gormStartTimeKey, time.Now())
	}
}

func after(cfg *Config, operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		if v, ok := db.InstanceGet(gormTimingKey); ok {
			if m, ok := v.(*servertiming.Metric); ok {
				m.Stop()
			}
		}

		if v, ok := db.InstanceGet(gormStartTimeKey); ok {
			if start, ok := v.(time.Time); ok {
				cfg.Metrics().RecordDBQuery(db.Statement.Context, operation, time.Since(start))
			}
		}

		v, ok := db.InstanceGet(gormSpanKey)
		if !ok {
			return
		}
		span, ok := v.(trace.Span)
		if !ok {
			return
		}
		defer span.End()

		if db.Statement.Table != "" {
			span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
		}
		span.SetAttributes(attribute.Int64("db.rows_affected", db.RowsAffected))
		if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
			cfg.Tracer().RecordError(span, db.Error)
		}
	}
}
