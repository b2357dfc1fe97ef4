package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Humphrey-He/prodcat/configs"
	"github.com/Humphrey-He/prodcat/internal/model"
)

func newTestConfig(serverTiming, dbTracing bool) *Config {
	return NewConfig(
		configs.ObservabilityConfig{ServiceName: "prodcat-test", ServerTiming: serverTiming, DBTracing: dbTracing},
		WithTracerProvider(tracenoop.NewTracerProvider()),
		WithMeterProvider(noop.NewMeterProvider()),
	)
}

func TestNilConfigFallsBackToNoop(t *testing.T) {
	var cfg *Config
	assert.NotNil(t, cfg.Tracer())
	assert.NotNil(t, cfg.Metrics())

	ctx, span := cfg.Tracer().StartOperation(context.Background(), OpGet, 1)
	cfg.Tracer().RecordError(span, errors.New("boom"))
	cfg.Tracer().RecordError(span, nil)
	span.End()

	cfg.Metrics().RecordOperation(ctx, OpGet, time.Millisecond, nil)
	cfg.Metrics().RecordOperation(ctx, OpGet, time.Millisecond, errors.New("boom"))
	cfg.Metrics().RecordCacheLookup(ctx, OpGet, true)
	cfg.Metrics().RecordResultCount(ctx, OpList, 3)
	cfg.Metrics().RecordDBQuery(ctx, "SELECT", time.Millisecond)
}

func TestNewConfigUsesGlobalProviders(t *testing.T) {
	cfg := NewConfig(configs.DefaultConfig().Observability)
	assert.NotNil(t, cfg.TracerProvider)
	assert.NotNil(t, cfg.MeterProvider)
	assert.Equal(t, "prodcat", cfg.ServiceName)
	assert.True(t, cfg.EnableServerTiming)
}

func TestServerTimingHandlerDisabled(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	h := ServerTimingHandler(newTestConfig(false, false), next)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Empty(t, rec.Header().Get("Server-Timing"))
}

func TestGORMCallbacksAddServerTiming(t *testing.T) {
	cfg := newTestConfig(true, true)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, RegisterGORMCallbacks(db, cfg))
	require.NoError(t, db.AutoMigrate(&model.Product{}))

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := StartServerTiming(r.Context(), "handler", "catalog")
		var products []model.Product
		err := db.WithContext(r.Context()).Find(&products).Error
		m.Stop()
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	ServerTimingHandler(cfg, next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	header := rec.Header().Get("Server-Timing")
	assert.Contains(t, header, "db")
	assert.Contains(t, header, "handler")
}

func TestRegisterGORMCallbacksNoop(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	assert.NoError(t, RegisterGORMCallbacks(db, nil))
	assert.NoError(t, RegisterGORMCallbacks(db, newTestConfig(false, false)))
}

func TestStartServerTimingWithoutHeader(t *testing.T) {
	m := StartServerTiming(context.Background(), "x", "")
	m.Stop()
	var nilMetric *ServerTimingMetric
	nilMetric.Stop()
}
