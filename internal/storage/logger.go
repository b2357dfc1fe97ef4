package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// SlowQueryThreshold marks a statement as slow in the GORM log.
const SlowQueryThreshold = 200 * time.Millisecond

// GormLogger routes GORM's log output through zerolog. Statements are
// logged at debug level, slow statements at warn, failures at error.
// gorm.ErrRecordNotFound is not treated as a failure.
type GormLogger struct {
	logger zerolog.Logger
	level  gormlogger.LogLevel
}

// NewGormLogger creates a GORM logger writing to l.
func NewGormLogger(l zerolog.Logger) *GormLogger {
	return &GormLogger{
		logger: l.With().Str("component", "gorm").Logger(),
		level:  gormlogger.Warn,
	}
}

// LogMode returns a copy with the given level.
func (g *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cp := *g
	cp.level = level
	return &cp
}

func (g *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if g.level >= gormlogger.Info {
		g.logger.Info().Msg(fmt.Sprintf(msg, data...))
	}
}

func (g *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if g.level >= gormlogger.Warn {
		g.logger.Warn().Msg(fmt.Sprintf(msg, data...))
	}
}

func (g *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if g.level >= gormlogger.Error {
		g.logger.Error().Msg(fmt.Sprintf(msg, data...))
	}
}

// Trace logs one executed statement.
func (g *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && g.level >= gormlogger.Error:
		sql, rows := fc()
		g.logger.Error().Err(err).Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("query failed")
	case elapsed > SlowQueryThreshold && g.level >= gormlogger.Warn:
		sql, rows := fc()
		g.logger.Warn().Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("slow query")
	case g.level >= gormlogger.Info:
		sql, rows := fc()
		g.logger.Debug().Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("query")
	}
}
