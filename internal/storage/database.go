package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Humphrey-He/prodcat/configs"
	"github.com/Humphrey-He/prodcat/internal/model"
)

// DefaultSQLiteDSN is used when the sqlite driver is selected without a DSN.
const DefaultSQLiteDSN = ":memory:"

// openOptions collects the optional settings of Open.
type openOptions struct {
	plugins []func(*gorm.DB) error
	logger  gormlogger.Interface
}

// Option configures Open.
type Option func(*openOptions)

// WithCallbacks registers fn on the database handle before migration, e.g.
// tracing callbacks. It is ignored by the memory driver.
func WithCallbacks(fn func(*gorm.DB) error) Option {
	return func(o *openOptions) {
		o.plugins = append(o.plugins, fn)
	}
}

// WithGormLogger replaces the zerolog-backed GORM logger.
func WithGormLogger(l gormlogger.Interface) Option {
	return func(o *openOptions) {
		o.logger = l
	}
}

// Open creates the store selected by cfg.Driver. Database drivers get the
// configured pool, the auto-migrated schema and, when cfg.Seed is set, the
// seed catalog if the table is empty.
//
// Open 根据cfg.Driver创建存储。数据库驱动会配置连接池、自动迁移模式，
// 并在cfg.Seed开启且表为空时写入种子数据。
//
// Parameters:
//   - ctx: Context for migration and seeding
//   - cfg: Storage configuration
//   - opts: Optional settings
//
// Returns:
//   - ProductStore: The opened store
//   - error: An error if the driver is unknown or the database is unusable
func Open(ctx context.Context, cfg configs.StorageConfig, opts ...Option) (ProductStore, error) {
	o := &openOptions{logger: NewGormLogger(log.Logger)}
	for _, opt := range opts {
		opt(o)
	}

	var (
		store ProductStore
		err   error
	)
	switch cfg.Driver {
	case "", "memory":
		store = NewMemoryStore()
	case "sqlite", "postgres":
		store, err = openGorm(ctx, cfg, o)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Seed {
		if err := Seed(ctx, store); err != nil {
			_ = store.Close()
			return nil, err
		}
	}

	log.Info().Str("driver", cfg.Driver).Bool("seed", cfg.Seed).Msg("product store opened")
	return store, nil
}

func openGorm(ctx context.Context, cfg configs.StorageConfig, o *openOptions) (*GormStore, error) {
	var dialector gorm.Dialector
	dsn := cfg.DSN
	switch cfg.Driver {
	case "sqlite":
		if dsn == "" {
			dsn = DefaultSQLiteDSN
		}
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: o.logger, TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("access connection pool: %w", err)
	}

	// Every connection to :memory: is a separate database, so exactly one
	// connection is kept for the life of the process.
	if cfg.Driver == "sqlite" && isMemoryDSN(dsn) {
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	fail := func(err error) (*GormStore, error) {
		_ = sqlDB.Close()
		return nil, err
	}

	if cfg.Driver == "sqlite" {
		if err := db.WithContext(ctx).Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return fail(fmt.Errorf("enable foreign keys: %w", err))
		}
	}

	for _, plugin := range o.plugins {
		if err := plugin(db); err != nil {
			return fail(fmt.Errorf("register callbacks: %w", err))
		}
	}

	if cfg.AutoMigrate {
		if err := db.WithContext(ctx).AutoMigrate(model.Schema()...); err != nil {
			return fail(fmt.Errorf("migrate schema: %w", err))
		}
	}

	return NewGormStore(db), nil
}

func isMemoryDSN(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}
