// Package main is the entry point of the product catalog service. It loads
// the configuration, opens the product store and the optional cache, and
// serves the REST API until interrupted.
//
// Package main 是产品目录服务的入口。它加载配置，打开产品存储和可选缓存，
// 并提供REST API直到收到中断信号。
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/Humphrey-He/prodcat/configs"
	"github.com/Humphrey-He/prodcat/internal/auth"
	"github.com/Humphrey-He/prodcat/internal/observability"
	"github.com/Humphrey-He/prodcat/internal/server"
	"github.com/Humphrey-He/prodcat/internal/service"
	"github.com/Humphrey-He/prodcat/internal/storage"
	"github.com/Humphrey-He/prodcat/pkg/cache"
	"github.com/Humphrey-He/prodcat/pkg/codec"
	"github.com/Humphrey-He/prodcat/pkg/logger"
)

func main() {
	// Parse command line flags
	// 解析命令行参数
	configFile := flag.String("config", "", "Path to the configuration file (yaml or json)")
	addr := flag.String("addr", "", "HTTP listen address, overrides server.addr")
	driver := flag.String("driver", "", "Storage driver (memory, sqlite, postgres), overrides storage.driver")
	dsn := flag.String("dsn", "", "Storage DSN, overrides storage.dsn")
	flag.Parse()

	if err := run(*configFile, overrides{addr: *addr, driver: *driver, dsn: *dsn}); err != nil {
		fmt.Fprintf(os.Stderr, "catalog: %v\n", err)
		os.Exit(1)
	}
}

type overrides struct {
	addr, driver, dsn string
}

func (o overrides) apply(cfg *configs.Config) {
	if o.addr != "" {
		cfg.Server.Addr = o.addr
	}
	if o.driver != "" {
		cfg.Storage.Driver = o.driver
	}
	if o.dsn != "" {
		cfg.Storage.DSN = o.dsn
	}
}

func run(configFile string, o overrides) error {
	// A missing .env file is normal outside local development
	// 本地开发之外缺少.env文件是正常的
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}

	vc, err := configs.Load(configFile)
	if err != nil {
		return err
	}
	cfg := *vc.Get()
	o.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	closer, err := logger.Init(cfg.Log)
	if err != nil {
		return err
	}
	defer closer.Close()

	// Follow log level changes of the configuration file
	// 跟随配置文件中的日志级别变化
	vc.Subscribe(func(next *configs.Config) {
		if err := logger.SetLevel(next.Log.Level); err != nil {
			log.Warn().Err(err).Msg("ignoring log level change")
			return
		}
		log.Info().Str("level", next.Log.Level).Msg("log level changed")
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	obs := observability.NewConfig(cfg.Observability)

	store, err := storage.Open(ctx, cfg.Storage, storage.WithCallbacks(func(db *gorm.DB) error {
		return observability.RegisterGORMCallbacks(db, obs)
	}))
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()
	log.Info().Str("driver", cfg.Storage.Driver).Msg("product store ready")

	opts := service.Options{
		ItemTTL:       cfg.Cache.ItemTTL,
		ListTTL:       cfg.Cache.ListTTL,
		Observability: obs,
	}
	deps := server.Deps{Observability: obs}

	if cfg.Cache.Enable {
		c, err := cache.New(ctx, cfg.Cache)
		if err != nil {
			return fmt.Errorf("open cache: %w", err)
		}
		defer c.Close()

		cd, err := codec.GetCodec(cfg.Cache.Codec)
		if err != nil {
			return err
		}
		opts.Cache, opts.Codec = c, cd
		deps.Cache = c
		log.Info().Str("backend", cfg.Cache.Backend).Msg("product cache enabled")
	}

	if cfg.Auth.Enable {
		v, err := auth.NewValidator(cfg.Auth)
		if err != nil {
			return err
		}
		deps.Validator = v
		log.Info().Str("required_role", v.RequiredRole()).Msg("bearer authorization enabled")
	}

	deps.Service = service.NewProductService(store, opts)

	// Preload the catalog into the cache
	// 预加载目录到缓存中
	if err := deps.Service.WarmCache(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to warm cache")
	}

	return server.New(&cfg, deps).Run(ctx)
}
