// Package server assembles the catalog routes and runs them under an
// http.Server with graceful shutdown.
//
// Package server 组装目录路由，并在支持优雅关闭的http.Server下运行。
package server

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Humphrey-He/prodcat/configs"
	"github.com/Humphrey-He/prodcat/internal/auth"
	"github.com/Humphrey-He/prodcat/internal/docs"
	"github.com/Humphrey-He/prodcat/internal/handler"
	"github.com/Humphrey-He/prodcat/internal/middleware"
	"github.com/Humphrey-He/prodcat/internal/observability"
	"github.com/Humphrey-He/prodcat/internal/service"
	"github.com/Humphrey-He/prodcat/pkg/cache"
)

// Deps are the collaborators the routes delegate to.
type Deps struct {
	Service *service.ProductService
	// Cache, when set, adds the X-Cache-* headers to every response.
	Cache cache.ICache
	// Validator, when set, guards the product routes.
	Validator     *auth.Validator
	Observability *observability.Config
}

// Server owns the router and the listener lifecycle.
type Server struct {
	cfg     configs.ServerConfig
	engine  *gin.Engine
	handler http.Handler
}

// New builds the router for cfg.
//
// New 根据cfg构建路由。
//
// Parameters:
//   - cfg: The complete service configuration
//   - deps: Service, cache, validator and instrumentation
//
// Returns:
//   - *Server: A server ready to Run
func New(cfg *configs.Config, deps Deps) *Server {
	gin.SetMode(cfg.Server.Mode)

	engine := gin.New()
	engine.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger())
	if deps.Cache != nil {
		engine.Use(middleware.CacheMetrics(deps.Cache))
	}

	products := handler.NewProductHandler(deps.Service)

	// Register product API handlers
	// 注册产品API处理程序
	api := engine.Group(cfg.Server.BasePath)
	if deps.Validator != nil {
		api.Use(middleware.Authorize(deps.Validator))
	}
	products.Register(api)

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	// Add cache stats endpoint for monitoring
	// 添加缓存统计端点用于监控
	engine.GET("/cache/stats", products.CacheStats)

	if cfg.Docs.Enable {
		doc := docs.Build(docs.Options{
			BasePath: cfg.Server.BasePath,
			Secured:  deps.Validator != nil,
		})
		engine.GET(cfg.Docs.Path, docs.Handler(doc))
	}

	return &Server{
		cfg:     cfg.Server,
		engine:  engine,
		handler: observability.ServerTimingHandler(deps.Observability, engine),
	}
}

// Handler returns the root handler, including the Server-Timing wrapper.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run listens on the configured address until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// and waits up to the shutdown timeout for in-flight requests.
//
// Serve 在ln上接受连接直到ctx被取消，然后关闭服务器并在关闭超时内等待进行中的请求。
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", ln.Addr().String()).Msg("catalog server listening")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down catalog server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
