package cache

import (
	"context"
	"fmt"

	"github.com/Humphrey-He/prodcat/configs"
)

// New creates the cache backend named by cfg.Backend. It does not look at
// cfg.Enable; callers decide whether a cache is wanted at all.
//
// New 根据cfg.Backend创建缓存后端。它不检查cfg.Enable，由调用方决定是否需要缓存。
//
// Parameters:
//   - ctx: Context for establishing remote connections
//   - cfg: Cache configuration
//
// Returns:
//   - ICache: The created cache instance
//   - error: An error if the backend is unknown or unreachable
func New(ctx context.Context, cfg configs.CacheConfig) (ICache, error) {
	switch cfg.Backend {
	case "", "memory":
		c := NewMemoryCache(cfg.MaxEntries, cfg.ItemTTL)
		c.StartCleaner(cfg.CleanupInterval)
		return c, nil
	case "redis":
		return NewRedisCache(ctx, cfg.Redis, cfg.ItemTTL)
	default:
		return nil, fmt.Errorf("unsupported cache backend: %s", cfg.Backend)
	}
}
