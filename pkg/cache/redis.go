package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Humphrey-He/prodcat/configs"
	catalogerrors "github.com/Humphrey-He/prodcat/pkg/errors"
)

// scanBatch is the COUNT hint passed to SCAN.
const scanBatch = 256

// RedisCache implements ICache on a Redis server. Every key is namespaced
// with a prefix so several services can share one database.
//
// RedisCache 基于Redis实现ICache。所有键都带有前缀，以便多个服务共享同一个数据库。
type RedisCache struct {
	client     *redis.Client
	prefix     string
	defaultTTL time.Duration
	hits       atomic.Int64
	misses     atomic.Int64
	closed     atomic.Bool
}

// NewRedisCache connects to the server named by cfg.URL and pings it.
//
// NewRedisCache 连接cfg.URL指定的Redis服务器并执行Ping。
//
// Parameters:
//   - ctx: Context bounding the initial ping
//   - cfg: Redis connection settings
//   - defaultTTL: TTL used when Set is called with ttl 0
//
// Returns:
//   - *RedisCache: A connected cache
//   - error: An error if the URL is invalid or the server is unreachable
func NewRedisCache(ctx context.Context, cfg configs.RedisConfig, defaultTTL time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout
	opts.DialTimeout = cfg.DialTimeout

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewRedisCacheFromClient(client, cfg.KeyPrefix, defaultTTL), nil
}

// NewRedisCacheFromClient wraps an existing client.
func NewRedisCacheFromClient(client *redis.Client, prefix string, defaultTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:     client,
		prefix:     prefix,
		defaultTTL: defaultTTL,
	}
}

// Get retrieves a value from Redis. redis.Nil is reported as a miss.
//
// Get 从Redis中检索值。redis.Nil视为未命中。
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := c.check(key); err != nil {
		return nil, false, err
	}

	value, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.misses.Add(1)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	c.hits.Add(1)
	return value, true, nil
}

// Set stores value under key.
//
// Set 将值存储到Redis中。
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.check(key); err != nil {
		return err
	}

	if ttl == 0 {
		ttl = c.defaultTTL
	}
	if ttl < 0 {
		// A plain SET stores the key without expiry.
		ttl = 0
	}
	return c.client.Set(ctx, c.prefix+key, value, ttl).Err()
}

// Delete removes a value from Redis.
//
// Delete 从Redis中删除值。
func (c *RedisCache) Delete(ctx context.Context, key string) (bool, error) {
	if err := c.check(key); err != nil {
		return false, err
	}

	n, err := c.client.Del(ctx, c.prefix+key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeletePrefix walks matching keys with SCAN and deletes them in batches.
//
// DeletePrefix 使用SCAN遍历匹配的键并分批删除。
func (c *RedisCache) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	if c.closed.Load() {
		return 0, catalogerrors.ErrCacheClosed
	}

	removed := 0
	err := c.scan(ctx, prefix, func(keys []string) error {
		n, err := c.client.Del(ctx, keys...).Result()
		removed += int(n)
		return err
	})
	return removed, err
}

// Clear removes every key under the cache prefix.
//
// Clear 删除缓存前缀下的所有键。
func (c *RedisCache) Clear(ctx context.Context) error {
	_, err := c.DeletePrefix(ctx, "")
	return err
}

// Stats reports the hit and miss counters of this client and counts the
// keys under the prefix.
//
// Stats 返回当前客户端的命中和未命中计数，并统计前缀下的键数量。
func (c *RedisCache) Stats(ctx context.Context) (*Stats, error) {
	if c.closed.Load() {
		return nil, catalogerrors.ErrCacheClosed
	}

	var count int64
	err := c.scan(ctx, "", func(keys []string) error {
		count += int64(len(keys))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &Stats{
		Backend:    "redis",
		EntryCount: count,
		Hits:       c.hits.Load(),
		Misses:     c.misses.Load(),
	}, nil
}

// Counters reports the hit and miss counters without contacting Redis.
func (c *RedisCache) Counters() Stats {
	return Stats{
		Backend: "redis",
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}
}

// Close closes the underlying client.
//
// Close 关闭底层客户端。
func (c *RedisCache) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	return c.client.Close()
}

func (c *RedisCache) check(key string) error {
	if key == "" {
		return catalogerrors.ErrKeyEmpty
	}
	if c.closed.Load() {
		return catalogerrors.ErrCacheClosed
	}
	return nil
}

func (c *RedisCache) scan(ctx context.Context, prefix string, fn func(keys []string) error) error {
	match := escapeGlob(c.prefix+prefix) + "*"
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, match, scanBatch).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := fn(keys); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

// escapeGlob quotes the characters SCAN MATCH treats as patterns.
func escapeGlob(s string) string {
	return globEscaper.Replace(s)
}
