// Package cache provides the read-through cache used in front of the
// product store. Values are opaque byte slices produced by a codec, so the
// same interface is served by an in-process map and by Redis.
//
// Package cache 提供位于商品存储之前的读穿缓存。
// 值是由编解码器生成的字节切片，因此同一接口可以由进程内映射和Redis实现。
package cache

import (
	"context"
	"time"
)

// ICache defines the interface for the cache.
// All methods are thread-safe and can be called concurrently.
//
// ICache 定义缓存的接口。
// 所有方法都是线程安全的，可以并发调用。
type ICache interface {
	// Get retrieves a value from the cache.
	// If the key is not found or has expired, (nil, false, nil) is returned.
	//
	// Get 从缓存中检索值。
	// 如果未找到键或键已过期，则返回 (nil, false, nil)。
	//
	// Parameters:
	//   - ctx: Context for the operation, can be used for cancellation
	//   - key: The key to retrieve
	//
	// Returns:
	//   - []byte: The cached value if found
	//   - bool: True if the key was found and is valid
	//   - error: Error if the retrieval operation failed
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the specified TTL.
	// If ttl is 0, the cache's default TTL is used.
	// If ttl is negative, the entry does not expire.
	//
	// Set 将值添加到缓存中，并指定TTL。
	// 如果ttl为0，则使用默认TTL；如果ttl为负数，则条目不会过期。
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from the cache.
	// Returns true if the key was found and removed.
	//
	// Delete 从缓存中删除值。如果找到并删除了键，则返回true。
	Delete(ctx context.Context, key string) (bool, error)

	// DeletePrefix removes every key starting with prefix and returns how
	// many were removed.
	//
	// DeletePrefix 删除所有以prefix开头的键，并返回删除的数量。
	DeletePrefix(ctx context.Context, prefix string) (int, error)

	// Clear removes all values from the cache.
	//
	// Clear 删除缓存中的所有值。
	Clear(ctx context.Context) error

	// Stats returns statistics about the cache.
	//
	// Stats 返回有关缓存的统计信息。
	Stats(ctx context.Context) (*Stats, error)

	// Close cleans up resources used by the cache.
	// After calling Close, the cache should not be used anymore.
	//
	// Close 清理缓存使用的资源。调用Close后，不应再使用缓存。
	Close() error
}

// CounterReader is implemented by caches whose Stats walks the backend.
// Counters returns the in-process hit and miss counters only, leaving
// EntryCount and Size zero.
//
// CounterReader 由Stats需要遍历后端的缓存实现。Counters只返回进程内的命中和未命中计数。
type CounterReader interface {
	Counters() Stats
}

// Stats represents cache statistics.
//
// Stats 表示缓存统计信息。
type Stats struct {
	// Backend names the implementation, "memory" or "redis"
	// Backend 表示实现名称
	Backend string `json:"backend"`

	// EntryCount is the current number of entries in the cache
	// EntryCount 是缓存中当前的条目数量
	EntryCount int64 `json:"entry_count"`

	// Hits is the number of successful cache retrievals
	// Hits 是成功的缓存检索次数
	Hits int64 `json:"hits"`

	// Misses is the number of cache retrievals where the key was not found
	// Misses 是未找到键的缓存检索次数
	Misses int64 `json:"misses"`

	// Evictions is the number of entries removed due to capacity constraints
	// Evictions 是由于容量限制而删除的条目数
	Evictions int64 `json:"evictions"`

	// Size is the total size of the stored values in bytes, when known
	// Size 是已存储值的总字节数（如果可知）
	Size int64 `json:"size"`
}

// HitRatio returns hits / (hits + misses), or 0 before any lookup.
//
// HitRatio 返回命中率。
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}
