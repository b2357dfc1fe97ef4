package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	catalogerrors "github.com/Humphrey-He/prodcat/pkg/errors"
)

// MemoryCache is an in-process ICache. When full it evicts the least
// recently accessed entry.
//
// MemoryCache 是进程内的ICache实现。容量已满时淘汰最近最少访问的条目。
type MemoryCache struct {
	mu         sync.Mutex
	data       map[string]memoryEntry
	stats      Stats
	maxEntries int
	defaultTTL time.Duration
	closed     bool
	now        func() time.Time
	cleaner    *Cleaner
}

// memoryEntry represents an item in the memory cache.
//
// memoryEntry 表示内存缓存中的一个项目。
type memoryEntry struct {
	value     []byte
	expiresAt time.Time
	accessed  time.Time
}

// NewMemoryCache creates a new memory cache.
//
// NewMemoryCache 创建一个新的内存缓存。
//
// Parameters:
//   - maxEntries: The maximum number of entries, 0 means unbounded
//   - defaultTTL: TTL used when Set is called with ttl 0
//
// Returns:
//   - *MemoryCache: A new memory cache instance
func NewMemoryCache(maxEntries int, defaultTTL time.Duration) *MemoryCache {
	return &MemoryCache{
		data:       make(map[string]memoryEntry),
		stats:      Stats{Backend: "memory"},
		maxEntries: maxEntries,
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

// Get retrieves a copy of the value stored under key.
//
// Get 从缓存中检索值的副本。
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, catalogerrors.ErrKeyEmpty
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, false, catalogerrors.ErrCacheClosed
	}

	entry, exists := c.data[key]
	if !exists {
		c.stats.Misses++
		return nil, false, nil
	}

	// Check if expired
	// 检查是否过期
	now := c.now()
	if !entry.expiresAt.IsZero() && now.After(entry.expiresAt) {
		c.remove(key)
		c.stats.Misses++
		return nil, false, nil
	}

	entry.accessed = now
	c.data[key] = entry
	c.stats.Hits++

	return append([]byte(nil), entry.value...), true, nil
}

// Set stores a copy of value under key.
//
// Set 将值的副本存储到缓存中。
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return catalogerrors.ErrKeyEmpty
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return catalogerrors.ErrCacheClosed
	}

	if ttl == 0 {
		ttl = c.defaultTTL
	}

	// Check if we need to evict
	// 检查是否需要淘汰
	if _, exists := c.data[key]; !exists && c.maxEntries > 0 && len(c.data) >= c.maxEntries {
		c.evict()
	}

	now := c.now()
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = now.Add(ttl)
	}

	c.remove(key)
	c.data[key] = memoryEntry{
		value:     append([]byte(nil), value...),
		expiresAt: expiresAt,
		accessed:  now,
	}
	c.stats.Size += int64(len(value))
	c.stats.EntryCount = int64(len(c.data))
	return nil
}

// Delete removes a value from the cache.
//
// Delete 从缓存中删除值。
func (c *MemoryCache) Delete(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, catalogerrors.ErrKeyEmpty
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false, catalogerrors.ErrCacheClosed
	}
	return c.remove(key), nil
}

// DeletePrefix removes every key starting with prefix.
//
// DeletePrefix 删除所有以prefix开头的键。
func (c *MemoryCache) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, catalogerrors.ErrCacheClosed
	}

	removed := 0
	for key := range c.data {
		if strings.HasPrefix(key, prefix) {
			c.remove(key)
			removed++
		}
	}
	return removed, nil
}

// Clear removes all values from the cache.
//
// Clear 删除缓存中的所有值。
func (c *MemoryCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return catalogerrors.ErrCacheClosed
	}

	c.data = make(map[string]memoryEntry)
	c.stats.EntryCount = 0
	c.stats.Size = 0
	return nil
}

// Stats returns a snapshot of the cache statistics.
//
// Stats 返回缓存统计信息的快照。
func (c *MemoryCache) Stats(ctx context.Context) (*Stats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	statsCopy := c.stats
	return &statsCopy, nil
}

// StartCleaner sweeps expired entries every interval until Close. A
// non-positive interval or a second call does nothing.
//
// StartCleaner 每隔interval清理一次过期条目，直到Close被调用。
func (c *MemoryCache) StartCleaner(interval time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if interval <= 0 || c.cleaner != nil || c.closed {
		return
	}
	c.cleaner = newCleaner(c, interval)
}

// CleanerStats returns the counters of the background cleaner, false when
// none runs.
func (c *MemoryCache) CleanerStats() (CleanerStats, bool) {
	c.mu.Lock()
	cleaner := c.cleaner
	c.mu.Unlock()

	if cleaner == nil {
		return CleanerStats{}, false
	}
	return cleaner.Stats(), true
}

// DeleteExpired removes every expired entry and returns how many were
// removed. Expired entries do not count as evictions.
//
// DeleteExpired 删除所有过期条目并返回删除的数量。
func (c *MemoryCache) DeleteExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, entry := range c.data {
		if !entry.expiresAt.IsZero() && now.After(entry.expiresAt) {
			c.remove(key)
			removed++
		}
	}
	return removed
}

// Close stops the cleaner and drops all entries. Later calls return
// ErrCacheClosed.
//
// Close 停止清理器并清理缓存使用的资源。
func (c *MemoryCache) Close() error {
	// The cleaner takes c.mu while sweeping, stop it first
	c.mu.Lock()
	cleaner := c.cleaner
	c.cleaner = nil
	c.mu.Unlock()
	if cleaner != nil {
		cleaner.Close()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.data = nil
	c.closed = true
	return nil
}

// remove must be called with c.mu held.
func (c *MemoryCache) remove(key string) bool {
	entry, exists := c.data[key]
	if !exists {
		return false
	}
	delete(c.data, key)
	c.stats.Size -= int64(len(entry.value))
	c.stats.EntryCount = int64(len(c.data))
	return true
}

// evict removes the least recently accessed entry.
//
// evict 删除最近最少访问的条目。
func (c *MemoryCache) evict() {
	var (
		keyToEvict   string
		oldestAccess time.Time
		first        = true
	)
	for k, entry := range c.data {
		if first || entry.accessed.Before(oldestAccess) {
			oldestAccess = entry.accessed
			keyToEvict = k
			first = false
		}
	}
	if !first && c.remove(keyToEvict) {
		c.stats.Evictions++
	}
}
