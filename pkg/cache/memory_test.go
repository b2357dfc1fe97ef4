package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogerrors "github.com/Humphrey-He/prodcat/pkg/errors"
)

// fakeClock lets tests move time forward without sleeping.
type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestCache(maxEntries int, ttl time.Duration) (*MemoryCache, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewMemoryCache(maxEntries, ttl)
	c.now = clock.now
	return c, clock
}

func TestMemoryCacheSetGet(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(0, time.Minute)

	require.NoError(t, c.Set(ctx, "product:1", []byte("widget"), 0))

	v, ok, err := c.Get(ctx, "product:1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("widget"), v)

	_, ok, err = c.Get(ctx, "product:2")
	require.NoError(t, err)
	assert.False(t, ok)

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.EntryCount)
	assert.Equal(t, int64(len("widget")), stats.Size)
	assert.InDelta(t, 0.5, stats.HitRatio(), 0.0001)
}

func TestMemoryCacheReturnsCopies(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(0, time.Minute)

	in := []byte("abc")
	require.NoError(t, c.Set(ctx, "k", in, 0))
	in[0] = 'x'

	out, _, _ := c.Get(ctx, "k")
	assert.Equal(t, []byte("abc"), out)
	out[0] = 'y'

	again, _, _ := c.Get(ctx, "k")
	assert.Equal(t, []byte("abc"), again)
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestCache(0, time.Minute)

	require.NoError(t, c.Set(ctx, "default", []byte("1"), 0))
	require.NoError(t, c.Set(ctx, "short", []byte("2"), time.Second))
	require.NoError(t, c.Set(ctx, "forever", []byte("3"), -1))

	clock.advance(2 * time.Second)
	_, ok, _ := c.Get(ctx, "short")
	assert.False(t, ok)
	_, ok, _ = c.Get(ctx, "default")
	assert.True(t, ok)

	clock.advance(time.Hour)
	_, ok, _ = c.Get(ctx, "default")
	assert.False(t, ok)
	_, ok, _ = c.Get(ctx, "forever")
	assert.True(t, ok)
}

func TestMemoryCacheEvictsLeastRecentlyAccessed(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestCache(2, time.Hour)

	require.NoError(t, c.Set(ctx, "a", []byte("a"), 0))
	clock.advance(time.Second)
	require.NoError(t, c.Set(ctx, "b", []byte("b"), 0))
	clock.advance(time.Second)
	_, _, _ = c.Get(ctx, "a")
	clock.advance(time.Second)

	require.NoError(t, c.Set(ctx, "c", []byte("c"), 0))

	_, ok, _ := c.Get(ctx, "b")
	assert.False(t, ok, "b was accessed least recently")
	_, ok, _ = c.Get(ctx, "a")
	assert.True(t, ok)

	stats, _ := c.Stats(ctx)
	assert.Equal(t, int64(1), stats.Evictions)
	assert.Equal(t, int64(2), stats.EntryCount)

	// Overwriting an existing key does not evict.
	require.NoError(t, c.Set(ctx, "a", []byte("aa"), 0))
	stats, _ = c.Stats(ctx)
	assert.Equal(t, int64(1), stats.Evictions)
}

func TestMemoryCacheDeletePrefix(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(0, time.Minute)

	for _, k := range []string{"products:all", "products:filter:ab", "product:1"} {
		require.NoError(t, c.Set(ctx, k, []byte(k), 0))
	}

	n, err := c.DeletePrefix(ctx, "products:")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, ok, _ := c.Get(ctx, "product:1")
	assert.True(t, ok)

	removed, err := c.Delete(ctx, "product:1")
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = c.Delete(ctx, "product:1")
	require.NoError(t, err)
	assert.False(t, removed)

	require.NoError(t, c.Set(ctx, "x", []byte("x"), 0))
	require.NoError(t, c.Clear(ctx))
	stats, _ := c.Stats(ctx)
	assert.Zero(t, stats.EntryCount)
	assert.Zero(t, stats.Size)
}

func TestMemoryCacheErrors(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(0, time.Minute)

	_, _, err := c.Get(ctx, "")
	assert.ErrorIs(t, err, catalogerrors.ErrKeyEmpty)
	assert.ErrorIs(t, c.Set(ctx, "", nil, 0), catalogerrors.ErrKeyEmpty)

	require.NoError(t, c.Close())
	_, _, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, catalogerrors.ErrCacheClosed)
	assert.ErrorIs(t, c.Set(ctx, "k", nil, 0), catalogerrors.ErrCacheClosed)
	_, err = c.DeletePrefix(ctx, "")
	assert.ErrorIs(t, err, catalogerrors.ErrCacheClosed)
}
