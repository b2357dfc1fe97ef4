package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteExpired(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestCache(0, time.Minute)

	require.NoError(t, c.Set(ctx, "product:1", []byte("a"), time.Second))
	require.NoError(t, c.Set(ctx, "product:2", []byte("b"), time.Hour))
	require.NoError(t, c.Set(ctx, "product:3", []byte("c"), -1))

	assert.Equal(t, 0, c.DeleteExpired())
	clock.advance(2 * time.Second)
	assert.Equal(t, 1, c.DeleteExpired())

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.EntryCount)
	assert.Equal(t, int64(2), stats.Size)
	assert.Zero(t, stats.Evictions)
}

func TestCleanerSweepsInBackground(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(0, time.Minute)
	c.StartCleaner(5 * time.Millisecond)
	// A second start keeps the running cleaner
	c.StartCleaner(time.Hour)

	require.NoError(t, c.Set(ctx, "products:all", []byte("[]"), 10*time.Millisecond))

	assert.Eventually(t, func() bool {
		stats, err := c.Stats(ctx)
		return err == nil && stats.EntryCount == 0
	}, time.Second, 5*time.Millisecond)

	cs, ok := c.CleanerStats()
	require.True(t, ok)
	assert.Positive(t, cs.Sweeps)
	assert.Equal(t, uint64(1), cs.Expired)

	require.NoError(t, c.Close())
	_, ok = c.CleanerStats()
	assert.False(t, ok)
}

func TestStartCleanerIgnoresNonPositiveInterval(t *testing.T) {
	c := NewMemoryCache(0, time.Minute)
	c.StartCleaner(0)
	_, ok := c.CleanerStats()
	assert.False(t, ok)
	require.NoError(t, c.Close())
}
