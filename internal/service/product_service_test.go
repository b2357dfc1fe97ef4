package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Humphrey-He/prodcat/internal/model"
	"github.com/Humphrey-He/prodcat/internal/query"
	"github.com/Humphrey-He/prodcat/internal/storage"
	"github.com/Humphrey-He/prodcat/pkg/cache"
	"github.com/Humphrey-He/prodcat/pkg/codec"
	catalogerrors "github.com/Humphrey-He/prodcat/pkg/errors"
)

// countingStore counts the reads that reach the underlying store.
type countingStore struct {
	*storage.MemoryStore
	lists, gets int
}

func (s *countingStore) List(ctx context.Context) ([]model.Product, error) {
	s.lists++
	return s.MemoryStore.List(ctx)
}

func (s *countingStore) Get(ctx context.Context, id int) (model.Product, error) {
	s.gets++
	return s.MemoryStore.Get(ctx, id)
}

func newProduct(name, category, price string) model.Product {
	return model.Product{
		Name:      name,
		Category:  category,
		Price:     decimal.RequireFromString(price),
		Inventory: 1,
		Active:    true,
	}
}

func newCachedService(t *testing.T) (*ProductService, *countingStore) {
	t.Helper()
	store := &countingStore{MemoryStore: storage.NewMemoryStore()}
	svc := NewProductService(store, Options{
		Cache:   cache.NewMemoryCache(100, time.Minute),
		ItemTTL: time.Minute,
		ListTTL: time.Minute,
	})
	return svc, store
}

func TestServiceWithoutCache(t *testing.T) {
	ctx := context.Background()
	svc := NewProductService(storage.NewMemoryStore(), Options{})

	created, err := svc.CreateProduct(ctx, newProduct("Widget", "Gadgets", "19.99"))
	require.NoError(t, err)
	assert.Equal(t, 1, created.ID)

	got, err := svc.GetProduct(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Widget", got.Name)

	list, err := svc.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, ok, err := svc.CacheStats(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, svc.WarmCache(ctx))
}

func TestGetProductIsCached(t *testing.T) {
	ctx := context.Background()
	svc, store := newCachedService(t)

	created, err := svc.CreateProduct(ctx, newProduct("Widget", "Gadgets", "19.99"))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		got, err := svc.GetProduct(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Widget", got.Name)
		assert.True(t, got.Price.Equal(decimal.RequireFromString("19.99")))
	}
	// Create primes the item cache, no read reaches the store.
	assert.Equal(t, 0, store.gets)
}

func TestGetMissingIsNotCached(t *testing.T) {
	ctx := context.Background()
	svc, store := newCachedService(t)

	for i := 0; i < 2; i++ {
		_, err := svc.GetProduct(ctx, 7)
		assert.ErrorIs(t, err, catalogerrors.ErrNotFound)
	}
	assert.Equal(t, 2, store.gets)
}

func TestWritesInvalidateLists(t *testing.T) {
	ctx := context.Background()
	svc, store := newCachedService(t)

	_, err := svc.CreateProduct(ctx, newProduct("Widget", "Gadgets", "19.99"))
	require.NoError(t, err)

	list, err := svc.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	_, err = svc.ListProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, store.lists)

	cable, err := svc.CreateProduct(ctx, newProduct("Cable", "Networking", "5.00"))
	require.NoError(t, err)
	list, err = svc.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, 2, store.lists)

	cable.Name = "Patch Cable"
	_, err = svc.UpdateProduct(ctx, cable.ID, cable)
	require.NoError(t, err)
	list, err = svc.ListProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Patch Cable", list[1].Name)

	// Update evicts the item, the next read reloads it once
	// 更新会移除缓存项，下一次读取只从存储加载一次
	gets := store.gets
	for i := 0; i < 2; i++ {
		got, err := svc.GetProduct(ctx, cable.ID)
		require.NoError(t, err)
		assert.Equal(t, "Patch Cable", got.Name)
	}
	assert.Equal(t, gets+1, store.gets)

	require.NoError(t, svc.DeleteProduct(ctx, cable.ID))
	list, err = svc.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	_, err = svc.GetProduct(ctx, cable.ID)
	assert.ErrorIs(t, err, catalogerrors.ErrNotFound)
}

func TestFilterProducts(t *testing.T) {
	ctx := context.Background()
	svc, _ := newCachedService(t)

	for _, p := range []model.Product{
		newProduct("Widget", "Gadgets", "19.99"),
		newProduct("Cable", "Networking", "5.00"),
		newProduct("HDMI Cable", "Video", "12.50"),
	} {
		_, err := svc.CreateProduct(ctx, p)
		require.NoError(t, err)
	}

	name := "cable"
	c := query.Criteria{Name: &name}
	got, err := svc.FilterProducts(ctx, c)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Cable", got[0].Name)
	assert.Equal(t, "HDMI Cable", got[1].Name)

	// A cached filter result must not survive a write.
	_, err = svc.CreateProduct(ctx, newProduct("USB Cable", "Peripherals", "3.00"))
	require.NoError(t, err)
	got, err = svc.FilterProducts(ctx, c)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	all, err := svc.FilterProducts(ctx, query.Criteria{})
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestCreateRejectsInvalidProduct(t *testing.T) {
	ctx := context.Background()
	svc, _ := newCachedService(t)

	_, err := svc.CreateProduct(ctx, newProduct("  ", "Gadgets", "-1"))
	require.Error(t, err)
	assert.ErrorIs(t, err, catalogerrors.ErrInvalidInput)
	assert.Len(t, catalogerrors.Fields(err), 2)

	list, err := svc.ListProducts(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUpdateChecks(t *testing.T) {
	ctx := context.Background()
	svc, _ := newCachedService(t)

	created, err := svc.CreateProduct(ctx, newProduct("Widget", "Gadgets", "19.99"))
	require.NoError(t, err)

	t.Run("id mismatch", func(t *testing.T) {
		p := created
		p.ID = created.ID + 1
		_, err := svc.UpdateProduct(ctx, created.ID, p)
		assert.ErrorIs(t, err, catalogerrors.ErrIDMismatch)
	})

	t.Run("validation before mismatch", func(t *testing.T) {
		p := created
		p.ID = 99
		p.Name = ""
		_, err := svc.UpdateProduct(ctx, created.ID, p)
		assert.NotEmpty(t, catalogerrors.Fields(err))
	})

	t.Run("missing", func(t *testing.T) {
		p := created
		p.ID = 42
		_, err := svc.UpdateProduct(ctx, 42, p)
		assert.ErrorIs(t, err, catalogerrors.ErrNotFound)
	})

	got, err := svc.GetProduct(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Widget", got.Name)
}

func TestDeleteMissingSucceeds(t *testing.T) {
	svc, _ := newCachedService(t)
	assert.NoError(t, svc.DeleteProduct(context.Background(), 12))
}

func TestWarmCache(t *testing.T) {
	ctx := context.Background()
	svc, store := newCachedService(t)
	require.NoError(t, storage.Seed(ctx, store.MemoryStore))

	require.NoError(t, svc.WarmCache(ctx))
	lists := store.lists

	list, err := svc.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, list, len(storage.SeedProducts()))
	_, err = svc.GetProduct(ctx, list[0].ID)
	require.NoError(t, err)

	assert.Equal(t, lists, store.lists)
	assert.Equal(t, 0, store.gets)

	stats, ok, err := svc.CacheStats(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(len(list)+1), stats.EntryCount)
	assert.Positive(t, stats.Hits)
}

func TestGobCodecKeepsEmptyListNonNil(t *testing.T) {
	ctx := context.Background()
	svc := NewProductService(storage.NewMemoryStore(), Options{
		Cache: cache.NewMemoryCache(10, time.Minute),
		Codec: codec.GobCodec{},
	})

	for i := 0; i < 2; i++ {
		list, err := svc.ListProducts(ctx)
		require.NoError(t, err)
		assert.NotNil(t, list)
		assert.Empty(t, list)
	}
}
