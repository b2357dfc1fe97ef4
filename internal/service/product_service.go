// Package service implements the business logic of the catalog API.
// It sits between the HTTP handlers and the product store, validating
// input and keeping an optional read-through cache consistent.
//
// Package service 实现目录API的业务逻辑。
// 它位于HTTP处理程序和产品存储之间，负责校验输入并维护可选的读穿缓存的一致性。
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Humphrey-He/prodcat/internal/model"
	"github.com/Humphrey-He/prodcat/internal/observability"
	"github.com/Humphrey-He/prodcat/internal/query"
	"github.com/Humphrey-He/prodcat/internal/storage"
	"github.com/Humphrey-He/prodcat/pkg/cache"
	"github.com/Humphrey-He/prodcat/pkg/codec"
	catalogerrors "github.com/Humphrey-He/prodcat/pkg/errors"
	"github.com/Humphrey-He/prodcat/pkg/loader"
)

// Cache key layout. Every list entry lives under listKeyPrefix so one
// prefix deletion invalidates all of them.
const (
	listKeyPrefix = "products:"
	allKey        = listKeyPrefix + "all"
	filterPrefix  = listKeyPrefix + "filter:"
)

func productKey(id int) string {
	return fmt.Sprintf("product:%d", id)
}

// Options configures a ProductService. Zero values disable the cache and
// use no-op instrumentation.
type Options struct {
	Cache         cache.ICache          // Optional cache / 可选缓存
	Codec         codec.Codec           // Codec for cached values, JSON by default / 缓存值编解码器
	ItemTTL       time.Duration         // TTL of single products / 单个产品的TTL
	ListTTL       time.Duration         // TTL of lists and filter results / 列表的TTL
	Observability *observability.Config // Tracing and metrics / 追踪与指标
}

// ProductService handles product business logic with caching.
// Reads use the cache-aside pattern through loader.Through; writes go to
// the store first and then refresh or invalidate the affected entries.
//
// ProductService 处理带有缓存的产品业务逻辑。
// 读取通过loader.Through使用缓存旁路模式；写入先写存储，再刷新或失效相关缓存条目。
type ProductService struct {
	store   storage.ProductStore
	cache   cache.ICache
	codec   codec.Codec
	itemTTL time.Duration
	listTTL time.Duration
	obs     *observability.Config
}

// NewProductService creates a new product service.
//
// NewProductService 创建一个新的产品服务。
//
// Parameters:
//   - store: The product store
//   - opts: Cache and instrumentation settings
//
// Returns:
//   - *ProductService: A new product service instance
func NewProductService(store storage.ProductStore, opts Options) *ProductService {
	cd := opts.Codec
	if cd == nil {
		cd = codec.DefaultCodec()
	}
	return &ProductService{
		store:   store,
		cache:   opts.Cache,
		codec:   cd,
		itemTTL: opts.ItemTTL,
		listTTL: opts.ListTTL,
		obs:     opts.Observability,
	}
}

// ListProducts returns every product in insertion order.
//
// ListProducts 按插入顺序返回所有产品。
func (s *ProductService) ListProducts(ctx context.Context) (products []model.Product, err error) {
	ctx, done := s.observe(ctx, observability.OpList, 0)
	defer func() { done(err) }()

	products, hit, err := loader.Through(ctx, s.cache, s.codec, allKey, s.listTTL,
		loader.NewFunctionLoader(func(ctx context.Context, _ string) ([]model.Product, error) {
			return s.store.List(ctx)
		}))
	s.recordLookup(ctx, observability.OpList, hit)
	if err != nil {
		return nil, err
	}
	if products == nil {
		// gob decodes an empty list as nil
		products = []model.Product{}
	}
	s.obs.Metrics().RecordResultCount(ctx, observability.OpList, len(products))
	return products, nil
}

// FilterProducts returns the products matching c, in insertion order.
// Empty criteria return the full list.
//
// FilterProducts 返回匹配c的产品。条件为空时返回完整列表。
func (s *ProductService) FilterProducts(ctx context.Context, c query.Criteria) (products []model.Product, err error) {
	if c.IsEmpty() {
		return s.ListProducts(ctx)
	}

	ctx, done := s.observe(ctx, observability.OpFilter, 0)
	defer func() { done(err) }()

	products, hit, err := loader.Through(ctx, s.cache, s.codec, filterPrefix+c.Key(), s.listTTL,
		loader.NewFunctionLoader(func(ctx context.Context, _ string) ([]model.Product, error) {
			return storage.Filter(ctx, s.store, c)
		}))
	s.recordLookup(ctx, observability.OpFilter, hit)
	if err != nil {
		return nil, err
	}
	if products == nil {
		// gob decodes an empty list as nil
		products = []model.Product{}
	}
	s.obs.Metrics().RecordResultCount(ctx, observability.OpFilter, len(products))
	return products, nil
}

// GetProduct retrieves a product by ID, using the cache if available.
// Absent ids are not cached.
//
// GetProduct 通过ID检索产品，如果可用则使用缓存。不存在的ID不会被缓存。
func (s *ProductService) GetProduct(ctx context.Context, id int) (product model.Product, err error) {
	ctx, done := s.observe(ctx, observability.OpGet, id)
	defer func() { done(err) }()

	product, hit, err := loader.Through(ctx, s.cache, s.codec, productKey(id), s.itemTTL,
		loader.NewFunctionLoader(func(ctx context.Context, _ string) (model.Product, error) {
			return s.store.Get(ctx, id)
		}))
	s.recordLookup(ctx, observability.OpGet, hit)
	return product, err
}

// CreateProduct validates p and stores it under a fresh id.
// The new product is cached and every cached list is invalidated.
//
// CreateProduct 校验并存储产品，分配新ID。
// 新产品会被缓存，所有缓存的列表都会失效。
//
// Parameters:
//   - ctx: The context for the operation
//   - p: The product to create, its id is ignored
//
// Returns:
//   - model.Product: The created product with assigned ID
//   - error: A ValidationError or a persistence error
func (s *ProductService) CreateProduct(ctx context.Context, p model.Product) (created model.Product, err error) {
	ctx, done := s.observe(ctx, observability.OpCreate, 0)
	defer func() { done(err) }()

	if err := p.Validate(); err != nil {
		return model.Product{}, err
	}

	created, err = s.store.Create(ctx, p)
	if err != nil {
		return model.Product{}, err
	}

	s.cacheProduct(ctx, created)
	s.invalidateProductLists(ctx)
	log.Ctx(ctx).Info().Int("product_id", created.ID).Msg("product created")
	return created, nil
}

// UpdateProduct overwrites every mutable attribute of the product
// addressed by pathID. The id carried by p must equal pathID.
// Checks run in order: payload validation, id mismatch, existence.
//
// UpdateProduct 覆盖pathID对应产品的所有可变属性。p中的ID必须等于pathID。
//
// Parameters:
//   - ctx: The context for the operation
//   - pathID: The ID addressed by the request
//   - p: The new attribute values
//
// Returns:
//   - model.Product: The updated product
//   - error: A ValidationError, ErrIDMismatch, ErrNotFound or a persistence error
func (s *ProductService) UpdateProduct(ctx context.Context, pathID int, p model.Product) (updated model.Product, err error) {
	ctx, done := s.observe(ctx, observability.OpUpdate, pathID)
	defer func() { done(err) }()

	if err := p.Validate(); err != nil {
		return model.Product{}, err
	}
	if p.ID != pathID {
		return model.Product{}, catalogerrors.NewProductError(pathID, catalogerrors.ErrIDMismatch)
	}

	updated, err = s.store.Update(ctx, pathID, p)
	if err != nil {
		return model.Product{}, err
	}

	// Drop the entry rather than rewrite it, so concurrent updates cannot
	// leave the older row cached
	// 删除缓存条目而不是改写，避免并发更新留下较旧的数据
	s.evictProduct(ctx, pathID)
	s.invalidateProductLists(ctx)
	log.Ctx(ctx).Info().Int("product_id", pathID).Msg("product updated")
	return updated, nil
}

// DeleteProduct removes the product with the given id. Deleting an absent
// id succeeds.
//
// DeleteProduct 删除指定ID的产品。删除不存在的ID也会成功。
func (s *ProductService) DeleteProduct(ctx context.Context, id int) (err error) {
	ctx, done := s.observe(ctx, observability.OpDelete, id)
	defer func() { done(err) }()

	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	s.evictProduct(ctx, id)
	s.invalidateProductLists(ctx)
	log.Ctx(ctx).Info().Int("product_id", id).Msg("product deleted")
	return nil
}

func (s *ProductService) evictProduct(ctx context.Context, id int) {
	if s.cache == nil {
		return
	}
	if _, err := s.cache.Delete(ctx, productKey(id)); err != nil {
		log.Ctx(ctx).Warn().Err(err).Int("product_id", id).Msg("failed to delete product from cache")
	}
}

// WarmCache loads every product and the full list into the cache. It is a
// no-op without a cache.
//
// WarmCache 预加载所有产品和完整列表到缓存中。没有缓存时不执行任何操作。
func (s *ProductService) WarmCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}

	products, err := s.store.List(ctx)
	if err != nil {
		return err
	}
	for _, p := range products {
		s.cacheProduct(ctx, p)
	}
	if data, err := s.codec.Marshal(products); err == nil {
		if err := s.cache.Set(ctx, allKey, data, s.listTTL); err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("failed to cache product list")
		}
	}

	log.Ctx(ctx).Info().Int("count", len(products)).Msg("cache warmed")
	return nil
}

// CacheStats returns the cache statistics, or false when no cache is
// configured.
//
// CacheStats 返回缓存统计信息；未配置缓存时返回false。
func (s *ProductService) CacheStats(ctx context.Context) (*cache.Stats, bool, error) {
	if s.cache == nil {
		return nil, false, nil
	}
	stats, err := s.cache.Stats(ctx)
	return stats, true, err
}

func (s *ProductService) cacheProduct(ctx context.Context, p model.Product) {
	if s.cache == nil {
		return
	}
	data, err := s.codec.Marshal(p)
	if err == nil {
		err = s.cache.Set(ctx, productKey(p.ID), data, s.itemTTL)
	}
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Int("product_id", p.ID).Msg("failed to cache product")
	}
}

// invalidateProductLists removes all product list entries from the cache.
//
// invalidateProductLists 从缓存中移除所有产品列表条目。
func (s *ProductService) invalidateProductLists(ctx context.Context) {
	if s.cache == nil {
		return
	}
	n, err := s.cache.DeletePrefix(ctx, listKeyPrefix)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("failed to invalidate product lists")
		return
	}
	log.Ctx(ctx).Debug().Int("entries", n).Msg("product lists invalidated")
}

func (s *ProductService) recordLookup(ctx context.Context, op string, hit bool) {
	if s.cache != nil {
		s.obs.Metrics().RecordCacheLookup(ctx, op, hit)
	}
}

// observe starts the span of one operation. The returned func ends it and
// records the outcome; not-found and invalid input are not span errors.
func (s *ProductService) observe(ctx context.Context, op string, id int) (context.Context, func(error)) {
	start := time.Now()
	tracer := s.obs.Tracer()
	ctx, span := tracer.StartOperation(ctx, op, id)
	timing := observability.StartServerTiming(ctx, op, "catalog "+op)

	return ctx, func(err error) {
		timing.Stop()
		if err != nil && !catalogerrors.IsNotFound(err) && !catalogerrors.IsInvalidInput(err) {
			tracer.RecordError(span, err)
		}
		s.obs.Metrics().RecordOperation(ctx, op, time.Since(start), err)
		span.End()
	}
}
