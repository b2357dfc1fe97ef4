// Package loader provides the back-source side of the cache: loaders that
// fetch a value on a cache miss and Through, which runs the cache-aside
// sequence around them.
//
// Package loader 提供缓存的回源部分：在缓存未命中时获取数据的加载器，
// 以及围绕加载器执行旁路缓存流程的Through。
package loader

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Humphrey-He/prodcat/pkg/cache"
	"github.com/Humphrey-He/prodcat/pkg/codec"
)

// Loader is the interface that wraps the basic Load method.
//
// Load retrieves data for the given key from a data source.
// It returns the loaded value, a TTL for the cache entry, and any error encountered.
// If the returned TTL is zero, the caller's TTL is used.
//
// Loader 是包装基本Load方法的接口。
// 如果返回的TTL为零，将使用调用方提供的TTL。
type Loader[T any] interface {
	Load(ctx context.Context, key string) (value T, ttl time.Duration, err error)
}

// LoaderFunc is a function type that implements the Loader interface.
//
// LoaderFunc 是实现Loader接口的函数类型。
type LoaderFunc[T any] func(ctx context.Context, key string) (T, time.Duration, error)

// Load calls the function itself.
//
// Load 调用函数本身。
func (f LoaderFunc[T]) Load(ctx context.Context, key string) (T, time.Duration, error) {
	return f(ctx, key)
}

// NewFunctionLoader creates a Loader from a function that only returns the
// value and an error. The TTL is left to the caller.
//
// NewFunctionLoader 从只返回值和错误的函数创建一个新的Loader。TTL由调用方决定。
func NewFunctionLoader[T any](fn func(ctx context.Context, key string) (T, error)) Loader[T] {
	return LoaderFunc[T](func(ctx context.Context, key string) (T, time.Duration, error) {
		value, err := fn(ctx, key)
		return value, 0, err
	})
}

// Through returns the value cached under key, or loads it, stores it and
// returns it. A nil cache loads every time. Cache failures are logged and
// never fail the call; loader errors are returned unchanged and nothing is
// stored.
//
// Through 返回key对应的缓存值，否则通过加载器加载、写入缓存并返回。
// cache为nil时每次都加载。缓存故障只记录日志，不会导致调用失败；
// 加载器的错误原样返回且不写入缓存。
//
// Parameters:
//   - ctx: Context for the operation
//   - c: The cache, may be nil
//   - cd: Codec used to encode cached values
//   - key: Cache key, also passed to the loader
//   - ttl: TTL for the stored entry unless the loader returns one
//   - l: Loader called on a miss
//
// Returns:
//   - T: The value
//   - bool: True if the value came from the cache
//   - error: The loader's error, if any
func Through[T any](ctx context.Context, c cache.ICache, cd codec.Codec, key string, ttl time.Duration, l Loader[T]) (T, bool, error) {
	if c != nil {
		data, ok, err := c.Get(ctx, key)
		switch {
		case err != nil:
			log.Warn().Err(err).Str("key", key).Msg("cache read failed")
		case ok:
			var value T
			err := cd.Unmarshal(data, &value)
			if err == nil {
				return value, true, nil
			}
			log.Warn().Err(err).Str("key", key).Msg("discarding undecodable cache entry")
		}
	}

	value, loadTTL, err := l.Load(ctx, key)
	if err != nil {
		return value, false, err
	}
	if c == nil {
		return value, false, nil
	}

	if loadTTL != 0 {
		ttl = loadTTL
	}
	data, err := cd.Marshal(value)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache encode failed")
		return value, false, nil
	}
	if err := c.Set(ctx, key, data, ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
	return value, false, nil
}
