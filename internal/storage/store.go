// Package storage provides the product stores behind the catalog service.
// Two implementations satisfy ProductStore: MemoryStore keeps an ordered
// slice in process memory, GormStore delegates to a relational database
// through GORM. Callers never depend on which one they hold.
//
// Package storage 提供目录服务背后的产品存储。
// MemoryStore 在进程内存中保存有序切片，GormStore 通过GORM委托给关系数据库。
package storage

import (
	"context"

	"github.com/Humphrey-He/prodcat/internal/model"
	"github.com/Humphrey-He/prodcat/internal/query"
)

// ProductStore is the capability shared by every product store.
//
// ProductStore 是所有产品存储共享的能力接口。
type ProductStore interface {
	// List returns every product in insertion order.
	// List 按插入顺序返回所有产品。
	List(ctx context.Context) ([]model.Product, error)

	// Get returns the product with the given id, or an error wrapping
	// errors.ErrNotFound.
	// Get 返回指定ID的产品，不存在时返回包装了errors.ErrNotFound的错误。
	Get(ctx context.Context, id int) (model.Product, error)

	// Create assigns a fresh id to candidate, stores it and returns the
	// stored record.
	// Create 为候选产品分配新ID，存储并返回存储后的记录。
	Create(ctx context.Context, candidate model.Product) (model.Product, error)

	// Update overwrites every mutable attribute of the product with the
	// given id. It returns an error wrapping errors.ErrNotFound when absent.
	// Update 覆盖指定ID产品的所有可变属性，不存在时返回ErrNotFound。
	Update(ctx context.Context, id int, fields model.Product) (model.Product, error)

	// Delete removes the product with the given id. Deleting an absent id
	// is not an error.
	// Delete 删除指定ID的产品，删除不存在的ID不是错误。
	Delete(ctx context.Context, id int) error

	// Close releases the resources held by the store.
	Close() error
}

// Querier is implemented by stores that evaluate filter criteria
// themselves instead of returning the full collection.
type Querier interface {
	Filter(ctx context.Context, c query.Criteria) ([]model.Product, error)
}

// Filter evaluates c against s, using the store's own query support when
// available and a linear scan over List otherwise.
func Filter(ctx context.Context, s ProductStore, c query.Criteria) ([]model.Product, error) {
	if q, ok := s.(Querier); ok {
		return q.Filter(ctx, c)
	}
	products, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return query.Apply(products, c), nil
}
