package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/Humphrey-He/prodcat/internal/model"
	"github.com/Humphrey-He/prodcat/internal/query"
	catalogerrors "github.com/Humphrey-He/prodcat/pkg/errors"
)

// GormStore keeps products in a relational database. Ids follow the same
// max + 1 rule as MemoryStore; names are unique.
//
// GormStore 将产品保存在关系数据库中。ID遵循与MemoryStore相同的最大值加1规则。
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an opened database. The products table must exist.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// DB exposes the underlying handle, e.g. for migrations in tests.
func (s *GormStore) DB() *gorm.DB {
	return s.db
}

// List returns every product ordered by id.
func (s *GormStore) List(ctx context.Context) ([]model.Product, error) {
	products := make([]model.Product, 0)
	if err := s.db.WithContext(ctx).Order("id").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// Get returns the product with the given id.
func (s *GormStore) Get(ctx context.Context, id int) (model.Product, error) {
	var p model.Product
	err := s.db.WithContext(ctx).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Product{}, catalogerrors.NewProductError(id, catalogerrors.ErrNotFound)
	}
	if err != nil {
		return model.Product{}, fmt.Errorf("get product %d: %w", id, err)
	}
	return p, nil
}

// Filter translates the criteria into a WHERE clause. Matching rules are
// the same as query.Apply.
func (s *GormStore) Filter(ctx context.Context, c query.Criteria) ([]model.Product, error) {
	tx := s.db.WithContext(ctx).Model(&model.Product{})
	if c.Name != nil {
		tx = tx.Where(`LOWER(name) LIKE ? ESCAPE '\'`, "%"+escapeLike(strings.ToLower(*c.Name))+"%")
	}
	if c.Category != nil {
		tx = tx.Where("LOWER(category) = ?", strings.ToLower(*c.Category))
	}
	if c.MinPrice != nil {
		tx = tx.Where("price >= ?", *c.MinPrice)
	}
	if c.MaxPrice != nil {
		tx = tx.Where("price <= ?", *c.MaxPrice)
	}

	products := make([]model.Product, 0)
	if err := tx.Order("id").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("filter products: %w", err)
	}
	return products, nil
}

// Create inserts candidate with id max existing id + 1, or 1 when the table
// is empty. Any id on candidate is ignored. A duplicate name is reported as
// a validation error.
//
// Create 以当前最大ID加1（表为空时为1）插入产品，忽略candidate中的ID。
func (s *GormStore) Create(ctx context.Context, candidate model.Product) (model.Product, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Serialize concurrent creates so two writers never read the same max
		// 串行化并发创建，避免两个写入者读取到相同的最大ID
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec("LOCK TABLE " + productsTable + " IN SHARE ROW EXCLUSIVE MODE").Error; err != nil {
				return err
			}
		}

		var maxID int
		if err := tx.Raw("SELECT COALESCE(MAX(id), 0) FROM " + productsTable).Scan(&maxID).Error; err != nil {
			return err
		}
		candidate.ID = maxID + 1
		return tx.Create(&candidate).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return model.Product{}, duplicateName()
		}
		return model.Product{}, fmt.Errorf("create product: %w", err)
	}
	return candidate, nil
}

// Update loads the product and saves the overwritten attributes in one
// transaction.
func (s *GormStore) Update(ctx context.Context, id int, fields model.Product) (model.Product, error) {
	var updated model.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&updated, id).Error; err != nil {
			return err
		}
		updated.ApplyFields(fields)
		return tx.Save(&updated).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Product{}, catalogerrors.NewProductError(id, catalogerrors.ErrNotFound)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return model.Product{}, duplicateName()
	}
	if err != nil {
		return model.Product{}, fmt.Errorf("update product %d: %w", id, err)
	}
	return updated, nil
}

// Delete removes the row if present. Zero affected rows is not an error.
func (s *GormStore) Delete(ctx context.Context, id int) error {
	if err := s.db.WithContext(ctx).Delete(&model.Product{}, id).Error; err != nil {
		return fmt.Errorf("delete product %d: %w", id, err)
	}
	return nil
}

// Close closes the connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var productsTable = model.Product{}.TableName()

func duplicateName() error {
	ve := &catalogerrors.ValidationError{}
	ve.Add("name", "already exists")
	return ve
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
