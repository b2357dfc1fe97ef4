package storage

import (
	"context"
	"sync"
	"time"

	"github.com/Humphrey-He/prodcat/internal/model"
	"github.com/Humphrey-He/prodcat/internal/query"
	catalogerrors "github.com/Humphrey-He/prodcat/pkg/errors"
)

// MemoryStore keeps products in an ordered slice guarded by a single
// RWMutex. Ids follow the max+1 rule, so the slice stays sorted by id.
type MemoryStore struct {
	mu       sync.RWMutex
	products []model.Product
	now      func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

// List returns a copy of every product in insertion order.
func (s *MemoryStore) List(ctx context.Context) ([]model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Product, len(s.products))
	copy(out, s.products)
	return out, nil
}

// Get returns the product with the given id.
func (s *MemoryStore) Get(ctx context.Context, id int) (model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return model.Product{}, catalogerrors.NewProductError(id, catalogerrors.ErrNotFound)
	}
	return s.products[i], nil
}

// Filter scans the products under the read lock.
func (s *MemoryStore) Filter(ctx context.Context, c query.Criteria) ([]model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return query.Apply(s.products, c), nil
}

// Create assigns max existing id + 1 (or 1 when empty) and appends.
func (s *MemoryStore) Create(ctx context.Context, candidate model.Product) (model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	maxID := 0
	for _, p := range s.products {
		if p.ID > maxID {
			maxID = p.ID
		}
	}

	candidate.ID = maxID + 1
	candidate.CreatedAt = s.now().UTC()
	candidate.UpdatedAt = candidate.CreatedAt

	s.products = append(s.products, candidate)
	return candidate, nil
}

// Update overwrites every mutable attribute of the product with the given id.
func (s *MemoryStore) Update(ctx context.Context, id int, fields model.Product) (model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return model.Product{}, catalogerrors.NewProductError(id, catalogerrors.ErrNotFound)
	}

	existing := &s.products[i]
	existing.ApplyFields(fields)
	existing.UpdatedAt = s.now().UTC()
	return *existing, nil
}

// Delete removes the product with the given id if present.
func (s *MemoryStore) Delete(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil
	}
	s.products = append(s.products[:i], s.products[i+1:]...)
	return nil
}

// Close drops the stored products.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.products = nil
	return nil
}

// indexOf must be called with s.mu held.
func (s *MemoryStore) indexOf(id int) int {
	for i := range s.products {
		if s.products[i].ID == id {
			return i
		}
	}
	return -1
}
