package repository

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/umg/product-catalog/internal/logger"
	"github.com/umg/product-catalog/internal/model"
	"github.com/umg/product-catalog/internal/product"
)

// MemoryRepository keeps products in process memory with the same contract as
// SQLRepository: unique ids, id ordering, copies in and out.
type MemoryRepository struct {
	mu       sync.RWMutex
	products map[int64]*model.Product
	logger   logger.ZapLogger
}

var _ product.Repository = (*MemoryRepository)(nil)

func NewMemoryRepository(log logger.ZapLogger) *MemoryRepository {
	return &MemoryRepository{
		products: make(map[int64]*model.Product),
		logger:   log,
	}
}

func (r *MemoryRepository) FindAll(ctx context.Context) ([]*model.Product, error) {
	return r.filter(func(*model.Product) bool { return true }), nil
}

func (r *MemoryRepository) Search(ctx context.Context, term string) ([]*model.Product, error) {
	lowered := strings.ToLower(term)
	return r.filter(func(p *model.Product) bool {
		return strings.Contains(strings.ToLower(p.Name()), lowered) ||
			strings.Contains(strconv.FormatInt(p.ID(), 10), term)
	}), nil
}

func (r *MemoryRepository) Exists(ctx context.Context, id int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.products[id]
	return ok, nil
}

func (r *MemoryRepository) Create(ctx context.Context, p *model.Product) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[p.ID()]; ok {
		return false, &product.DuplicateKeyError{ID: p.ID(), Err: product.ErrDuplicateKey}
	}
	r.products[p.ID()] = p.Clone()

	r.logger.Debug("product stored in memory", zap.Int64("product_id", p.ID()))
	return true, nil
}

func (r *MemoryRepository) Update(ctx context.Context, p *model.Product) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[p.ID()]; !ok {
		return false, nil
	}
	r.products[p.ID()] = p.Clone()
	return true, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return false, nil
	}
	delete(r.products, id)
	return true, nil
}

func (r *MemoryRepository) MaxID(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var maxID int64
	for id := range r.products {
		if id > maxID {
			maxID = id
		}
	}
	return maxID, nil
}

func (r *MemoryRepository) Ping(ctx context.Context) error {
	return nil
}

func (r *MemoryRepository) filter(keep func(*model.Product) bool) []*model.Product {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*model.Product{}
	for _, p := range r.products {
		if keep(p) {
			out = append(out, p.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}
