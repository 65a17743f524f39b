package product

import (
	"context"

	"github.com/umg/product-catalog/internal/model"
)

// Repository is the store gateway. Each call runs exactly one statement on
// its own connection and releases every resource before returning.
type Repository interface {
	FindAll(ctx context.Context) ([]*model.Product, error)
	Search(ctx context.Context, term string) ([]*model.Product, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Create(ctx context.Context, p *model.Product) (bool, error)
	Update(ctx context.Context, p *model.Product) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	MaxID(ctx context.Context) (int64, error)

	// Ping checks that the store is reachable and the table exists.
	Ping(ctx context.Context) error
}
