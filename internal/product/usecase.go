package product

import (
	"context"

	"github.com/umg/product-catalog/internal/model"
)

// UseCase is the only surface presentation code may call.
type UseCase interface {
	ListAll(ctx context.Context) ([]*model.Product, error)
	Search(ctx context.Context, term string) ([]*model.Product, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Insert(ctx context.Context, p *model.Product) (bool, error)
	Update(ctx context.Context, p *model.Product) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)

	// NextID is advisory: max(id)+1, or 1 for an empty table. Insert still
	// enforces uniqueness.
	NextID(ctx context.Context) (int64, error)

	CheckStore(ctx context.Context) error
}
