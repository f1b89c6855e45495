package product

import (
	"context"

	"distribuidora/internal/core/id"
	"distribuidora/internal/core/types"
	"distribuidora/internal/domain"
)

// Repository defines the interface for Product persistence.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, productID id.ID) error
	GetByID(ctx context.Context, productID id.ID) (*Product, error)
	GetForUpdate(ctx context.Context, productID id.ID) (*Product, error)
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Product], error)
}

// PriceSeeder creates the per-customer price rows of a new product.
type PriceSeeder interface {
	InsertForProduct(ctx context.Context, productID id.ID, price types.Money) error
}
