package sale

import (
	"context"

	"distribuidora/internal/core/id"
	"distribuidora/internal/domain"
	"distribuidora/internal/domain/catalogs/customer"
	"distribuidora/internal/domain/catalogs/product"
)

// Repository defines persistence for sales.
type Repository interface {
	Create(ctx context.Context, s *Sale) error
	Update(ctx context.Context, s *Sale) error
	GetByID(ctx context.Context, saleID id.ID) (*Sale, error)
	GetForUpdate(ctx context.Context, saleID id.ID) (*Sale, error)
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Sale], error)

	SaveLines(ctx context.Context, saleID id.ID, lines []Line) error
	GetLines(ctx context.Context, saleID id.ID) ([]Line, error)
}

// ProductReader resolves products for name snapshots and list prices.
type ProductReader interface {
	GetByID(ctx context.Context, productID id.ID) (*product.Product, error)
}

// CustomerReader resolves customers for snapshots and payment checks.
type CustomerReader interface {
	GetByID(ctx context.Context, customerID id.ID) (*customer.Customer, error)
}

// PriceReader resolves customer specific prices.
type PriceReader interface {
	Get(ctx context.Context, customerID, productID id.ID) (*customer.Price, error)
}
