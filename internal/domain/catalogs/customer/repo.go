package customer

import (
	"context"

	"distribuidora/internal/core/id"
	"distribuidora/internal/core/types"
	"distribuidora/internal/domain"
)

// Repository defines the interface for Customer persistence.
type Repository interface {
	Create(ctx context.Context, c *Customer) error
	Update(ctx context.Context, c *Customer) error
	Delete(ctx context.Context, customerID id.ID) error
	GetByID(ctx context.Context, customerID id.ID) (*Customer, error)
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Customer], error)

	// FindByName looks a customer up by its normalized name.
	FindByName(ctx context.Context, name string) (*Customer, error)

	SaveAddress(ctx context.Context, addr *Address) error
	// GetAddress returns nil without error when the customer has none.
	GetAddress(ctx context.Context, customerID id.ID) (*Address, error)

	// SetRouteDays replaces the customer's route-day subscriptions.
	SetRouteDays(ctx context.Context, customerID id.ID, dayIDs []id.ID) error
	GetRouteDays(ctx context.Context, customerID id.ID) ([]id.ID, error)
}

// PriceRepository defines persistence of customer prices.
type PriceRepository interface {
	// InsertForCustomer copies every product's list price to the customer.
	InsertForCustomer(ctx context.Context, customerID id.ID) error
	// InsertForProduct gives every customer a row for the product.
	InsertForProduct(ctx context.Context, productID id.ID, price types.Money) error
	Upsert(ctx context.Context, customerID, productID id.ID, price types.Money) error
	Get(ctx context.Context, customerID, productID id.ID) (*Price, error)
	ListByCustomer(ctx context.Context, customerID id.ID) ([]Price, error)
}
