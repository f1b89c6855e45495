package dispatch

import (
	"context"

	"distribuidora/internal/core/id"
	"distribuidora/internal/domain"
	"distribuidora/internal/domain/catalogs/customer"
	"distribuidora/internal/domain/catalogs/route"
)

// Repository defines persistence for dispatches and their child lines.
type Repository interface {
	Create(ctx context.Context, d *Dispatch) error
	Update(ctx context.Context, d *Dispatch) error
	GetByID(ctx context.Context, dispatchID id.ID) (*Dispatch, error)
	// GetForUpdate locks the dispatch row until the transaction ends.
	GetForUpdate(ctx context.Context, dispatchID id.ID) (*Dispatch, error)
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Dispatch], error)

	InsertProducts(ctx context.Context, lines []*Product) error
	UpdateProducts(ctx context.Context, lines []*Product) error
	GetProducts(ctx context.Context, dispatchID id.ID) ([]*Product, error)

	InsertCustomers(ctx context.Context, lines []*Customer) error
	UpdateCustomers(ctx context.Context, lines []*Customer) error
	GetCustomers(ctx context.Context, dispatchID id.ID) ([]*Customer, error)

	// DeleteLines removes product and customer lines of a cancelled dispatch.
	DeleteLines(ctx context.Context, dispatchID id.ID) error

	CreateReturn(ctx context.Context, r *Return) error
	UpdateReturn(ctx context.Context, r *Return) error
	GetReturnForUpdate(ctx context.Context, returnID id.ID) (*Return, error)
	ListReturns(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Return], error)
}

// CustomerFinder resolves customers placed on a dispatch.
type CustomerFinder interface {
	GetByID(ctx context.Context, customerID id.ID) (*customer.Customer, error)
	FindByName(ctx context.Context, name string) (*customer.Customer, error)
}

// RouteReader resolves the route day a dispatch runs on.
type RouteReader interface {
	GetDay(ctx context.Context, dayID id.ID) (*route.Day, error)
	DayCustomers(ctx context.Context, dayID id.ID) ([]route.CustomerRef, error)
}
