package route

import (
	"context"

	"distribuidora/internal/core/id"
	"distribuidora/internal/domain"
)

// Repository defines the interface for Route persistence.
type Repository interface {
	Create(ctx context.Context, r *Route) error
	GetByID(ctx context.Context, routeID id.ID) (*Route, error)
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Route], error)

	CreateDays(ctx context.Context, days []*Day) error
	GetDays(ctx context.Context, routeID id.ID) ([]*Day, error)
	GetDay(ctx context.Context, dayID id.ID) (*Day, error)
	UpdateDay(ctx context.Context, day *Day) error

	// DayCustomers lists customers subscribed to the day, by name.
	DayCustomers(ctx context.Context, dayID id.ID) ([]CustomerRef, error)
}
