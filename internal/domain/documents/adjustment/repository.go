package adjustment

import (
	"context"

	"distribuidora/internal/core/id"
	"distribuidora/internal/domain"
)

// Repository defines persistence for adjustments.
type Repository interface {
	Create(ctx context.Context, a *Adjustment) error
	Update(ctx context.Context, a *Adjustment) error
	GetByID(ctx context.Context, adjustmentID id.ID) (*Adjustment, error)
	GetForUpdate(ctx context.Context, adjustmentID id.ID) (*Adjustment, error)
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Adjustment], error)
}
