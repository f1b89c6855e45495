package stock

import (
	"context"

	"distribuidora/internal/core/id"
)

// Repository defines persistence for the ledger. All methods run inside the
// caller's transaction.
type Repository interface {
	// LockBalances reads the given products with FOR UPDATE, in id order.
	// Products that do not exist in the tenant are absent from the result.
	LockBalances(ctx context.Context, productIDs []id.ID) (map[id.ID]Balance, error)

	// SetBalances writes new quantities for already locked products.
	SetBalances(ctx context.Context, balances []Balance) error

	// CreateMovements appends journal rows.
	CreateMovements(ctx context.Context, movements []Movement) error

	// GetMovementHistory returns the journal of one product, newest first.
	GetMovementHistory(ctx context.Context, productID id.ID, filter MovementFilter) ([]Movement, error)
}
