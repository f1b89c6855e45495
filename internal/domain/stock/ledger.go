package stock

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"distribuidora/internal/core/apperror"
	"distribuidora/internal/core/id"
	"distribuidora/internal/core/tenant"
	"distribuidora/internal/core/types"
	"distribuidora/pkg/logger"
)

// Ledger applies stock deltas.
//
// Apply must run inside the caller's transaction: product rows stay locked
// until it commits, so concurrent debits on the same product serialize and
// each sees the balance the previous one left.
type Ledger struct {
	repo Repository
}

// NewLedger creates a new ledger.
func NewLedger(repo Repository) *Ledger {
	return &Ledger{repo: repo}
}

// Apply locks every product touched by deltas, verifies that no balance would
// go negative and only then writes all new balances plus journal rows.
// Either every delta is applied or none is.
func (l *Ledger) Apply(ctx context.Context, src Source, deltas ...Delta) ([]Change, error) {
	merged, ids := mergeDeltas(deltas)
	if len(ids) == 0 {
		return nil, nil
	}

	balances, err := l.repo.LockBalances(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("lock balances: %w", err)
	}

	changes := make([]Change, 0, len(ids))
	for _, pid := range ids {
		b, ok := balances[pid]
		if !ok {
			return nil, apperror.NewNotFound("product", pid.String())
		}
		after := b.Quantity + merged[pid]
		if after.IsNegative() {
			return nil, apperror.NewInsufficientStock(pid.String(), merged[pid].Abs().Float64(), b.Quantity.Float64()).
				WithDetail("product_name", b.Name)
		}
		changes = append(changes, Change{ProductID: pid, Name: b.Name, Before: b.Quantity, After: after})
	}

	now := time.Now().UTC()
	t := tenant.FromContext(ctx)
	updated := make([]Balance, 0, len(changes))
	movements := make([]Movement, 0, len(changes))
	for _, c := range changes {
		if c.Before == c.After {
			continue
		}
		updated = append(updated, Balance{ProductID: c.ProductID, Name: c.Name, Quantity: c.After})
		movements = append(movements, Movement{
			ID:           id.New(),
			Tenant:       t,
			ProductID:    c.ProductID,
			ProductName:  c.Name,
			Delta:        c.After - c.Before,
			BalanceAfter: c.After,
			SourceType:   src.Type,
			SourceID:     src.ID,
			CreatedAt:    now,
		})
	}
	if len(updated) == 0 {
		return changes, nil
	}

	if err := l.repo.SetBalances(ctx, updated); err != nil {
		return nil, fmt.Errorf("set balances: %w", err)
	}
	if err := l.repo.CreateMovements(ctx, movements); err != nil {
		return nil, fmt.Errorf("create movements: %w", err)
	}

	logger.Debug(ctx, "stock applied",
		"source", string(src.Type),
		"source_id", src.ID,
		"products", len(updated),
	)
	return changes, nil
}

// Available locks productID and returns its balance.
func (l *Ledger) Available(ctx context.Context, productID id.ID) (Balance, error) {
	balances, err := l.repo.LockBalances(ctx, []id.ID{productID})
	if err != nil {
		return Balance{}, fmt.Errorf("lock balances: %w", err)
	}
	b, ok := balances[productID]
	if !ok {
		return Balance{}, apperror.NewNotFound("product", productID.String())
	}
	return b, nil
}

// History returns the movement journal for a product.
func (l *Ledger) History(ctx context.Context, productID id.ID, filter MovementFilter) ([]Movement, error) {
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	return l.repo.GetMovementHistory(ctx, productID, filter)
}

// mergeDeltas sums deltas per product and returns ids in lock order.
func mergeDeltas(deltas []Delta) (map[id.ID]types.Quantity, []id.ID) {
	merged := make(map[id.ID]types.Quantity, len(deltas))
	ids := make([]id.ID, 0, len(deltas))
	for _, d := range deltas {
		if id.IsNil(d.ProductID) {
			continue
		}
		if _, seen := merged[d.ProductID]; !seen {
			ids = append(ids, d.ProductID)
		}
		merged[d.ProductID] += d.Quantity
	}
	sort.Slice(ids, func(i, j int) bool { return bytes.Compare(ids[i][:], ids[j][:]) < 0 })
	return merged, ids
}
