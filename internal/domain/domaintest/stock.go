package domaintest

import (
	"context"
	"sort"

	"distribuidora/internal/core/id"
	"distribuidora/internal/domain/stock"
)

// StockRepo implements stock.Repository over product rows in the store.
type StockRepo struct {
	store *Store

	// FailSetBalances makes SetBalances fail, for rollback tests
	FailSetBalances error
}

// NewStockRepo creates a stock repository.
func NewStockRepo(store *Store) *StockRepo { return &StockRepo{store: store} }

var _ stock.Repository = (*StockRepo)(nil)

func (r *StockRepo) LockBalances(ctx context.Context, productIDs []id.ID) (map[id.ID]stock.Balance, error) {
	t, err := currentTenant(ctx)
	if err != nil {
		return nil, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	out := make(map[id.ID]stock.Balance, len(productIDs))
	for _, pid := range productIDs {
		p, ok := r.store.data.products[pid]
		if !ok || p.Tenant != t {
			continue
		}
		out[pid] = stock.Balance{ProductID: pid, Name: p.Name, Quantity: p.Quantity}
	}
	return out, nil
}

func (r *StockRepo) SetBalances(ctx context.Context, balances []stock.Balance) error {
	if r.FailSetBalances != nil {
		return r.FailSetBalances
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, b := range balances {
		p, ok := r.store.data.products[b.ProductID]
		if !ok {
			return notFound("product", b.ProductID)
		}
		p.Quantity = b.Quantity
		r.store.data.products[b.ProductID] = p
	}
	return nil
}

func (r *StockRepo) CreateMovements(ctx context.Context, movements []stock.Movement) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.data.movements = append(r.store.data.movements, movements...)
	return nil
}

func (r *StockRepo) GetMovementHistory(ctx context.Context, productID id.ID, f stock.MovementFilter) ([]stock.Movement, error) {
	t, err := currentTenant(ctx)
	if err != nil {
		return nil, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var out []stock.Movement
	for _, m := range r.store.data.movements {
		if m.Tenant != t || m.ProductID != productID {
			continue
		}
		if f.SourceType != nil && m.SourceType != *f.SourceType {
			continue
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}
