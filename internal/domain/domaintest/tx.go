package domaintest

import (
	"context"

	"distribuidora/internal/core/tx"
)

type txKey struct{}

// TxManager runs transactions against a Store one at a time, standing in
// for row locks. A failing function restores the store to its state before
// the transaction began.
type TxManager struct {
	store *Store
}

// NewTxManager creates a transaction manager for store.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

var _ tx.Manager = (*TxManager)(nil)

// RunInTransaction implements tx.Manager. Nested calls join the outer one.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	m.store.txLock.Lock()
	defer m.store.txLock.Unlock()

	snap := m.store.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		m.store.restore(snap)
		return err
	}
	return nil
}
