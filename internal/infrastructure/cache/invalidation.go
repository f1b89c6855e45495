package cache

import (
	"context"

	"distribuidora/internal/domain"
)

// Cached entity names. Product lists carry stock quantities, so every
// workflow that moves stock invalidates EntityProducts.
const (
	EntityProducts  = "products"
	EntityCustomers = "customers"
)

// InvalidateOn registers a post-commit hook that drops the cached lists of
// each named entity whenever hooks fires a write.
func InvalidateOn[T any](hooks *domain.HookRegistry[T], c *ListCache, entities ...string) {
	if !c.Enabled() {
		return
	}
	hooks.OnWrite(func(ctx context.Context, _ T) error {
		for _, e := range entities {
			if err := c.Invalidate(ctx, e); err != nil {
				return err
			}
		}
		return nil
	})
}
