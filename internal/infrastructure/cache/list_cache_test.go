package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"distribuidora/internal/core/tenant"
	"distribuidora/internal/domain"
)

func TestListCache_DisabledAlwaysLoads(t *testing.T) {
	ctx := tenant.WithTenant(context.Background(), tenant.Uruapan)

	for name, c := range map[string]*ListCache{
		"nil cache":  nil,
		"nil client": NewListCache(nil, 0),
	} {
		t.Run(name, func(t *testing.T) {
			calls := 0
			load := func(context.Context) ([]string, error) {
				calls++
				return []string{"HIELO"}, nil
			}

			for i := 0; i < 2; i++ {
				got, err := Fetch(ctx, c, EntityProducts, "q", load)
				require.NoError(t, err)
				assert.Equal(t, []string{"HIELO"}, got)
			}
			assert.Equal(t, 2, calls)
			assert.False(t, c.Enabled())
			assert.NoError(t, c.Invalidate(ctx, EntityProducts))
			assert.NoError(t, c.Ping(ctx))
		})
	}
}

func TestListCache_LoadErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	_, err := Fetch(context.Background(), NewListCache(nil, 0), EntityCustomers, "q",
		func(context.Context) (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
}

func TestKeys_ScopedByTenantAndGeneration(t *testing.T) {
	assert.Equal(t, "distribuidora:URUAPAN:products:gen", generationKey(tenant.Uruapan, EntityProducts))
	assert.Equal(t, "distribuidora:LAZARO:products:3:limit=50", pageKey(tenant.Lazaro, EntityProducts, 3, "limit=50"))
	assert.NotEqual(t,
		pageKey(tenant.Uruapan, EntityProducts, 1, "k"),
		pageKey(tenant.Lazaro, EntityProducts, 1, "k"))
}

func TestInvalidateOn_DisabledRegistersNothing(t *testing.T) {
	hooks := domain.NewHookRegistry[string]()
	InvalidateOn(hooks, NewListCache(nil, 0), EntityProducts)

	require.NoError(t, hooks.Run(context.Background(), domain.AfterCreate, "x"))
}
