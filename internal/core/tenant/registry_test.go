package tenant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Resolve(t *testing.T) {
	r := NewRegistry("uruapan", " LAZARO ", "")

	k, err := r.Resolve("Uruapan")
	require.NoError(t, err)
	assert.Equal(t, Uruapan, k)

	_, err = r.Resolve("MORELIA")
	assert.ErrorIs(t, err, ErrTenantNotFound)

	_, err = r.Resolve("  ")
	assert.ErrorIs(t, err, ErrNoTenantInContext)

	assert.Equal(t, []Key{Lazaro, Uruapan}, r.List())
}

func TestContext(t *testing.T) {
	ctx := context.Background()
	_, err := Require(ctx)
	assert.ErrorIs(t, err, ErrNoTenantInContext)
	assert.Panics(t, func() { MustGet(ctx) })

	ctx = WithTenant(ctx, Lazaro)
	assert.Equal(t, Lazaro, MustGet(ctx))
}
