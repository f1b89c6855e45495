package folio

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"distribuidora/internal/core/tenant"
)

func TestSaleConfig(t *testing.T) {
	assert.Equal(t, "M-7", SaleConfig(SaleModePerKind, false).Format(7))
	assert.Equal(t, "R-7", SaleConfig(SaleModePerKind, true).Format(7))
	assert.Equal(t, "7", SaleConfig(SaleModeShared, true).Format(7))
	assert.Equal(t, KindSale, SaleConfig(SaleModeShared, false).Kind)
	assert.Equal(t, SaleModePerKind, ParseSaleMode("bogus"))
	assert.Equal(t, SaleModeShared, ParseSaleMode("shared"))
}

func TestMemoryGenerator_IndependentSequences(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGenerator()

	counter := SaleConfig(SaleModePerKind, false)
	route := SaleConfig(SaleModePerKind, true)

	n, err := g.Next(ctx, tenant.Uruapan, counter)
	require.NoError(t, err)
	assert.Equal(t, "M-1", n)

	n, _ = g.Next(ctx, tenant.Uruapan, route)
	assert.Equal(t, "R-1", n)

	n, _ = g.Next(ctx, tenant.Lazaro, counter)
	assert.Equal(t, "M-1", n)

	require.NoError(t, g.SetNext(ctx, tenant.Uruapan, KindCounterSale, 100))
	n, _ = g.Next(ctx, tenant.Uruapan, counter)
	assert.Equal(t, "M-100", n)
}
