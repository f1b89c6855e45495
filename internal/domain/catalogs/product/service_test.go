package product_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"distribuidora/internal/core/apperror"
	"distribuidora/internal/core/tenant"
	"distribuidora/internal/core/types"
	"distribuidora/internal/domain"
	"distribuidora/internal/domain/catalogs/customer"
	"distribuidora/internal/domain/catalogs/product"
	"distribuidora/internal/domain/domaintest"
)

func TestCreate_SeedsCustomerPrices(t *testing.T) {
	f := domaintest.NewFixture(domaintest.Options{})
	ctx := domaintest.Ctx(tenant.Uruapan, "ana")
	c1 := f.Customer(t, ctx, "lupita", customer.PaymentCash)
	c2 := f.Customer(t, ctx, "el sol", customer.PaymentCredit)
	f.Customer(t, domaintest.Ctx(tenant.Lazaro, "luis"), "foraneo", customer.PaymentCash)

	p := f.Product(t, ctx, "  hielo en barra ", 12, "40")
	assert.Equal(t, "HIELO EN BARRA", p.Name)

	for _, c := range []*customer.Customer{c1, c2} {
		prices, err := f.Customers.Prices(ctx, c.ID)
		require.NoError(t, err)
		require.Len(t, prices, 1)
		assert.True(t, prices[0].Price.Equal(types.MustMoney("40")))
		assert.Equal(t, "HIELO EN BARRA", prices[0].ProductName)
	}
	assert.Equal(t, 2, f.Store.Counts()["customer_prices"])
}

func TestCreate_Validation(t *testing.T) {
	f := domaintest.NewFixture(domaintest.Options{})
	ctx := domaintest.Ctx(tenant.Uruapan, "ana")

	_, err := f.Products.Create(ctx, product.CreateInput{Name: " ", Price: types.MustMoney("1")})
	assert.True(t, apperror.IsValidation(err))

	_, err = f.Products.Create(ctx, product.CreateInput{Name: "hielo", Price: types.MustMoney("-1")})
	assert.True(t, apperror.IsValidation(err))
}

func TestUpdate_KeepsQuantity(t *testing.T) {
	f := domaintest.NewFixture(domaintest.Options{})
	ctx := domaintest.Ctx(tenant.Uruapan, "ana")
	p := f.Product(t, ctx, "hielo", 12, "40")

	name := "hielo molido"
	price := types.MustMoney("45")
	got, err := f.Products.Update(ctx, p.ID, product.UpdateInput{Name: &name, Price: &price})
	require.NoError(t, err)
	assert.Equal(t, "HIELO MOLIDO", got.Name)
	assert.True(t, got.Price.Equal(price))
	assert.Equal(t, 12.0, f.Quantity(p.ID))

	_, err = f.Products.Update(ctx, p.ID, product.UpdateInput{Name: &name, Version: 99})
	assert.True(t, apperror.IsConcurrentModification(err))
}

func TestList_SearchAndTenant(t *testing.T) {
	f := domaintest.NewFixture(domaintest.Options{})
	ctx := domaintest.Ctx(tenant.Uruapan, "ana")
	f.Product(t, ctx, "hielo", 1, "40")
	f.Product(t, ctx, "agua", 1, "15")
	f.Product(t, domaintest.Ctx(tenant.Lazaro, "luis"), "hielo", 1, "40")

	res, err := f.Products.List(ctx, domain.DefaultListFilter())
	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "AGUA", res.Items[0].Name)

	filter := domain.DefaultListFilter()
	filter.Search = "hie"
	res, err = f.Products.List(ctx, filter)
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.TotalCount)
}

func TestDelete(t *testing.T) {
	f := domaintest.NewFixture(domaintest.Options{})
	ctx := domaintest.Ctx(tenant.Uruapan, "ana")
	p := f.Product(t, ctx, "hielo", 1, "40")

	require.NoError(t, f.Products.Delete(ctx, p.ID))
	_, err := f.Products.GetByID(ctx, p.ID)
	assert.True(t, apperror.IsNotFound(err))
}
