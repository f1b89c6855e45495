package customer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"distribuidora/internal/core/apperror"
	"distribuidora/internal/core/id"
	"distribuidora/internal/core/tenant"
	"distribuidora/internal/core/types"
	"distribuidora/internal/domain/catalogs/customer"
	"distribuidora/internal/domain/domaintest"
)

func TestCreate_WithAddressPricesAndDays(t *testing.T) {
	f := domaintest.NewFixture(domaintest.Options{})
	ctx := domaintest.Ctx(tenant.Uruapan, "ana")
	hielo := f.Product(t, ctx, "hielo", 1, "40")
	agua := f.Product(t, ctx, "agua", 1, "15")
	r, err := f.Routes.Create(ctx, "centro", nil)
	require.NoError(t, err)

	c, err := f.Customers.Create(ctx, customer.CreateInput{
		Name:        "abarrotes lupita",
		Address:     &customer.Address{Street: "Morelos 12", City: "Uruapan", Phone: "4521234567"},
		RouteDayIDs: []id.ID{r.Days[0].ID, r.Days[3].ID},
		Prices:      []customer.PriceOverride{{ProductID: hielo.ID, Price: types.MustMoney("36")}},
	})
	require.NoError(t, err)
	assert.Equal(t, customer.PaymentCash, c.Payment)

	got, err := f.Customers.GetByID(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Address)
	assert.Equal(t, "Morelos 12", got.Address.Street)
	assert.ElementsMatch(t, []id.ID{r.Days[0].ID, r.Days[3].ID}, got.RouteDayIDs)

	prices, err := f.Customers.Prices(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, prices, 2)
	byProduct := map[id.ID]customer.Price{}
	for _, p := range prices {
		byProduct[p.ProductID] = p
	}
	assert.True(t, byProduct[hielo.ID].Price.Equal(types.MustMoney("36")))
	assert.True(t, byProduct[agua.ID].Price.Equal(types.MustMoney("15")))

	pct, ok := byProduct[hielo.ID].DiscountPercent()
	require.True(t, ok)
	assert.Equal(t, "10", pct.String())

	subs, err := f.Routes.DayCustomers(ctx, r.Days[3].ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "ABARROTES LUPITA", subs[0].Name)
}

func TestCreate_DuplicateNameAndValidation(t *testing.T) {
	f := domaintest.NewFixture(domaintest.Options{})
	ctx := domaintest.Ctx(tenant.Uruapan, "ana")

	_, err := f.Customers.Create(ctx, customer.CreateInput{Name: ""})
	assert.True(t, apperror.IsValidation(err))

	_, err = f.Customers.Create(ctx, customer.CreateInput{Name: "lupita", Payment: "BARTER"})
	assert.True(t, apperror.IsValidation(err))
}

func TestSetPrice(t *testing.T) {
	f := domaintest.NewFixture(domaintest.Options{})
	ctx := domaintest.Ctx(tenant.Uruapan, "ana")
	p := f.Product(t, ctx, "hielo", 1, "40")
	c := f.Customer(t, ctx, "lupita", customer.PaymentCredit)

	got, err := f.Customers.SetPrice(ctx, c.ID, p.ID, types.MustMoney("30"))
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(types.MustMoney("30")))
	assert.True(t, got.ListPrice.Equal(types.MustMoney("40")))

	_, err = f.Customers.SetPrice(ctx, c.ID, p.ID, types.MustMoney("-3"))
	assert.True(t, apperror.IsValidation(err))

	_, err = f.Customers.SetPrice(ctx, id.New(), p.ID, types.MustMoney("3"))
	assert.True(t, apperror.IsNotFound(err))
}

func TestUpdate_RouteDays(t *testing.T) {
	f := domaintest.NewFixture(domaintest.Options{})
	ctx := domaintest.Ctx(tenant.Uruapan, "ana")
	r, err := f.Routes.Create(ctx, "centro", nil)
	require.NoError(t, err)
	c, err := f.Customers.Create(ctx, customer.CreateInput{Name: "lupita", RouteDayIDs: []id.ID{r.Days[0].ID}})
	require.NoError(t, err)

	name := "lupita norte"
	got, err := f.Customers.Update(ctx, c.ID, customer.UpdateInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "LUPITA NORTE", got.Name)

	loaded, err := f.Customers.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, loaded.RouteDayIDs, 1)

	_, err = f.Customers.Update(ctx, c.ID, customer.UpdateInput{RouteDayIDs: []id.ID{}})
	require.NoError(t, err)
	loaded, err = f.Customers.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, loaded.RouteDayIDs)
}

func TestDiscountPercent(t *testing.T) {
	pct, ok := customer.DiscountPercent(types.MustMoney("25"), types.MustMoney("30"))
	require.True(t, ok)
	assert.Equal(t, "16.67", pct.String())

	_, ok = customer.DiscountPercent(types.MustMoney("25"), types.Zero())
	assert.False(t, ok)
}
