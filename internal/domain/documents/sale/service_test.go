package sale_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"distribuidora/internal/core/apperror"
	"distribuidora/internal/core/folio"
	"distribuidora/internal/core/id"
	"distribuidora/internal/core/tenant"
	"distribuidora/internal/core/types"
	"distribuidora/internal/domain"
	"distribuidora/internal/domain/catalogs/customer"
	"distribuidora/internal/domain/documents/sale"
	"distribuidora/internal/domain/domaintest"
)

func counterSale(productID id.ID, qty float64) sale.CreateInput {
	return sale.CreateInput{
		Payment: sale.PaymentCash,
		Lines:   []sale.LineInput{{ProductID: productID, Quantity: domaintest.Qty(qty)}},
	}
}

func TestCreate_DoneDebitsStock(t *testing.T) {
	f := domaintest.NewFixture(domaintest.Options{})
	ctx := domaintest.Ctx(tenant.Uruapan, "ana")
	p := f.Product(t, ctx, "hielo", 20, "25")

	s, err := f.Sales.Create(ctx, counterSale(p.ID, 3))
	require.NoError(t, err)

	assert.Equal(t, sale.KindCounter, s.Kind)
	assert.Equal(t, sale.StatusDone, s.Status)
	assert.Equal(t, "M-1", s.Folio)
	assert.Equal(t, "ANA", s.Seller)
	assert.True(t, s.Amount.Equal(types.MustMoney("75")))
	assert.Equal(t, 17.0, f.Quantity(p.ID))
}

func TestCreate_PendingLeavesStock(t *testing.T) {
	f := domaintest.NewFixture(domaintest.Options{})
	ctx := domaintest.Ctx(tenant.Uruapan, "ana")
	p := f.Product(t, ctx, "hielo", 20, "25")

	in := counterSale(p.ID, 3)
	in.Status = sale.StatusPending
	_, err := f.Sales.Create(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, 20.0, f.Quantity(p.ID))
}

func TestCreate_InsufficientStockRollsBack(t *testing.T) {
	f := domaintest.NewFixture(domaintest.Options{})
	ctx := domaintest.Ctx(tenant.Uruapan, "ana")
	a := f.Product(t, ctx, "hielo", 20, "25")
	b := f.Product(t, ctx, "agua", 1, "15")

	_, err := f.Sales.Create(ctx, sale.CreateInput{
		Payment: sale.PaymentCash,
		Lines: []sale.LineInput{
			{ProductID: a.ID, Quantity: domaintest.Qty(5)},
			{ProductID: b.ID, Quantity: domaintest.Qty(2)},
		},
	})
	assert.True(t, apperror.IsInsufficientStock(err))
	assert.Equal(t, 20.0, f.Quantity(a.ID))
	assert.Equal(t, 1.0, f.Quantity(b.ID))
	assert.Equal(t, 0, f.Store.Counts()["sales"])

	// the failed attempt consumed no folio
	s, err := f.Sales.Create(ctx, counterSale(a.ID, 1))
	require.NoError(t, err)
	assert.Equal(t, "M-1", s.Folio)
}

func TestCreate_AmountAppliesDiscountAfterSum(t *testing.T) {
	f := domaintest.NewFixture(domaintest.Options{})
	ctx := domaintest.Ctx(tenant.Uruapan, "ana")
	a := f.Product(t, ctx, "hielo", 20, "10.50")
	b := f.Product(t, ctx, "agua", 20, "3.25")

	s, err := f.Sales.Create(ctx, sale.CreateInput{
		Payment:  sale.PaymentCash,
		Discount: 10,
		Lines: []sale.LineInput{
			{ProductID: a.ID, Quantity: domaintest.Qty(2)},
			{ProductID: b.ID, Quantity: domaintest.Qty(3)},
		},
	})
	require.NoError(t, err)
	// (21.00 + 9.75) * 0.90
	assert.Equal(t, "27.68", s.Amount.StringFixed(2))
}

func TestCreate_PriceResolution(t *testing.T) {
	f := domaintest.NewFixture(domaintest.Options{})
	ctx := domaintest.Ctx(tenant.Uruapan, "ana")
	p := f.Product(t, ctx, "hielo", 20, "25")
	c := f.Customer(t, ctx, "abarrotes lupita", customer.PaymentCash)

	_, err := f.Customers.SetPrice(ctx, c.ID, p.ID, types.MustMoney("22"))
	require.NoError(t, err)

	in := counterSale(p.ID, 1)
	in.CustomerID = &c.ID
	s, err := f.Sales.Create(ctx, in)
	require.NoError(t, err)
	assert.True(t, s.Lines[0].Price.Equal(types.MustMoney("22")))
	assert.Equal(t, "ABARROTES LUPITA", s.CustomerName)

	explicit := types.MustMoney("20")
	in.Lines[0].Price = &explicit
	s, err = f.Sales.Create(ctx, in)
	require.NoError(t, err)
	assert.True(t, s.Lines[0].Price.Equal(explicit))

	s, err = f.Sales.Create(ctx, counterSale(p.ID, 1))
	require.NoError(t, err)
	assert.True(t, s.Lines[0].Price.Equal(types.MustMoney("25")))
}

func TestCreate_CreditRequiresCreditCustomer(t *testing.T) {
	f := domaintest.NewFixture(domaintest.Options{})
	ctx := domaintest.Ctx(tenant.Uruapan, "ana")
	p := f.Product(t, ctx, "hielo", 20, "25")
	cash := f.Customer(t, ctx, "contado", customer.PaymentCash)
	credit := f.Customer(t, ctx, "credito", customer.PaymentCredit)

	in := counterSale(p.ID, 1)
	in.Payment = sale.PaymentCredit
	_, err := f.Sales.Create(ctx, in)
	assert.True(t, apperror.IsValidation(err))

	in.CustomerID = &cash.ID
	_, err = f.Sales.Create(ctx, in)
	assert.True(t, apperror.IsValidation(err))

	in.CustomerID = &credit.ID
	_, err = f.Sales.Create(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, 19.0, f.Quantity(p.ID))
}

func TestCreate_RouteKindNeedsDispatch(t *testing.T) {
	f := domaintest.NewFixture(domaintest.Options{})
	ctx := domaintest.Ctx(tenant.Uruapan, "ana")
	p := f.Product(t, ctx, "hielo", 20, "25")

	in := counterSale(p.ID, 1)
	in.Kind = sale.KindRoute
	_, err := f.Sales.Create(ctx, in)
	assert.True(t, apperror.IsValidation(err))
}

func TestCreate_SharedFolioMode(t *testing.T) {
	f := domaintest.NewFixture(domaintest.Options{SaleMode: folio.SaleModeShared})
	ctx := domaintest.Ctx(tenant.Uruapan, "ana")
	p := f.Product(t, ctx, "hielo", 20, "25")

	first, err := f.Sales.Create(ctx, counterSale(p.ID, 1))
	require.NoError(t, err)
	second, err := f.Sales.Create(ctx, counterSale(p.ID, 1))
	require.NoError(t, err)
	assert.Equal(t, "1", first.Folio)
	assert.Equal(t, "2", second.Folio)
}

func TestCreate_FoliosPerTenant(t *testing.T) {
	f := domaintest.NewFixture(domaintest.Options{})
	uru := domaintest.Ctx(tenant.Uruapan, "ana")
	laz := domaintest.Ctx(tenant.Lazaro, "luis")
	pu := f.Product(t, uru, "hielo", 20, "25")
	pl := f.Product(t, laz, "hielo", 20, "25")

	_, err := f.Sales.Create(uru, counterSale(pu.ID, 1))
	require.NoError(t, err)
	s, err := f.Sales.Create(laz, counterSale(pl.ID, 1))
	require.NoError(t, err)
	assert.Equal(t, "M-1", s.Folio)

	// products of another city are invisible
	_, err = f.Sales.Create(laz, counterSale(pu.ID, 1))
	assert.True(t, apperror.IsNotFound(err))
}

// Stock 100, sale of 10 DONE, cancel, then an attempt to revive it.
func TestChangeStatus_ReplaysStockEffect(t *testing.T) {
	f := domaintest.NewFixture(domaintest.Options{})
	ctx := domaintest.Ctx(tenant.Uruapan, "ana")
	p := f.Product(t, ctx, "hielo", 100, "25")

	s, err := f.Sales.Create(ctx, counterSale(p.ID, 10))
	require.NoError(t, err)
	assert.Equal(t, 90.0, f.Quantity(p.ID))

	report, err := f.Sales.ChangeStatus(ctx, s.ID, sale.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, 100.0, f.Quantity(p.ID))
	assert.Equal(t, sale.StatusDone, report.Status.Before)
	assert.Equal(t, sale.StatusCancelled, report.Status.After)
	require.Len(t, report.Products, 1)
	assert.Equal(t, "HIELO", report.Products[0].Name)
	assert.Equal(t, 90.0, report.Products[0].Before.Float64())
	assert.Equal(t, 100.0, report.Products[0].After.Float64())

	cancelled, err := f.Sales.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, cancelled.Amount.IsZero())
	assert.Len(t, cancelled.Lines, 1)

	_, err = f.Sales.ChangeStatus(ctx, s.ID, sale.StatusDone)
	assert.True(t, apperror.IsConflict(err))
	assert.Equal(t, 100.0, f.Quantity(p.ID))
}

func TestChangeStatus_CancelledCounterSaleStaysCancelled(t *testing.T) {
	f := domaintest.NewFixture(domaintest.Options{})
	ctx := domaintest.Ctx(tenant.Uruapan, "ana")
	p := f.Product(t, ctx, "hielo", 100, "25")

	s, err := f.Sales.Create(ctx, counterSale(p.ID, 10))
	require.NoError(t, err)
	_, err = f.Sales.ChangeStatus(ctx, s.ID, sale.StatusCancelled)
	require.NoError(t, err)
	movements := len(f.Store.Movements())

	for cycle := 0; cycle < 3; cycle++ {
		_, err = f.Sales.ChangeStatus(ctx, s.ID, sale.StatusDone)
		assert.True(t, apperror.IsConflict(err), "cycle %d", cycle)
		_, err = f.Sales.ChangeStatus(ctx, s.ID, sale.StatusPending)
		assert.True(t, apperror.IsConflict(err), "cycle %d", cycle)

		// cancelling again is a no-op
		report, err := f.Sales.ChangeStatus(ctx, s.ID, sale.StatusCancelled)
		require.NoError(t, err)
		assert.Empty(t, report.Products)

		assert.Equal(t, 100.0, f.Quantity(p.ID), "cycle %d", cycle)
	}
	assert.Len(t, f.Store.Movements(), movements)

	got, err := f.Sales.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, sale.StatusCancelled, got.Status)
	assert.True(t, got.Amount.IsZero())
}

func TestChangeStatus_PendingCancelledCannotBecomeDone(t *testing.T) {
	f := domaintest.NewFixture(domaintest.Options{})
	ctx := domaintest.Ctx(tenant.Uruapan, "ana")
	p := f.Product(t, ctx, "hielo", 100, "25")

	in := counterSale(p.ID, 10)
	in.Status = sale.StatusPending
	s, err := f.Sales.Create(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, 100.0, f.Quantity(p.ID))

	_, err = f.Sales.ChangeStatus(ctx, s.ID, sale.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, 100.0, f.Quantity(p.ID))

	_, err = f.Sales.ChangeStatus(ctx, s.ID, sale.StatusDone)
	assert.True(t, apperror.IsConflict(err))
	_, err = f.Sales.ChangeStatus(ctx, s.ID, sale.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, 100.0, f.Quantity(p.ID))
}

func TestChangeStatus_SameStatusIsNoop(t *testing.T) {
	f := domaintest.NewFixture(domaintest.Options{})
	ctx := domaintest.Ctx(tenant.Uruapan, "ana")
	p := f.Product(t, ctx, "hielo", 100, "25")

	s, err := f.Sales.Create(ctx, counterSale(p.ID, 10))
	require.NoError(t, err)
	movements := len(f.Store.Movements())

	report, err := f.Sales.ChangeStatus(ctx, s.ID, sale.StatusDone)
	require.NoError(t, err)
	assert.Empty(t, report.Products)
	assert.Len(t, f.Store.Movements(), movements)
	assert.Equal(t, 90.0, f.Quantity(p.ID))
}

func TestChangeStatus_InsufficientStockKeepsStatus(t *testing.T) {
	f := domaintest.NewFixture(domaintest.Options{})
	ctx := domaintest.Ctx(tenant.Uruapan, "ana")
	p := f.Product(t, ctx, "hielo", 10, "25")

	in := counterSale(p.ID, 8)
	in.Status = sale.StatusPending
	pending, err := f.Sales.Create(ctx, in)
	require.NoError(t, err)

	_, err = f.Sales.Create(ctx, counterSale(p.ID, 5))
	require.NoError(t, err)

	_, err = f.Sales.ChangeStatus(ctx, pending.ID, sale.StatusDone)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
	assert.Equal(t, "HIELO", appErr.Details["product_name"])

	still, err := f.Sales.GetByID(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, sale.StatusPending, still.Status)
	assert.Equal(t, 5.0, f.Quantity(p.ID))
}

func TestChangeStatus_InvalidStatus(t *testing.T) {
	f := domaintest.NewFixture(domaintest.Options{})
	ctx := domaintest.Ctx(tenant.Uruapan, "ana")

	_, err := f.Sales.ChangeStatus(ctx, id.New(), "LOST")
	assert.True(t, apperror.IsValidation(err))

	_, err = f.Sales.ChangeStatus(ctx, id.New(), sale.StatusDone)
	assert.True(t, apperror.IsNotFound(err))
}

func TestList_Orderings(t *testing.T) {
	f := domaintest.NewFixture(domaintest.Options{})
	ctx := domaintest.Ctx(tenant.Uruapan, "ana")
	p := f.Product(t, ctx, "hielo", 100, "25")

	for _, name := range []string{"zapata", "benito", "morelos"} {
		c := f.Customer(t, ctx, name, customer.PaymentCash)
		in := counterSale(p.ID, 1)
		in.CustomerID = &c.ID
		_, err := f.Sales.Create(ctx, in)
		require.NoError(t, err)
	}

	res, err := f.Sales.List(ctx, domain.DefaultListFilter(), sale.OrderCustomer)
	require.NoError(t, err)
	require.Len(t, res.Items, 3)
	assert.Equal(t, "BENITO", res.Items[0].CustomerName)
	assert.Equal(t, "ZAPATA", res.Items[2].CustomerName)

	_, err = f.Sales.List(ctx, domain.DefaultListFilter(), "cheapest")
	assert.True(t, apperror.IsValidation(err))
}

func TestOrderBy(t *testing.T) {
	got, err := sale.OrderBy("")
	require.NoError(t, err)
	assert.Equal(t, "-created_at", got)

	got, err = sale.OrderBy(sale.OrderOldest)
	require.NoError(t, err)
	assert.Equal(t, "created_at", got)
}

func TestChangeStatus_PendingDoneCancelledNetsZero(t *testing.T) {
	f := domaintest.NewFixture(domaintest.Options{})
	ctx := domaintest.Ctx(tenant.Uruapan, "ana")
	a := f.Product(t, ctx, "hielo", 50, "25")
	b := f.Product(t, ctx, "agua", 50, "15")

	s, err := f.Sales.Create(ctx, sale.CreateInput{
		Payment: sale.PaymentCash,
		Status:  sale.StatusPending,
		Lines: []sale.LineInput{
			{ProductID: a.ID, Quantity: domaintest.Qty(4)},
			{ProductID: b.ID, Quantity: domaintest.Qty(6)},
		},
	})
	require.NoError(t, err)
	assert.True(t, s.Amount.Equal(types.MustMoney("190")))

	_, err = f.Sales.ChangeStatus(ctx, s.ID, sale.StatusDone)
	require.NoError(t, err)
	assert.Equal(t, 46.0, f.Quantity(a.ID))
	assert.Equal(t, 44.0, f.Quantity(b.ID))

	report, err := f.Sales.ChangeStatus(ctx, s.ID, sale.StatusCancelled)
	require.NoError(t, err)
	assert.Len(t, report.Products, 2)
	assert.Equal(t, 50.0, f.Quantity(a.ID))
	assert.Equal(t, 50.0, f.Quantity(b.ID))

	got, err := f.Sales.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, got.Amount.IsZero())
	assert.Equal(t, sale.StatusCancelled, got.Status)
}
