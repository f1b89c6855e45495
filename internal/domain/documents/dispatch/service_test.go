package dispatch_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"distribuidora/internal/core/apperror"
	"distribuidora/internal/core/id"
	"distribuidora/internal/core/tenant"
	"distribuidora/internal/domain/catalogs/customer"
	"distribuidora/internal/domain/catalogs/product"
	"distribuidora/internal/domain/documents/dispatch"
	"distribuidora/internal/domain/documents/sale"
	"distribuidora/internal/domain/domaintest"
)

type world struct {
	f   *domaintest.Fixture
	ctx context.Context
	p   *product.Product
	c1  *customer.Customer
	c2  *customer.Customer
}

// newWorld has product HIELO with stock 100 and two cash customers.
func newWorld(t *testing.T, opts domaintest.Options) *world {
	t.Helper()
	f := domaintest.NewFixture(opts)
	ctx := domaintest.Ctx(tenant.Uruapan, "ana")
	return &world{
		f:   f,
		ctx: ctx,
		p:   f.Product(t, ctx, "hielo", 100, "25"),
		c1:  f.Customer(t, ctx, "abarrotes lupita", customer.PaymentCash),
		c2:  f.Customer(t, ctx, "tienda el sol", customer.PaymentCash),
	}
}

func (w *world) load(t *testing.T, qty float64, customers ...id.ID) *dispatch.Dispatch {
	t.Helper()
	d, err := w.f.Dispatches.Create(w.ctx, dispatch.CreateInput{
		Products:    []dispatch.LineInput{{ProductID: w.p.ID, Quantity: domaintest.Qty(qty)}},
		CustomerIDs: customers,
	})
	require.NoError(t, err)
	return d
}

func (w *world) sell(t *testing.T, d *dispatch.Dispatch, c id.ID, qty float64) *dispatch.Dispatch {
	t.Helper()
	_, got, err := w.f.Dispatches.RecordSale(w.ctx, d.ID, dispatch.SaleInput{
		CustomerID: c,
		Payment:    sale.PaymentCash,
		Lines:      []sale.LineInput{{ProductID: w.p.ID, Quantity: domaintest.Qty(qty)}},
	})
	require.NoError(t, err)
	return got
}

func TestCreate_DebitsWarehouse(t *testing.T) {
	w := newWorld(t, domaintest.Options{})

	d := w.load(t, 20, w.c1.ID, w.c2.ID)

	assert.Equal(t, 80.0, w.f.Quantity(w.p.ID))
	assert.Equal(t, dispatch.StatusPending, d.Status)
	assert.Equal(t, "1", d.Folio)
	assert.Equal(t, "ANA", d.Attendant)
	require.Len(t, d.Products, 1)
	assert.Equal(t, 20.0, d.Products[0].Remaining.Float64())
	assert.Equal(t, 20.0, d.Products[0].Loaded.Float64())
	assert.Equal(t, dispatch.ProductLoaded, d.Products[0].Status)
	assert.Equal(t, "HIELO", d.Products[0].ProductName)
	require.Len(t, d.Customers, 2)
	for _, c := range d.Customers {
		assert.Equal(t, dispatch.CustomerPending, c.Status)
	}

	stored, err := w.f.Dispatches.GetByID(w.ctx, d.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Products, 1)
	assert.Len(t, stored.Customers, 2)
}

func TestCreate_InsufficientStockPersistsNothing(t *testing.T) {
	w := newWorld(t, domaintest.Options{})

	_, err := w.f.Dispatches.Create(w.ctx, dispatch.CreateInput{
		Products: []dispatch.LineInput{{ProductID: w.p.ID, Quantity: domaintest.Qty(101)}},
	})
	assert.True(t, apperror.IsInsufficientStock(err))
	assert.Equal(t, 100.0, w.f.Quantity(w.p.ID))

	counts := w.f.Store.Counts()
	assert.Zero(t, counts["dispatches"])
	assert.Zero(t, counts["dispatch_products"])
	assert.Zero(t, counts["dispatch_customers"])
}

func TestCreate_Validation(t *testing.T) {
	w := newWorld(t, domaintest.Options{})

	_, err := w.f.Dispatches.Create(w.ctx, dispatch.CreateInput{})
	assert.True(t, apperror.IsValidation(err))

	_, err = w.f.Dispatches.Create(w.ctx, dispatch.CreateInput{
		Products: []dispatch.LineInput{
			{ProductID: w.p.ID, Quantity: domaintest.Qty(1)},
			{ProductID: w.p.ID, Quantity: domaintest.Qty(2)},
		},
	})
	assert.True(t, apperror.IsValidation(err))

	_, err = w.f.Dispatches.Create(w.ctx, dispatch.CreateInput{
		Products:    []dispatch.LineInput{{ProductID: w.p.ID, Quantity: domaintest.Qty(1)}},
		CustomerIDs: []id.ID{id.New()},
	})
	assert.True(t, apperror.IsNotFound(err))
	assert.Equal(t, 100.0, w.f.Quantity(w.p.ID))
}

func TestCreate_FromRouteDay(t *testing.T) {
	w := newWorld(t, domaintest.Options{})
	carrier := w.f.Carrier(t, w.ctx, "pedro")

	r, err := w.f.Routes.Create(w.ctx, "centro", &carrier.ID)
	require.NoError(t, err)
	require.Len(t, r.Days, 7)
	monday := r.Days[0]

	sub, err := w.f.Customers.Create(w.ctx, customer.CreateInput{
		Name:        "cremeria juarez",
		RouteDayIDs: []id.ID{monday.ID},
	})
	require.NoError(t, err)

	d, err := w.f.Dispatches.Create(w.ctx, dispatch.CreateInput{
		RouteDayID: &monday.ID,
		Products:   []dispatch.LineInput{{ProductID: w.p.ID, Quantity: domaintest.Qty(10)}},
	})
	require.NoError(t, err)

	assert.Equal(t, "CENTRO", d.RouteName)
	require.NotNil(t, d.CarrierID)
	assert.Equal(t, carrier.ID, *d.CarrierID)
	assert.Equal(t, "PEDRO", d.CarrierName)
	require.Len(t, d.Customers, 1)
	assert.Equal(t, sub.ID, *d.Customers[0].CustomerID)
}

func TestCreate_RouteCustomerAddedVisited(t *testing.T) {
	w := newWorld(t, domaintest.Options{RouteCustomer: "ruta"})
	rc := w.f.Customer(t, w.ctx, "ruta", customer.PaymentCash)

	d := w.load(t, 10, w.c1.ID, rc.ID)

	require.Len(t, d.Customers, 2)
	byID := map[id.ID]*dispatch.Customer{}
	for _, c := range d.Customers {
		byID[*c.CustomerID] = c
	}
	assert.Equal(t, dispatch.CustomerVisited, byID[rc.ID].Status)
	assert.NotNil(t, byID[rc.ID].VisitedAt)
	assert.Equal(t, dispatch.CustomerPending, byID[w.c1.ID].Status)
}

func TestCreate_FoliosPerTenant(t *testing.T) {
	w := newWorld(t, domaintest.Options{})
	first := w.load(t, 1)
	second := w.load(t, 1)
	assert.Equal(t, "1", first.Folio)
	assert.Equal(t, "2", second.Folio)

	laz := domaintest.Ctx(tenant.Lazaro, "luis")
	p := w.f.Product(t, laz, "hielo", 5, "25")
	d, err := w.f.Dispatches.Create(laz, dispatch.CreateInput{
		Products: []dispatch.LineInput{{ProductID: p.ID, Quantity: domaintest.Qty(1)}},
	})
	require.NoError(t, err)
	assert.Equal(t, "1", d.Folio)

	_, err = w.f.Dispatches.GetByID(laz, first.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestRecordSale_CompletesDispatch(t *testing.T) {
	w := newWorld(t, domaintest.Options{})
	d := w.load(t, 20, w.c1.ID, w.c2.ID)

	_, err := w.f.Dispatches.RecordVisit(w.ctx, d.ID, w.c1.ID)
	require.NoError(t, err)

	s, got, err := w.f.Dispatches.RecordSale(w.ctx, d.ID, dispatch.SaleInput{
		CustomerID: w.c2.ID,
		Payment:    sale.PaymentCash,
		Lines:      []sale.LineInput{{ProductID: w.p.ID, Quantity: domaintest.Qty(20)}},
	})
	require.NoError(t, err)

	assert.Equal(t, sale.KindRoute, s.Kind)
	assert.Equal(t, "R-1", s.Folio)
	require.NotNil(t, s.DispatchID)
	assert.Equal(t, d.ID, *s.DispatchID)
	assert.Equal(t, dispatch.StatusCompleted, got.Status)
	assert.Equal(t, dispatch.ProductSold, got.Products[0].Status)
	assert.True(t, got.Products[0].Remaining.IsZero())

	// route sales come off the truck, not the warehouse
	assert.Equal(t, 80.0, w.f.Quantity(w.p.ID))

	_, err = w.f.Dispatches.RecordVisit(w.ctx, d.ID, w.c1.ID)
	assert.True(t, apperror.IsConflict(err))
}

func TestRecordSale_PartialMovesToProgress(t *testing.T) {
	w := newWorld(t, domaintest.Options{})
	d := w.load(t, 20, w.c1.ID, w.c2.ID)

	var fired []dispatch.Status
	w.f.Dispatches.Hooks().OnWrite(func(_ context.Context, d *dispatch.Dispatch) error {
		fired = append(fired, d.Status)
		return nil
	})

	got := w.sell(t, d, w.c1.ID, 5)
	assert.Equal(t, dispatch.StatusProgress, got.Status)
	assert.Equal(t, 15.0, got.Products[0].Remaining.Float64())
	assert.Equal(t, dispatch.ProductLoaded, got.Products[0].Status)

	got = w.sell(t, d, w.c1.ID, 5)
	assert.Equal(t, dispatch.StatusProgress, got.Status)
	assert.Equal(t, []dispatch.Status{dispatch.StatusProgress, dispatch.StatusProgress}, fired)
}

func TestRecordSale_Rejections(t *testing.T) {
	w := newWorld(t, domaintest.Options{})
	other := w.f.Product(t, w.ctx, "agua", 10, "15")
	stranger := w.f.Customer(t, w.ctx, "fuera de ruta", customer.PaymentCash)
	d := w.load(t, 20, w.c1.ID)

	sell := func(c id.ID, p id.ID, qty float64) error {
		_, _, err := w.f.Dispatches.RecordSale(w.ctx, d.ID, dispatch.SaleInput{
			CustomerID: c,
			Payment:    sale.PaymentCash,
			Lines:      []sale.LineInput{{ProductID: p, Quantity: domaintest.Qty(qty)}},
		})
		return err
	}

	assert.True(t, apperror.IsValidation(sell(stranger.ID, w.p.ID, 1)))
	assert.True(t, apperror.IsValidation(sell(w.c1.ID, other.ID, 1)))
	assert.True(t, apperror.IsInsufficientStock(sell(w.c1.ID, w.p.ID, 21)))

	stored, err := w.f.Dispatches.GetByID(w.ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, dispatch.StatusPending, stored.Status)
	assert.Equal(t, 20.0, stored.Products[0].Remaining.Float64())
	assert.Zero(t, w.f.Store.Counts()["sales"])
}

func TestRecordVisit(t *testing.T) {
	w := newWorld(t, domaintest.Options{})
	d := w.load(t, 20, w.c1.ID)

	_, err := w.f.Dispatches.RecordVisit(w.ctx, d.ID, w.c2.ID)
	assert.True(t, apperror.IsNotFound(err))

	got, err := w.f.Dispatches.RecordVisit(w.ctx, d.ID, w.c1.ID)
	require.NoError(t, err)
	// product still on the truck
	assert.Equal(t, dispatch.StatusProgress, got.Status)
	assert.Equal(t, dispatch.CustomerVisited, got.Customers[0].Status)
}

func TestRecordReturn_CompletesDispatch(t *testing.T) {
	w := newWorld(t, domaintest.Options{})
	d := w.load(t, 20, w.c1.ID)
	got := w.sell(t, d, w.c1.ID, 15)
	require.Equal(t, dispatch.StatusProgress, got.Status)

	ret, got, err := w.f.Dispatches.RecordReturn(w.ctx, d.ID, dispatch.ReturnInput{
		ProductID: w.p.ID,
		Quantity:  domaintest.Qty(5),
	})
	require.NoError(t, err)

	assert.Equal(t, 85.0, w.f.Quantity(w.p.ID))
	assert.True(t, got.Products[0].Remaining.IsZero())
	assert.Equal(t, dispatch.ProductSold, got.Products[0].Status)
	assert.Equal(t, dispatch.StatusCompleted, got.Status)
	assert.True(t, ret.Applied)
	assert.Equal(t, "HIELO", ret.ProductName)
	assert.Equal(t, "ANA", ret.ReturnedBy)

	// a completed dispatch accepts nothing else
	_, _, err = w.f.Dispatches.RecordReturn(w.ctx, d.ID, dispatch.ReturnInput{
		ProductID: w.p.ID,
		Quantity:  domaintest.Qty(1),
	})
	assert.True(t, apperror.IsConflict(err))
}

func TestRecordReturn_Rejections(t *testing.T) {
	w := newWorld(t, domaintest.Options{})
	other := w.f.Product(t, w.ctx, "agua", 10, "15")
	d := w.load(t, 5, w.c1.ID)

	_, _, err := w.f.Dispatches.RecordReturn(w.ctx, d.ID, dispatch.ReturnInput{ProductID: w.p.ID})
	assert.True(t, apperror.IsValidation(err))

	_, _, err = w.f.Dispatches.RecordReturn(w.ctx, d.ID, dispatch.ReturnInput{ProductID: other.ID, Quantity: domaintest.Qty(1)})
	assert.True(t, apperror.IsNotFound(err))

	_, _, err = w.f.Dispatches.RecordReturn(w.ctx, d.ID, dispatch.ReturnInput{ProductID: w.p.ID, Quantity: domaintest.Qty(6)})
	assert.True(t, apperror.IsInsufficientStock(err))
	assert.Equal(t, 95.0, w.f.Quantity(w.p.ID))
}

func TestApproveReturn_WithGateCreditsOnce(t *testing.T) {
	w := newWorld(t, domaintest.Options{ApproveReturns: true})
	d := w.load(t, 10, w.c1.ID)

	ret, got, err := w.f.Dispatches.RecordReturn(w.ctx, d.ID, dispatch.ReturnInput{
		ProductID:  w.p.ID,
		Quantity:   domaintest.Qty(4),
		ReturnedBy: "pedro",
	})
	require.NoError(t, err)
	assert.False(t, ret.Applied)
	assert.Equal(t, "PEDRO", ret.ReturnedBy)
	assert.Equal(t, 6.0, got.Products[0].Remaining.Float64())
	assert.Equal(t, 90.0, w.f.Quantity(w.p.ID))

	approved, err := w.f.Dispatches.ApproveReturn(domaintest.Ctx(tenant.Uruapan, "gerente"), ret.ID)
	require.NoError(t, err)
	assert.Equal(t, dispatch.ReturnDone, approved.Status)
	assert.Equal(t, "GERENTE", approved.ApprovedBy)
	assert.Equal(t, 94.0, w.f.Quantity(w.p.ID))

	_, err = w.f.Dispatches.ApproveReturn(w.ctx, ret.ID)
	assert.True(t, apperror.IsConflict(err))
	assert.Equal(t, 94.0, w.f.Quantity(w.p.ID))
}

func TestApproveReturn_WithoutGateOnlyFlipsStatus(t *testing.T) {
	w := newWorld(t, domaintest.Options{})
	d := w.load(t, 10, w.c1.ID)

	ret, _, err := w.f.Dispatches.RecordReturn(w.ctx, d.ID, dispatch.ReturnInput{
		ProductID: w.p.ID,
		Quantity:  domaintest.Qty(4),
	})
	require.NoError(t, err)
	assert.Equal(t, 94.0, w.f.Quantity(w.p.ID))

	_, err = w.f.Dispatches.ApproveReturn(w.ctx, ret.ID)
	require.NoError(t, err)
	assert.Equal(t, 94.0, w.f.Quantity(w.p.ID))
}

func TestReload(t *testing.T) {
	w := newWorld(t, domaintest.Options{})
	other := w.f.Product(t, w.ctx, "agua", 10, "15")
	d := w.load(t, 10, w.c1.ID)
	got := w.sell(t, d, w.c1.ID, 10)
	require.Equal(t, dispatch.StatusCompleted, got.Status)

	d = w.load(t, 10, w.c1.ID, w.c2.ID)
	w.sell(t, d, w.c1.ID, 10)

	got, err := w.f.Dispatches.Reload(w.ctx, d.ID, []dispatch.LineInput{
		{ProductID: w.p.ID, Quantity: domaintest.Qty(5)},
		{ProductID: other.ID, Quantity: domaintest.Qty(3)},
	})
	require.NoError(t, err)

	assert.Equal(t, dispatch.StatusProgress, got.Status)
	require.Len(t, got.Products, 2)
	assert.Equal(t, 15.0, got.Products[0].Loaded.Float64())
	assert.Equal(t, 5.0, got.Products[0].Remaining.Float64())
	assert.Equal(t, dispatch.ProductLoaded, got.Products[0].Status)
	assert.Equal(t, "AGUA", got.Products[1].ProductName)
	assert.Equal(t, 75.0, w.f.Quantity(w.p.ID))
	assert.Equal(t, 7.0, w.f.Quantity(other.ID))

	_, err = w.f.Dispatches.Reload(w.ctx, d.ID, []dispatch.LineInput{{ProductID: other.ID, Quantity: domaintest.Qty(8)}})
	assert.True(t, apperror.IsInsufficientStock(err))
	assert.Equal(t, 7.0, w.f.Quantity(other.ID))
}

func TestCancel(t *testing.T) {
	w := newWorld(t, domaintest.Options{})
	d := w.load(t, 20, w.c1.ID)
	require.Equal(t, 80.0, w.f.Quantity(w.p.ID))

	got, err := w.f.Dispatches.Cancel(w.ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, dispatch.StatusCancelled, got.Status)
	assert.Equal(t, 100.0, w.f.Quantity(w.p.ID))

	stored, err := w.f.Dispatches.GetByID(w.ctx, d.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Products)
	assert.Empty(t, stored.Customers)

	_, err = w.f.Dispatches.Cancel(w.ctx, d.ID)
	assert.True(t, apperror.IsConflict(err))
	assert.Equal(t, 100.0, w.f.Quantity(w.p.ID))
}

func TestCancel_OnlyFromPending(t *testing.T) {
	w := newWorld(t, domaintest.Options{})
	d := w.load(t, 20, w.c1.ID, w.c2.ID)
	w.sell(t, d, w.c1.ID, 5)

	_, err := w.f.Dispatches.Cancel(w.ctx, d.ID)
	assert.True(t, apperror.IsConflict(err))
	assert.Equal(t, 80.0, w.f.Quantity(w.p.ID))
}

// Warehouse plus everything still on trucks stays equal to opening stock
// plus returns already credited, minus what was sold from trucks.
func TestStockConservation(t *testing.T) {
	w := newWorld(t, domaintest.Options{})

	d1 := w.load(t, 30, w.c1.ID, w.c2.ID)
	d2 := w.load(t, 25, w.c1.ID)
	w.sell(t, d1, w.c1.ID, 12)
	w.sell(t, d2, w.c1.ID, 4)
	_, _, err := w.f.Dispatches.RecordReturn(w.ctx, d1.ID, dispatch.ReturnInput{ProductID: w.p.ID, Quantity: domaintest.Qty(8)})
	require.NoError(t, err)
	_, err = w.f.Dispatches.Reload(w.ctx, d2.ID, []dispatch.LineInput{{ProductID: w.p.ID, Quantity: domaintest.Qty(6)}})
	require.NoError(t, err)

	onTrucks := 0.0
	for _, id := range []id.ID{d1.ID, d2.ID} {
		d, err := w.f.Dispatches.GetByID(w.ctx, id)
		require.NoError(t, err)
		for _, p := range d.Products {
			onTrucks += p.Remaining.Float64()
		}
	}
	sold := 12.0 + 4.0
	assert.Equal(t, 100.0, w.f.Quantity(w.p.ID)+onTrucks+sold)
}

func TestEvaluate(t *testing.T) {
	loaded := &dispatch.Product{Status: dispatch.ProductLoaded}
	sold := &dispatch.Product{Status: dispatch.ProductSold}
	pending := &dispatch.Customer{Status: dispatch.CustomerPending}
	visited := &dispatch.Customer{Status: dispatch.CustomerVisited}

	tests := []struct {
		name      string
		current   dispatch.Status
		products  []*dispatch.Product
		customers []*dispatch.Customer
		want      dispatch.Status
	}{
		{"pending with work left", dispatch.StatusPending, []*dispatch.Product{loaded}, []*dispatch.Customer{pending}, dispatch.StatusProgress},
		{"progress with work left", dispatch.StatusProgress, []*dispatch.Product{sold}, []*dispatch.Customer{pending}, dispatch.StatusProgress},
		{"all done", dispatch.StatusProgress, []*dispatch.Product{sold}, []*dispatch.Customer{visited}, dispatch.StatusCompleted},
		{"all done from pending", dispatch.StatusPending, []*dispatch.Product{sold}, []*dispatch.Customer{visited}, dispatch.StatusCompleted},
		{"visited but product left", dispatch.StatusProgress, []*dispatch.Product{sold, loaded}, []*dispatch.Customer{visited}, dispatch.StatusProgress},
		{"cancelled stays", dispatch.StatusCancelled, []*dispatch.Product{sold}, []*dispatch.Customer{visited}, dispatch.StatusCancelled},
		{"completed stays", dispatch.StatusCompleted, []*dispatch.Product{loaded}, []*dispatch.Customer{pending}, dispatch.StatusCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := dispatch.Evaluate(tt.current, tt.products, tt.customers)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, dispatch.Evaluate(got, tt.products, tt.customers))
		})
	}
}

func TestCompletedDispatch_RejectsFurtherOperations(t *testing.T) {
	w := newWorld(t, domaintest.Options{})
	d := w.load(t, 20, w.c1.ID)
	d = w.sell(t, d, w.c1.ID, 20)
	require.Equal(t, dispatch.StatusCompleted, d.Status)
	require.Equal(t, 80.0, w.f.Quantity(w.p.ID))
	movements := len(w.f.Store.Movements())

	terminal := func(t *testing.T, err error) {
		t.Helper()
		require.True(t, apperror.IsConflict(err))
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, string(dispatch.StatusCompleted), appErr.Details["status"])
	}

	_, err := w.f.Dispatches.Reload(w.ctx, d.ID, []dispatch.LineInput{{ProductID: w.p.ID, Quantity: domaintest.Qty(5)}})
	terminal(t, err)

	_, err = w.f.Dispatches.RecordVisit(w.ctx, d.ID, w.c1.ID)
	terminal(t, err)

	_, err = w.f.Dispatches.RecordVisit(w.ctx, d.ID, w.c2.ID)
	terminal(t, err)

	_, _, err = w.f.Dispatches.RecordReturn(w.ctx, d.ID, dispatch.ReturnInput{ProductID: w.p.ID, Quantity: domaintest.Qty(1)})
	terminal(t, err)

	_, err = w.f.Dispatches.Cancel(w.ctx, d.ID)
	assert.True(t, apperror.IsConflict(err))

	assert.Equal(t, 80.0, w.f.Quantity(w.p.ID))
	assert.Len(t, w.f.Store.Movements(), movements)

	got, err := w.f.Dispatches.GetByID(w.ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, dispatch.StatusCompleted, got.Status)
	require.Len(t, got.Products, 1)
	assert.Equal(t, 20.0, got.Products[0].Loaded.Float64())
	assert.True(t, got.Products[0].Remaining.IsZero())
}
