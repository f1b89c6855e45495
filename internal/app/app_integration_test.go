//go:build integration

package app_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"

	"distribuidora/internal/app"
	"distribuidora/internal/config"
	"distribuidora/internal/core/apperror"
	appctx "distribuidora/internal/core/context"
	"distribuidora/internal/core/id"
	"distribuidora/internal/core/tenant"
	"distribuidora/internal/core/types"
	"distribuidora/internal/domain"
	"distribuidora/internal/domain/auth"
	"distribuidora/internal/domain/catalogs/customer"
	"distribuidora/internal/domain/catalogs/product"
	"distribuidora/internal/domain/documents/dispatch"
	"distribuidora/internal/domain/documents/sale"
	"distribuidora/internal/domain/stock"
	"distribuidora/internal/infrastructure/cache"
	"distribuidora/migrations"
	"distribuidora/pkg/logger"
)

func startApp(t *testing.T) *app.App {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.Run(ctx, "postgres:16-alpine",
		tcPostgres.WithDatabase("distribuidora"),
		tcPostgres.WithUsername("distribuidora"),
		tcPostgres.WithPassword("distribuidora"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(context.Background()) })

	dsn, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(context.Background()) })

	redisURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Env:                   "test",
		DatabaseURL:           dsn,
		DBMaxConns:            10,
		StatementTimeout:      30 * time.Second,
		RedisURL:              redisURL,
		CacheTTL:              time.Minute,
		JWTSecret:             "integration-secret",
		JWTTTL:                time.Hour,
		Tenants:               "URUAPAN,LAZARO",
		FolioSaleMode:         "per_kind",
		DispatchRouteCustomer: "RUTA",
		IdempotencyEnabled:    true,
		IdempotencyTTL:        time.Hour,
	}

	a, err := app.New(ctx, cfg, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(a.Close)

	_, err = migrations.Up(ctx, a.Pool.Unwrap())
	require.NoError(t, err)
	return a
}

func managerCtx(city tenant.Key) context.Context {
	ctx := tenant.WithTenant(context.Background(), city)
	return appctx.WithUser(ctx, &appctx.UserContext{
		Tenant:      string(city),
		Username:    "gerente",
		DisplayName: "GERENTE",
		Role:        string(auth.RoleManager),
	})
}

func qty(v float64) types.Quantity { return types.NewQuantityFromFloat64(v) }

func newProduct(t *testing.T, ctx context.Context, a *app.App, name string, stockQty float64) *product.Product {
	t.Helper()
	p, err := a.Services.Products.Create(ctx, product.CreateInput{
		Name:     name,
		Price:    types.MustMoney("35"),
		Quantity: qty(stockQty),
	})
	require.NoError(t, err)
	return p
}

func stockOf(t *testing.T, ctx context.Context, a *app.App, p *product.Product) float64 {
	t.Helper()
	b, err := a.Services.Ledger.Available(ctx, p.ID)
	require.NoError(t, err)
	return b.Quantity.Float64()
}

func TestIntegration_DispatchLifecycle(t *testing.T) {
	a := startApp(t)
	ctx := managerCtx(tenant.Uruapan)
	s := a.Services

	_, err := s.Customers.Create(ctx, customer.CreateInput{Name: "RUTA", Payment: customer.PaymentCash})
	require.NoError(t, err)
	tienda, err := s.Customers.Create(ctx, customer.CreateInput{Name: "Tienda La Esquina", Payment: customer.PaymentCash})
	require.NoError(t, err)
	hielo := newProduct(t, ctx, a, "Hielo 5kg", 50)

	d, err := s.Dispatches.Create(ctx, dispatch.CreateInput{
		Products:    []dispatch.LineInput{{ProductID: hielo.ID, Quantity: qty(20)}},
		CustomerIDs: []id.ID{tienda.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, "1", d.Folio)
	assert.Equal(t, dispatch.StatusPending, d.Status)
	assert.Len(t, d.Customers, 2)
	assert.Equal(t, 30.0, stockOf(t, ctx, a, hielo))

	sold, d, err := s.Dispatches.RecordSale(ctx, d.ID, dispatch.SaleInput{
		CustomerID: tienda.ID,
		Payment:    sale.PaymentCash,
		Lines:      []sale.LineInput{{ProductID: hielo.ID, Quantity: qty(12)}},
	})
	require.NoError(t, err)
	assert.Equal(t, sale.KindRoute, sold.Kind)
	assert.Equal(t, 8.0, d.Products[0].Remaining.Float64())
	// the warehouse was debited on load, not on the route sale
	assert.Equal(t, 30.0, stockOf(t, ctx, a, hielo))

	ret, d, err := s.Dispatches.RecordReturn(ctx, d.ID, dispatch.ReturnInput{
		ProductID:  hielo.ID,
		Quantity:   qty(8),
		ReturnedBy: "REPARTIDOR",
	})
	require.NoError(t, err)
	assert.True(t, ret.Applied)
	assert.Equal(t, dispatch.StatusCompleted, d.Status)
	assert.Equal(t, 38.0, stockOf(t, ctx, a, hielo))

	_, err = s.Dispatches.Cancel(ctx, d.ID)
	require.Error(t, err)

	src := stock.SourceDispatch
	history, err := s.Ledger.History(ctx, hielo.ID, stock.MovementFilter{SourceType: &src})
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestIntegration_CancelRestoresStock(t *testing.T) {
	a := startApp(t)
	ctx := managerCtx(tenant.Lazaro)
	s := a.Services

	hielo := newProduct(t, ctx, a, "Hielo 15kg", 10)
	d, err := s.Dispatches.Create(ctx, dispatch.CreateInput{
		Products:    []dispatch.LineInput{{ProductID: hielo.ID, Quantity: qty(10)}},
		CustomerIDs: []id.ID{},
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0, stockOf(t, ctx, a, hielo))

	d, err = s.Dispatches.Cancel(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, dispatch.StatusCancelled, d.Status)
	assert.Equal(t, 10.0, stockOf(t, ctx, a, hielo))
}

func TestIntegration_ConcurrentSalesNeverOversell(t *testing.T) {
	a := startApp(t)
	ctx := managerCtx(tenant.Uruapan)
	hielo := newProduct(t, ctx, a, "Barra", 5)

	const buyers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		folios   = map[string]struct{}{}
		rejected int
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sl, err := a.Services.Sales.Create(ctx, sale.CreateInput{
				Kind:    sale.KindCounter,
				Payment: sale.PaymentCash,
				Lines:   []sale.LineInput{{ProductID: hielo.ID, Quantity: qty(1)}},
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				assert.True(t, apperror.IsInsufficientStock(err))
				rejected++
				return
			}
			folios[sl.Folio] = struct{}{}
		}()
	}
	wg.Wait()

	assert.Len(t, folios, 5)
	assert.Equal(t, buyers-5, rejected)
	assert.Equal(t, 0.0, stockOf(t, ctx, a, hielo))
}

func TestIntegration_CitiesAreIsolated(t *testing.T) {
	a := startApp(t)
	uruapan := managerCtx(tenant.Uruapan)
	lazaro := managerCtx(tenant.Lazaro)

	p := newProduct(t, uruapan, a, "Hielo 5kg", 3)

	_, err := a.Services.Products.GetByID(lazaro, p.ID)
	assert.True(t, apperror.IsNotFound(err))

	// same name is free in the other city
	newProduct(t, lazaro, a, "Hielo 5kg", 7)
}

func TestIntegration_ListCacheInvalidatedBySale(t *testing.T) {
	a := startApp(t)
	ctx := managerCtx(tenant.Uruapan)
	require.True(t, a.Lists.Enabled())

	p := newProduct(t, ctx, a, "Frappe", 10)

	loads := 0
	list := func() domain.ListResult[*product.Product] {
		res, err := cache.Fetch(ctx, a.Lists, cache.EntityProducts, "all",
			func(ctx context.Context) (domain.ListResult[*product.Product], error) {
				loads++
				return a.Services.Products.List(ctx, domain.DefaultListFilter())
			})
		require.NoError(t, err)
		return res
	}

	first := list()
	require.Len(t, first.Items, 1)
	list()
	assert.Equal(t, 1, loads)

	_, err := a.Services.Sales.Create(ctx, sale.CreateInput{
		Kind:    sale.KindCounter,
		Payment: sale.PaymentCash,
		Lines:   []sale.LineInput{{ProductID: p.ID, Quantity: qty(4)}},
	})
	require.NoError(t, err)

	after := list()
	assert.Equal(t, 2, loads)
	assert.Equal(t, 6.0, after.Items[0].Quantity.Float64())
}

func TestIntegration_IdempotencyReplay(t *testing.T) {
	a := startApp(t)
	ctx := managerCtx(tenant.Uruapan)
	store := a.Idempotency

	replay, err := store.AcquireKey(ctx, "key-1", "user-1", "POST /api/v1/sales", "hash")
	require.NoError(t, err)
	require.Nil(t, replay)

	require.NoError(t, store.CompleteKey(ctx, "key-1", 201, "application/json", map[string]string{"folio": "M-1"}))

	replay, err = store.AcquireKey(ctx, "key-1", "user-1", "POST /api/v1/sales", "hash")
	require.NoError(t, err)
	require.NotNil(t, replay)
	assert.Equal(t, 201, replay.StatusCode)
	assert.JSONEq(t, `{"folio":"M-1"}`, string(replay.Body))

	// keys are scoped per city
	replay, err = store.AcquireKey(managerCtx(tenant.Lazaro), "key-1", "user-1", "POST /api/v1/sales", "hash")
	require.NoError(t, err)
	assert.Nil(t, replay)
}
