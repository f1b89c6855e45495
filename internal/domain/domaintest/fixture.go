package domaintest

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	appctx "distribuidora/internal/core/context"
	"distribuidora/internal/core/folio"
	"distribuidora/internal/core/id"
	"distribuidora/internal/core/tenant"
	"distribuidora/internal/core/types"
	"distribuidora/internal/domain/audit"
	"distribuidora/internal/domain/auth"
	"distribuidora/internal/domain/catalogs/customer"
	"distribuidora/internal/domain/catalogs/product"
	"distribuidora/internal/domain/catalogs/route"
	"distribuidora/internal/domain/documents/adjustment"
	"distribuidora/internal/domain/documents/dispatch"
	"distribuidora/internal/domain/documents/sale"
	"distribuidora/internal/domain/stock"
)

// AuditRecorder keeps audit entries in memory.
type AuditRecorder struct {
	mu      sync.Mutex
	Entries []audit.Entry
}

// Record implements audit.Recorder.
func (r *AuditRecorder) Record(_ context.Context, e audit.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Entries = append(r.Entries, e)
	return nil
}

// Options toggles the configurable behaviour of the wired services.
type Options struct {
	ApproveAdjustments bool
	ApproveReturns     bool
	SaleMode           folio.SaleMode
	RouteCustomer      string
}

// Fixture wires every domain service over one in-memory store.
type Fixture struct {
	Store     *Store
	Tx        *TxManager
	Folios    *folio.MemoryGenerator
	StockRepo *StockRepo
	Ledger    *stock.Ledger
	Audit     *AuditRecorder

	Users       *UserRepo
	Auth        *auth.Service
	Products    *product.Service
	Customers   *customer.Service
	Routes      *route.Service
	Adjustments *adjustment.Service
	Sales       *sale.Service
	Dispatches  *dispatch.Service
}

// NewFixture builds a fixture.
func NewFixture(opts Options) *Fixture {
	if opts.SaleMode == "" {
		opts.SaleMode = folio.SaleModePerKind
	}

	st := NewStore()
	f := &Fixture{
		Store:     st,
		Tx:        NewTxManager(st),
		Folios:    folio.NewMemoryGenerator(),
		StockRepo: NewStockRepo(st),
		Audit:     &AuditRecorder{},
		Users:     NewUserRepo(st),
	}
	f.Ledger = stock.NewLedger(f.StockRepo)

	productRepo := NewProductRepo(st)
	customerRepo := NewCustomerRepo(st)
	routeRepo := NewRouteRepo(st)

	f.Auth = auth.NewService(f.Users, tenant.NewRegistry(string(tenant.Uruapan), string(tenant.Lazaro)),
		auth.NewJWTService(auth.DefaultJWTConfig("test-secret")))
	f.Products = product.NewService(productRepo, customerRepo, f.Tx)
	f.Customers = customer.NewService(customerRepo, customerRepo, f.Tx)
	f.Routes = route.NewService(routeRepo, f.Auth, f.Tx)
	f.Adjustments = adjustment.NewService(NewAdjustmentRepo(st), f.Ledger, f.Tx, f.Audit,
		adjustment.Config{RequireApproval: opts.ApproveAdjustments})
	f.Sales = sale.NewService(sale.Deps{
		Repo:      NewSaleRepo(st),
		Products:  productRepo,
		Customers: customerRepo,
		Prices:    customerRepo,
		Ledger:    f.Ledger,
		Folios:    f.Folios,
		TxManager: f.Tx,
		Audit:     f.Audit,
	}, opts.SaleMode)
	f.Dispatches = dispatch.NewService(dispatch.Deps{
		Repo:      NewDispatchRepo(st),
		Ledger:    f.Ledger,
		Sales:     f.Sales,
		Customers: customerRepo,
		Routes:    f.Routes,
		Users:     f.Auth,
		Folios:    f.Folios,
		TxManager: f.Tx,
		Audit:     f.Audit,
	}, dispatch.Config{
		RouteCustomer:         opts.RouteCustomer,
		RequireReturnApproval: opts.ApproveReturns,
	})
	return f
}

// Ctx returns a context for city t acting as a cashier named name.
func Ctx(t tenant.Key, name string) context.Context {
	ctx := tenant.WithTenant(context.Background(), t)
	return appctx.WithUser(ctx, &appctx.UserContext{
		UserID:      id.New().String(),
		Tenant:      string(t),
		Username:    name,
		DisplayName: name,
		Role:        string(auth.RoleCashier),
	})
}

// Qty builds a quantity from a float.
func Qty(v float64) types.Quantity { return types.NewQuantityFromFloat64(v) }

// Product creates a product with opening stock.
func (f *Fixture) Product(t *testing.T, ctx context.Context, name string, qty float64, price string) *product.Product {
	t.Helper()
	p, err := f.Products.Create(ctx, product.CreateInput{
		Name:     name,
		Price:    types.MustMoney(price),
		Quantity: Qty(qty),
	})
	require.NoError(t, err)
	return p
}

// Customer creates a customer.
func (f *Fixture) Customer(t *testing.T, ctx context.Context, name string, payment customer.PaymentKind) *customer.Customer {
	t.Helper()
	c, err := f.Customers.Create(ctx, customer.CreateInput{Name: name, Payment: payment})
	require.NoError(t, err)
	return c
}

// Carrier creates a carrier user.
func (f *Fixture) Carrier(t *testing.T, ctx context.Context, username string) *auth.User {
	t.Helper()
	u, err := f.Auth.CreateUser(ctx, auth.CreateUserRequest{
		Username:    username,
		Password:    "repartidor-123",
		DisplayName: username,
		Role:        auth.RoleCarrier,
	})
	require.NoError(t, err)
	return u
}

// Quantity returns a product's stored quantity as a float.
func (f *Fixture) Quantity(productID id.ID) float64 {
	return types.Quantity(f.Store.Quantity(productID)).Float64()
}
