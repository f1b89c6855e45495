// Package app is the composition root: it connects the storage layer, the
// domain services and the optional cache and realtime hub.
package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"distribuidora/internal/config"
	"distribuidora/internal/core/folio"
	"distribuidora/internal/core/tenant"
	"distribuidora/internal/domain/auth"
	"distribuidora/internal/domain/catalogs/customer"
	"distribuidora/internal/domain/catalogs/product"
	"distribuidora/internal/domain/catalogs/route"
	"distribuidora/internal/domain/documents/adjustment"
	"distribuidora/internal/domain/documents/dispatch"
	"distribuidora/internal/domain/documents/sale"
	"distribuidora/internal/domain/stock"
	"distribuidora/internal/infrastructure/cache"
	folioinfra "distribuidora/internal/infrastructure/folio"
	v1 "distribuidora/internal/infrastructure/http/v1"
	"distribuidora/internal/infrastructure/http/v1/handlers"
	"distribuidora/internal/infrastructure/realtime"
	"distribuidora/internal/infrastructure/storage/postgres"
	"distribuidora/internal/infrastructure/storage/postgres/auth_repo"
	"distribuidora/internal/infrastructure/storage/postgres/catalog_repo"
	"distribuidora/internal/infrastructure/storage/postgres/document_repo"
	"distribuidora/internal/infrastructure/storage/postgres/stock_repo"
	"distribuidora/pkg/logger"
)

// App holds every long-lived component of the service.
type App struct {
	Config  *config.Config
	Logger  *logger.Logger
	Tenants *tenant.Registry

	Pool        *postgres.Pool
	TxManager   *postgres.TxManager
	Redis       *redis.Client
	Lists       *cache.ListCache
	Hub         *realtime.Hub
	Idempotency *postgres.IdempotencyStore
	Folios      *folioinfra.Service
	JWT         *auth.JWTService

	Services v1.Services
}

// New connects to PostgreSQL (and Redis when configured) and wires the services.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	poolCfg.MaxConns = cfg.DBMaxConns
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	a := &App{
		Config:  cfg,
		Logger:  log,
		Tenants: tenant.NewRegistry(cfg.TenantList()...),
		Pool:    pool,
		Hub:     realtime.NewHub(),
	}
	a.TxManager = postgres.NewTxManager(pool).WithStatementTimeout(cfg.StatementTimeout)

	if cfg.RedisURL != "" {
		a.Redis, err = cache.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		log.Infow("list cache enabled", "ttl", cfg.CacheTTL)
	}
	a.Lists = cache.NewListCache(a.Redis, cfg.CacheTTL)

	if err := a.wire(cfg); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) wire(cfg *config.Config) error {
	txm := a.TxManager

	recorder, err := postgres.NewAuditService(txm)
	if err != nil {
		return fmt.Errorf("create audit service: %w", err)
	}
	a.Idempotency = postgres.NewIdempotencyStore(txm, cfg.IdempotencyTTL)
	a.Folios = folioinfra.NewWithTxManager(txm)

	jwtCfg := auth.DefaultJWTConfig(cfg.JWTSecret)
	if cfg.JWTTTL > 0 {
		jwtCfg.AccessTokenTTL = cfg.JWTTTL
	}
	a.JWT = auth.NewJWTService(jwtCfg)

	productRepo := catalog_repo.NewProductRepo(txm)
	customerRepo := catalog_repo.NewCustomerRepo(txm)
	priceRepo := catalog_repo.NewPriceRepo(txm)
	routeRepo := catalog_repo.NewRouteRepo(txm)
	ledger := stock.NewLedger(stock_repo.NewStockRepo(txm))

	s := v1.Services{Ledger: ledger}
	s.Auth = auth.NewService(auth_repo.NewUserRepo(txm), a.Tenants, a.JWT)
	s.Products = product.NewService(productRepo, priceRepo, txm)
	s.Customers = customer.NewService(customerRepo, priceRepo, txm)
	s.Routes = route.NewService(routeRepo, s.Auth, txm)
	s.Adjustments = adjustment.NewService(document_repo.NewAdjustmentRepo(txm), ledger, txm, recorder,
		adjustment.Config{RequireApproval: cfg.ApprovalAdjustments})
	s.Sales = sale.NewService(sale.Deps{
		Repo:      document_repo.NewSaleRepo(txm),
		Products:  productRepo,
		Customers: customerRepo,
		Prices:    priceRepo,
		Ledger:    ledger,
		Folios:    a.Folios,
		TxManager: txm,
		Audit:     recorder,
	}, folio.ParseSaleMode(cfg.FolioSaleMode))
	s.Dispatches = dispatch.NewService(dispatch.Deps{
		Repo:      document_repo.NewDispatchRepo(txm),
		Ledger:    ledger,
		Sales:     s.Sales,
		Customers: customerRepo,
		Routes:    s.Routes,
		Users:     s.Auth,
		Folios:    a.Folios,
		TxManager: txm,
		Audit:     recorder,
	}, dispatch.Config{
		RouteCustomer:         cfg.DispatchRouteCustomer,
		RequireReturnApproval: cfg.ApprovalReturns,
	})
	a.Services = s

	RegisterHooks(s, a.Lists, a.Hub)
	return nil
}

// RegisterHooks invalidates cached lists on every write that changes them and
// streams dispatch lifecycle events to the hub. Product lists carry the stock
// quantity, so every document that moves stock invalidates them too.
func RegisterHooks(s v1.Services, lists *cache.ListCache, hub *realtime.Hub) {
	cache.InvalidateOn(s.Products.Hooks(), lists, cache.EntityProducts)
	cache.InvalidateOn(s.Customers.Hooks(), lists, cache.EntityCustomers)
	cache.InvalidateOn(s.Adjustments.Hooks(), lists, cache.EntityProducts)
	cache.InvalidateOn(s.Sales.Hooks(), lists, cache.EntityProducts)
	cache.InvalidateOn(s.Dispatches.Hooks(), lists, cache.EntityProducts)
	cache.InvalidateOn(s.Dispatches.ReturnHooks(), lists, cache.EntityProducts)

	if hub != nil {
		realtime.BroadcastDispatches(s.Dispatches.Hooks(), hub)
	}
}

// RouterConfig returns the HTTP router configuration for this app.
func (a *App) RouterConfig() v1.RouterConfig {
	checks := map[string]handlers.Pinger{"postgres": a.Pool}
	if a.Lists.Enabled() {
		checks["redis"] = a.Lists
	}

	rc := v1.RouterConfig{
		Logger:       a.Logger,
		Tenants:      a.Tenants,
		JWTValidator: a.JWT,
		Services:     a.Services,
		Lists:        a.Lists,
		Hub:          a.Hub,
		HealthChecks: checks,
	}
	if a.Config.IdempotencyEnabled {
		rc.Idempotency = a.Idempotency
	}
	return rc
}

// Close releases connections and disconnects WebSocket clients.
func (a *App) Close() {
	if a.Hub != nil {
		a.Hub.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Warnw("close redis", "error", err)
		}
	}
	a.Pool.Close()
}
