package v1

import (
	"github.com/gin-gonic/gin"

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
	"distribuidora/internal/infrastructure/http/v1/dto"
	"distribuidora/internal/infrastructure/http/v1/handlers"
	"distribuidora/internal/infrastructure/http/v1/middleware"
	"distribuidora/internal/infrastructure/realtime"
	"distribuidora/pkg/logger"
)

const (
	roleManager = string(auth.RoleManager)
	roleCashier = string(auth.RoleCashier)
	roleCarrier = string(auth.RoleCarrier)
)

// Services groups the domain services exposed over HTTP.
type Services struct {
	Auth        *auth.Service
	Products    *product.Service
	Customers   *customer.Service
	Routes      *route.Service
	Adjustments *adjustment.Service
	Sales       *sale.Service
	Dispatches  *dispatch.Service
	Ledger      *stock.Ledger
}

// RouterConfig holds router configuration.
type RouterConfig struct {
	Logger       *logger.Logger
	Tenants      *tenant.Registry
	JWTValidator middleware.JWTValidator
	Services     Services

	// Idempotency is nil when the middleware is disabled
	Idempotency middleware.IdempotencyStore

	// Lists caches product and customer lists; nil disables caching
	Lists *cache.ListCache

	// Hub streams dispatch events; nil disables the WebSocket endpoint
	Hub *realtime.Hub

	// HealthChecks are pinged by GET /ready
	HealthChecks map[string]handlers.Pinger
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	if err := dto.RegisterValidators(cfg.Tenants); err != nil {
		return nil, err
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.HealthChecks)
	router.GET("/health", healthHandler.Live)
	router.GET("/ready", healthHandler.Ready)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.Tenant(cfg.Tenants))
	v1.GET("/health", healthHandler.Live)
	v1.GET("/ready", healthHandler.Ready)

	base := handlers.NewBaseHandler()
	authHandler := handlers.NewAuthHandler(base, cfg.Services.Auth)
	v1.POST("/auth/login", authHandler.Login)

	protected := v1.Group("")
	protected.Use(middleware.Auth(cfg.JWTValidator))
	protected.Use(middleware.RequireTenant())
	if cfg.Idempotency != nil {
		protected.Use(middleware.Idempotency(cfg.Idempotency))
	}

	protected.GET("/me", authHandler.Me)
	protected.GET("/users", middleware.RequireRole(roleManager), authHandler.ListUsers)
	protected.POST("/users", middleware.RequireRole(roleManager), authHandler.CreateUser)

	registerCatalogRoutes(protected, base, cfg)
	registerDocumentRoutes(protected, base, cfg)

	if cfg.Hub != nil {
		protected.GET("/ws/dispatches", cfg.Hub.ServeWS)
	}

	return router, nil
}

// registerCatalogRoutes registers products, customers and routes.
func registerCatalogRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	s := cfg.Services

	products := handlers.NewProductHandler(base, s.Products, s.Ledger, cfg.Lists)
	productGroup := rg.Group("/products")
	RegisterCatalogRoutes(productGroup, products, roleManager, roleCashier)
	productGroup.GET("/:id/movements", products.Movements)

	customers := handlers.NewCustomerHandler(base, s.Customers, cfg.Lists)
	customerGroup := rg.Group("/customers")
	RegisterCatalogRoutes(customerGroup, customers, roleManager, roleCashier)
	customerGroup.GET("/:id/prices", customers.Prices)
	customerGroup.PUT("/:id/prices/:productId", middleware.RequireRole(roleManager, roleCashier), customers.SetPrice)

	routes := handlers.NewRouteHandler(base, s.Routes)
	RegisterDocumentRoutes(rg.Group("/routes"), routes, roleManager)
	days := rg.Group("/route-days")
	days.PUT("/:id", middleware.RequireRole(roleManager), routes.UpdateDay)
	days.GET("/:id/customers", routes.DayCustomers)
}

// registerDocumentRoutes registers adjustments, sales, dispatches and returns.
func registerDocumentRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	s := cfg.Services
	staff := middleware.RequireRole(roleManager, roleCashier)

	adjustments := handlers.NewAdjustmentHandler(base, s.Adjustments)
	adjustmentGroup := rg.Group("/adjustments")
	RegisterDocumentRoutes(adjustmentGroup, adjustments, roleManager, roleCashier)
	adjustmentGroup.POST("/:id/approve", middleware.RequireRole(roleManager), adjustments.Approve)

	sales := handlers.NewSaleHandler(base, s.Sales)
	saleGroup := rg.Group("/sales")
	RegisterDocumentRoutes(saleGroup, sales, roleManager, roleCashier, roleCarrier)
	saleGroup.PUT("/:id/status", staff, sales.ChangeStatus)

	dispatches := handlers.NewDispatchHandler(base, s.Dispatches)
	dispatchGroup := rg.Group("/dispatches")
	RegisterDocumentRoutes(dispatchGroup, dispatches, roleManager, roleCashier)
	dispatchGroup.POST("/:id/sales", dispatches.RecordSale)
	dispatchGroup.POST("/:id/visits", dispatches.RecordVisit)
	dispatchGroup.POST("/:id/returns", dispatches.RecordReturn)
	dispatchGroup.POST("/:id/reload", staff, dispatches.Reload)
	dispatchGroup.POST("/:id/cancel", staff, dispatches.Cancel)

	returns := rg.Group("/returns")
	returns.GET("", dispatches.ListReturns)
	returns.POST("/:id/approve", middleware.RequireRole(roleManager), dispatches.ApproveReturn)
}
