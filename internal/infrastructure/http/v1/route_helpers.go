// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"distribuidora/internal/infrastructure/http/v1/middleware"
)

// DocumentRouteHandler is implemented by every document handler.
type DocumentRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
}

// CatalogRouteHandler is implemented by editable catalog handlers.
type CatalogRouteHandler interface {
	DocumentRouteHandler
	Update(c *gin.Context)
	Delete(c *gin.Context)
}

// RegisterCatalogRoutes registers CRUD routes for a catalog. Reads are open to
// every role; writes require one of writeRoles.
//
// Usage:
//
//	handler := handlers.NewProductHandler(base, services.Products, services.Ledger, lists)
//	RegisterCatalogRoutes(protected.Group("/products"), handler, "MANAGER", "CASHIER")
func RegisterCatalogRoutes(group *gin.RouterGroup, handler CatalogRouteHandler, writeRoles ...string) {
	write := middleware.RequireRole(writeRoles...)
	group.GET("", handler.List)
	group.POST("", write, handler.Create)
	group.GET("/:id", handler.Get)
	group.PUT("/:id", write, handler.Update)
	group.DELETE("/:id", write, handler.Delete)
}

// RegisterDocumentRoutes registers list, create and get for a document.
// Creation requires one of createRoles.
func RegisterDocumentRoutes(group *gin.RouterGroup, handler DocumentRouteHandler, createRoles ...string) {
	group.GET("", handler.List)
	group.POST("", middleware.RequireRole(createRoles...), handler.Create)
	group.GET("/:id", handler.Get)
}
