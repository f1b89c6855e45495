package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"distribuidora/internal/domain"
	"distribuidora/internal/domain/catalogs/product"
	"distribuidora/internal/domain/stock"
	"distribuidora/internal/infrastructure/cache"
	"distribuidora/internal/infrastructure/http/v1/dto"
)

// ProductHandler handles HTTP requests for the product catalog.
type ProductHandler struct {
	*BaseHandler
	service *product.Service
	ledger  *stock.Ledger
	lists   *cache.ListCache
}

// NewProductHandler creates a new product handler.
func NewProductHandler(base *BaseHandler, service *product.Service, ledger *stock.Ledger, lists *cache.ListCache) *ProductHandler {
	return &ProductHandler{
		BaseHandler: base,
		service:     service,
		ledger:      ledger,
		lists:       lists,
	}
}

// List handles GET /products
func (h *ProductHandler) List(c *gin.Context) {
	var req dto.ListRequest
	if !h.BindQuery(c, &req) {
		return
	}
	result, err := cache.Fetch(c.Request.Context(), h.lists, cache.EntityProducts, req.CacheKey(),
		func(ctx context.Context) (domain.ListResult[*product.Product], error) {
			return h.service.List(ctx, req.ToFilter())
		})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Create handles POST /products
func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}
	p, err := h.service.Create(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, p)
}

// Get handles GET /products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	productID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	p, err := h.service.GetByID(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// Update handles PUT /products/:id
func (h *ProductHandler) Update(c *gin.Context) {
	productID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}
	p, err := h.service.Update(c.Request.Context(), productID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// Delete handles DELETE /products/:id
func (h *ProductHandler) Delete(c *gin.Context) {
	productID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), productID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Movements handles GET /products/:id/movements
func (h *ProductHandler) Movements(c *gin.Context) {
	productID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.StockMovementsRequest
	if !h.BindQuery(c, &req) {
		return
	}

	ctx := c.Request.Context()
	if _, err := h.service.GetByID(ctx, productID); err != nil {
		h.Error(c, err)
		return
	}
	movements, err := h.ledger.History(ctx, productID, req.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	resp := dto.StockMovementListResponse{Items: make([]dto.StockMovementResponse, len(movements))}
	for i, m := range movements {
		resp.Items[i] = dto.FromStockMovement(m)
	}
	h.OK(c, resp)
}
