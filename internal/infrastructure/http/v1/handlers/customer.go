package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"distribuidora/internal/domain"
	"distribuidora/internal/domain/catalogs/customer"
	"distribuidora/internal/infrastructure/cache"
	"distribuidora/internal/infrastructure/http/v1/dto"
)

// CustomerHandler handles HTTP requests for customers and their prices.
type CustomerHandler struct {
	*BaseHandler
	service *customer.Service
	lists   *cache.ListCache
}

// NewCustomerHandler creates a new customer handler.
func NewCustomerHandler(base *BaseHandler, service *customer.Service, lists *cache.ListCache) *CustomerHandler {
	return &CustomerHandler{
		BaseHandler: base,
		service:     service,
		lists:       lists,
	}
}

// List handles GET /customers
func (h *CustomerHandler) List(c *gin.Context) {
	var req dto.ListRequest
	if !h.BindQuery(c, &req) {
		return
	}
	result, err := cache.Fetch(c.Request.Context(), h.lists, cache.EntityCustomers, req.CacheKey(),
		func(ctx context.Context) (domain.ListResult[*customer.Customer], error) {
			return h.service.List(ctx, req.ToFilter())
		})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Create handles POST /customers
func (h *CustomerHandler) Create(c *gin.Context) {
	var req dto.CreateCustomerRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}
	cust, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, cust)
}

// Get handles GET /customers/:id
func (h *CustomerHandler) Get(c *gin.Context) {
	customerID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	cust, err := h.service.GetByID(c.Request.Context(), customerID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, cust)
}

// Update handles PUT /customers/:id
func (h *CustomerHandler) Update(c *gin.Context) {
	customerID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateCustomerRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}
	cust, err := h.service.Update(c.Request.Context(), customerID, in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, cust)
}

// Delete handles DELETE /customers/:id
func (h *CustomerHandler) Delete(c *gin.Context) {
	customerID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), customerID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Prices handles GET /customers/:id/prices
func (h *CustomerHandler) Prices(c *gin.Context) {
	customerID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	prices, err := h.service.Prices(c.Request.Context(), customerID)
	if err != nil {
		h.Error(c, err)
		return
	}
	items := make([]dto.CustomerPriceResponse, len(prices))
	for i, p := range prices {
		items[i] = dto.FromCustomerPrice(p)
	}
	h.OK(c, gin.H{"items": items})
}

// SetPrice handles PUT /customers/:id/prices/:productId
func (h *CustomerHandler) SetPrice(c *gin.Context) {
	customerID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	productID, ok := h.PathID(c, "productId")
	if !ok {
		return
	}
	var req dto.SetPriceRequest
	if !h.BindJSON(c, &req) {
		return
	}
	price, err := h.service.SetPrice(c.Request.Context(), customerID, productID, *req.Price)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromCustomerPrice(*price))
}
