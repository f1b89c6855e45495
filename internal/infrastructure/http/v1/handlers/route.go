package handlers

import (
	"github.com/gin-gonic/gin"

	"distribuidora/internal/domain/catalogs/route"
	"distribuidora/internal/infrastructure/http/v1/dto"
)

// RouteHandler handles routes and route days.
type RouteHandler struct {
	*BaseHandler
	service *route.Service
}

// NewRouteHandler creates a new route handler.
func NewRouteHandler(base *BaseHandler, service *route.Service) *RouteHandler {
	return &RouteHandler{
		BaseHandler: base,
		service:     service,
	}
}

// List handles GET /routes
func (h *RouteHandler) List(c *gin.Context) {
	var req dto.ListRequest
	if !h.BindQuery(c, &req) {
		return
	}
	result, err := h.service.List(c.Request.Context(), req.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Create handles POST /routes
func (h *RouteHandler) Create(c *gin.Context) {
	var req dto.CreateRouteRequest
	if !h.BindJSON(c, &req) {
		return
	}
	carrierID, err := dto.ParseOptionalID("carrierId", req.CarrierID)
	if err != nil {
		h.Error(c, err)
		return
	}
	r, err := h.service.Create(c.Request.Context(), req.Name, carrierID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, r)
}

// Get handles GET /routes/:id
func (h *RouteHandler) Get(c *gin.Context) {
	routeID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	r, err := h.service.GetByID(c.Request.Context(), routeID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, r)
}

// UpdateDay handles PUT /route-days/:id
func (h *RouteHandler) UpdateDay(c *gin.Context) {
	dayID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateRouteDayRequest
	if !h.BindJSON(c, &req) {
		return
	}
	carrierID, err := dto.ParseOptionalID("carrierId", req.CarrierID)
	if err != nil {
		h.Error(c, err)
		return
	}
	day, err := h.service.SetDayCarrier(c.Request.Context(), dayID, carrierID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, day)
}

// DayCustomers handles GET /route-days/:id/customers
func (h *RouteHandler) DayCustomers(c *gin.Context) {
	dayID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	customers, err := h.service.DayCustomers(c.Request.Context(), dayID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": customers})
}
