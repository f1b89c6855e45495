package handlers

import (
	"github.com/gin-gonic/gin"

	"distribuidora/internal/domain/documents/sale"
	"distribuidora/internal/infrastructure/http/v1/dto"
)

// SaleHandler handles counter and route sales.
type SaleHandler struct {
	*BaseHandler
	service *sale.Service
}

// NewSaleHandler creates a new sale handler.
func NewSaleHandler(base *BaseHandler, service *sale.Service) *SaleHandler {
	return &SaleHandler{
		BaseHandler: base,
		service:     service,
	}
}

// List handles GET /sales
func (h *SaleHandler) List(c *gin.Context) {
	var req dto.SaleListRequest
	if !h.BindQuery(c, &req) {
		return
	}
	result, err := h.service.List(c.Request.Context(), req.ToFilter(), req.Ordering)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Create handles POST /sales
func (h *SaleHandler) Create(c *gin.Context) {
	var req dto.CreateSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}
	s, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, s)
}

// Get handles GET /sales/:id
func (h *SaleHandler) Get(c *gin.Context) {
	saleID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	s, err := h.service.GetByID(c.Request.Context(), saleID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, s)
}

// ChangeStatus handles PUT /sales/:id/status
func (h *SaleHandler) ChangeStatus(c *gin.Context) {
	saleID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.ChangeSaleStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}
	report, err := h.service.ChangeStatus(c.Request.Context(), saleID, sale.Status(dto.Upper(req.Status)))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, report)
}
