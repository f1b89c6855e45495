package handlers

import (
	"github.com/gin-gonic/gin"

	"distribuidora/internal/domain/documents/adjustment"
	"distribuidora/internal/infrastructure/http/v1/dto"
)

// AdjustmentHandler handles inventory adjustments.
type AdjustmentHandler struct {
	*BaseHandler
	service *adjustment.Service
}

// NewAdjustmentHandler creates a new adjustment handler.
func NewAdjustmentHandler(base *BaseHandler, service *adjustment.Service) *AdjustmentHandler {
	return &AdjustmentHandler{
		BaseHandler: base,
		service:     service,
	}
}

// List handles GET /adjustments
func (h *AdjustmentHandler) List(c *gin.Context) {
	var req dto.AdjustmentListRequest
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

// Create handles POST /adjustments
func (h *AdjustmentHandler) Create(c *gin.Context) {
	var req dto.CreateAdjustmentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}
	a, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, a)
}

// Get handles GET /adjustments/:id
func (h *AdjustmentHandler) Get(c *gin.Context) {
	adjustmentID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	a, err := h.service.GetByID(c.Request.Context(), adjustmentID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, a)
}

// Approve handles POST /adjustments/:id/approve
func (h *AdjustmentHandler) Approve(c *gin.Context) {
	adjustmentID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	a, err := h.service.Approve(c.Request.Context(), adjustmentID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, a)
}
