package handlers

import (
	"github.com/gin-gonic/gin"

	"distribuidora/internal/domain/documents/dispatch"
	"distribuidora/internal/infrastructure/http/v1/dto"
)

// DispatchHandler handles the route dispatch lifecycle and returns.
type DispatchHandler struct {
	*BaseHandler
	service *dispatch.Service
}

// NewDispatchHandler creates a new dispatch handler.
func NewDispatchHandler(base *BaseHandler, service *dispatch.Service) *DispatchHandler {
	return &DispatchHandler{
		BaseHandler: base,
		service:     service,
	}
}

// List handles GET /dispatches
func (h *DispatchHandler) List(c *gin.Context) {
	var req dto.DispatchListRequest
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

// Create handles POST /dispatches
func (h *DispatchHandler) Create(c *gin.Context) {
	var req dto.CreateDispatchRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}
	d, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, d)
}

// Get handles GET /dispatches/:id
func (h *DispatchHandler) Get(c *gin.Context) {
	dispatchID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	d, err := h.service.GetByID(c.Request.Context(), dispatchID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, d)
}

// RecordSale handles POST /dispatches/:id/sales
func (h *DispatchHandler) RecordSale(c *gin.Context) {
	dispatchID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.DispatchSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}
	s, d, err := h.service.RecordSale(c.Request.Context(), dispatchID, in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.DispatchSaleResponse{Sale: s, Dispatch: d})
}

// RecordVisit handles POST /dispatches/:id/visits
func (h *DispatchHandler) RecordVisit(c *gin.Context) {
	dispatchID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.DispatchVisitRequest
	if !h.BindJSON(c, &req) {
		return
	}
	customerID, err := dto.ParseID("customerId", req.CustomerID)
	if err != nil {
		h.Error(c, err)
		return
	}
	d, err := h.service.RecordVisit(c.Request.Context(), dispatchID, customerID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, d)
}

// RecordReturn handles POST /dispatches/:id/returns
func (h *DispatchHandler) RecordReturn(c *gin.Context) {
	dispatchID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.DispatchReturnRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}
	ret, d, err := h.service.RecordReturn(c.Request.Context(), dispatchID, in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.DispatchReturnResponse{Return: ret, Dispatch: d})
}

// Reload handles POST /dispatches/:id/reload
func (h *DispatchHandler) Reload(c *gin.Context) {
	dispatchID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.DispatchReloadRequest
	if !h.BindJSON(c, &req) {
		return
	}
	lines, err := req.ToLines()
	if err != nil {
		h.Error(c, err)
		return
	}
	d, err := h.service.Reload(c.Request.Context(), dispatchID, lines)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, d)
}

// Cancel handles POST /dispatches/:id/cancel
func (h *DispatchHandler) Cancel(c *gin.Context) {
	dispatchID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	d, err := h.service.Cancel(c.Request.Context(), dispatchID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, d)
}

// ListReturns handles GET /returns
func (h *DispatchHandler) ListReturns(c *gin.Context) {
	var req dto.ReturnListRequest
	if !h.BindQuery(c, &req) {
		return
	}
	result, err := h.service.ListReturns(c.Request.Context(), req.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// ApproveReturn handles POST /returns/:id/approve
func (h *DispatchHandler) ApproveReturn(c *gin.Context) {
	returnID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	ret, err := h.service.ApproveReturn(c.Request.Context(), returnID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, ret)
}
