package dto

import (
	"distribuidora/internal/core/id"
	"distribuidora/internal/core/types"
	"distribuidora/internal/domain"
	"distribuidora/internal/domain/documents/adjustment"
	"distribuidora/internal/domain/documents/dispatch"
	"distribuidora/internal/domain/documents/sale"
)

// --- Adjustments ---

// CreateAdjustmentRequest records a shortage, overage or production entry.
type CreateAdjustmentRequest struct {
	Warehouse    string         `json:"warehouse" binding:"max=100"`
	ProductID    string         `json:"productId" binding:"required,uuid"`
	Quantity     types.Quantity `json:"quantity" binding:"min=0"`
	Kind         string         `json:"kind" binding:"required,upper_enum=SHORTAGE OVERAGE PRODUCTION"`
	Observations string         `json:"observations" binding:"max=500"`
}

// ToInput converts to the domain input.
func (r *CreateAdjustmentRequest) ToInput() (adjustment.CreateInput, error) {
	pid, err := ParseID("productId", r.ProductID)
	if err != nil {
		return adjustment.CreateInput{}, err
	}
	return adjustment.CreateInput{
		Warehouse:    r.Warehouse,
		ProductID:    pid,
		Quantity:     r.Quantity,
		Kind:         adjustment.Kind(Upper(r.Kind)),
		Observations: r.Observations,
	}, nil
}

// AdjustmentListRequest filters adjustments.
type AdjustmentListRequest struct {
	ListRequest
	Status    string `form:"status" binding:"omitempty,upper_enum=PENDING DONE"`
	Kind      string `form:"kind" binding:"omitempty,upper_enum=SHORTAGE OVERAGE PRODUCTION"`
	ProductID string `form:"productId" binding:"omitempty,uuid"`
}

// ToFilter converts to a domain filter.
func (r AdjustmentListRequest) ToFilter() domain.ListFilter {
	f := r.ListRequest.ToFilter()
	if r.Status != "" {
		f = f.Where("status", Upper(r.Status))
	}
	if r.Kind != "" {
		f = f.Where("kind", Upper(r.Kind))
	}
	if r.ProductID != "" {
		f = f.Where("product_id", id.MustParse(r.ProductID))
	}
	return f
}

// --- Sales ---

// SaleLineRequest is one product of a sale. Without a price the customer's
// price applies, falling back to the list price.
type SaleLineRequest struct {
	ProductID string         `json:"productId" binding:"required,uuid"`
	Quantity  types.Quantity `json:"quantity" binding:"gt=0"`
	Price     *types.Money   `json:"price"`
}

func toSaleLines(lines []SaleLineRequest) ([]sale.LineInput, error) {
	out := make([]sale.LineInput, 0, len(lines))
	for _, l := range lines {
		pid, err := ParseID("productId", l.ProductID)
		if err != nil {
			return nil, err
		}
		out = append(out, sale.LineInput{ProductID: pid, Quantity: l.Quantity, Price: l.Price})
	}
	return out, nil
}

// CreateSaleRequest places a counter sale, or a route sale linked to a dispatch.
type CreateSaleRequest struct {
	CustomerID *string           `json:"customerId" binding:"omitempty,uuid"`
	Kind       string            `json:"kind" binding:"omitempty,upper_enum=COUNTER ROUTE"`
	Payment    string            `json:"payment" binding:"required,upper_enum=CASH CREDIT COURTESY"`
	Status     string            `json:"status" binding:"omitempty,upper_enum=DONE PENDING CANCELLED"`
	Discount   int               `json:"discount" binding:"min=0,max=100"`
	DispatchID *string           `json:"dispatchId" binding:"omitempty,uuid"`
	Lines      []SaleLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// ToInput converts to the domain input.
func (r *CreateSaleRequest) ToInput() (sale.CreateInput, error) {
	customerID, err := ParseOptionalID("customerId", r.CustomerID)
	if err != nil {
		return sale.CreateInput{}, err
	}
	dispatchID, err := ParseOptionalID("dispatchId", r.DispatchID)
	if err != nil {
		return sale.CreateInput{}, err
	}
	lines, err := toSaleLines(r.Lines)
	if err != nil {
		return sale.CreateInput{}, err
	}
	kind := sale.Kind(Upper(r.Kind))
	if kind == "" {
		kind = sale.KindCounter
	}
	return sale.CreateInput{
		CustomerID: customerID,
		Kind:       kind,
		Payment:    sale.Payment(Upper(r.Payment)),
		Status:     sale.Status(Upper(r.Status)),
		Discount:   r.Discount,
		DispatchID: dispatchID,
		Lines:      lines,
	}, nil
}

// ChangeSaleStatusRequest moves a sale between DONE, PENDING and CANCELLED.
type ChangeSaleStatusRequest struct {
	Status string `json:"status" binding:"required,upper_enum=DONE PENDING CANCELLED"`
}

// SaleListRequest filters sales. Ordering is one of customer, newest,
// oldest or seller.
type SaleListRequest struct {
	ListRequest
	Ordering   string `form:"ordering"`
	Status     string `form:"status" binding:"omitempty,upper_enum=DONE PENDING CANCELLED"`
	Kind       string `form:"kind" binding:"omitempty,upper_enum=COUNTER ROUTE"`
	CustomerID string `form:"customerId" binding:"omitempty,uuid"`
	DispatchID string `form:"dispatchId" binding:"omitempty,uuid"`
}

// ToFilter converts to a domain filter.
func (r SaleListRequest) ToFilter() domain.ListFilter {
	f := r.ListRequest.ToFilter()
	if r.Status != "" {
		f = f.Where("status", Upper(r.Status))
	}
	if r.Kind != "" {
		f = f.Where("kind", Upper(r.Kind))
	}
	if r.CustomerID != "" {
		f = f.Where("customer_id", id.MustParse(r.CustomerID))
	}
	if r.DispatchID != "" {
		f = f.Where("dispatch_id", id.MustParse(r.DispatchID))
	}
	return f
}

// --- Dispatches ---

// DispatchLineRequest is a product and quantity to load on the truck.
type DispatchLineRequest struct {
	ProductID string         `json:"productId" binding:"required,uuid"`
	Quantity  types.Quantity `json:"quantity" binding:"gt=0"`
}

func toDispatchLines(lines []DispatchLineRequest) ([]dispatch.LineInput, error) {
	out := make([]dispatch.LineInput, 0, len(lines))
	for _, l := range lines {
		pid, err := ParseID("productId", l.ProductID)
		if err != nil {
			return nil, err
		}
		out = append(out, dispatch.LineInput{ProductID: pid, Quantity: l.Quantity})
	}
	return out, nil
}

// CreateDispatchRequest loads a truck. Without customerIds the route day's
// subscribers are visited; without carrierId the route day's carrier drives.
type CreateDispatchRequest struct {
	RouteDayID  *string               `json:"routeDayId" binding:"omitempty,uuid"`
	CarrierID   *string               `json:"carrierId" binding:"omitempty,uuid"`
	Products    []DispatchLineRequest `json:"products" binding:"required,min=1,dive"`
	CustomerIDs []string              `json:"customerIds" binding:"omitempty,dive,uuid"`
}

// ToInput converts to the domain input.
func (r *CreateDispatchRequest) ToInput() (dispatch.CreateInput, error) {
	dayID, err := ParseOptionalID("routeDayId", r.RouteDayID)
	if err != nil {
		return dispatch.CreateInput{}, err
	}
	carrierID, err := ParseOptionalID("carrierId", r.CarrierID)
	if err != nil {
		return dispatch.CreateInput{}, err
	}
	products, err := toDispatchLines(r.Products)
	if err != nil {
		return dispatch.CreateInput{}, err
	}
	customers, err := ParseIDs("customerIds", r.CustomerIDs)
	if err != nil {
		return dispatch.CreateInput{}, err
	}
	return dispatch.CreateInput{
		RouteDayID:  dayID,
		CarrierID:   carrierID,
		Products:    products,
		CustomerIDs: customers,
	}, nil
}

// DispatchSaleRequest sells from the truck to a customer of the dispatch.
type DispatchSaleRequest struct {
	CustomerID string            `json:"customerId" binding:"required,uuid"`
	Payment    string            `json:"payment" binding:"required,upper_enum=CASH CREDIT COURTESY"`
	Discount   int               `json:"discount" binding:"min=0,max=100"`
	Lines      []SaleLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// ToInput converts to the domain input.
func (r *DispatchSaleRequest) ToInput() (dispatch.SaleInput, error) {
	cid, err := ParseID("customerId", r.CustomerID)
	if err != nil {
		return dispatch.SaleInput{}, err
	}
	lines, err := toSaleLines(r.Lines)
	if err != nil {
		return dispatch.SaleInput{}, err
	}
	return dispatch.SaleInput{
		CustomerID: cid,
		Payment:    sale.Payment(Upper(r.Payment)),
		Discount:   r.Discount,
		Lines:      lines,
	}, nil
}

// DispatchVisitRequest marks a customer visited without a sale.
type DispatchVisitRequest struct {
	CustomerID string `json:"customerId" binding:"required,uuid"`
}

// DispatchReturnRequest brings product from the truck back to the warehouse.
type DispatchReturnRequest struct {
	ProductID    string         `json:"productId" binding:"required,uuid"`
	Quantity     types.Quantity `json:"quantity" binding:"gt=0"`
	ReturnedBy   string         `json:"returnedBy" binding:"max=150"`
	Observations string         `json:"observations" binding:"max=500"`
}

// ToInput converts to the domain input.
func (r *DispatchReturnRequest) ToInput() (dispatch.ReturnInput, error) {
	pid, err := ParseID("productId", r.ProductID)
	if err != nil {
		return dispatch.ReturnInput{}, err
	}
	return dispatch.ReturnInput{
		ProductID:    pid,
		Quantity:     r.Quantity,
		ReturnedBy:   r.ReturnedBy,
		Observations: r.Observations,
	}, nil
}

// DispatchReloadRequest loads more product onto an open dispatch.
type DispatchReloadRequest struct {
	Products []DispatchLineRequest `json:"products" binding:"required,min=1,dive"`
}

// ToLines converts to domain lines.
func (r *DispatchReloadRequest) ToLines() ([]dispatch.LineInput, error) {
	return toDispatchLines(r.Products)
}

// DispatchListRequest filters dispatches.
type DispatchListRequest struct {
	ListRequest
	Status     string `form:"status" binding:"omitempty,upper_enum=PENDING PROGRESS REALIZADO CANCELLED"`
	CarrierID  string `form:"carrierId" binding:"omitempty,uuid"`
	RouteDayID string `form:"routeDayId" binding:"omitempty,uuid"`
}

// ToFilter converts to a domain filter.
func (r DispatchListRequest) ToFilter() domain.ListFilter {
	f := r.ListRequest.ToFilter()
	if r.Status != "" {
		f = f.Where("status", Upper(r.Status))
	}
	if r.CarrierID != "" {
		f = f.Where("carrier_id", id.MustParse(r.CarrierID))
	}
	if r.RouteDayID != "" {
		f = f.Where("route_day_id", id.MustParse(r.RouteDayID))
	}
	return f
}

// ReturnListRequest filters dispatch returns.
type ReturnListRequest struct {
	ListRequest
	Status     string `form:"status" binding:"omitempty,upper_enum=PENDING DONE"`
	DispatchID string `form:"dispatchId" binding:"omitempty,uuid"`
}

// ToFilter converts to a domain filter.
func (r ReturnListRequest) ToFilter() domain.ListFilter {
	f := r.ListRequest.ToFilter()
	if r.Status != "" {
		f = f.Where("status", Upper(r.Status))
	}
	if r.DispatchID != "" {
		f = f.Where("dispatch_id", id.MustParse(r.DispatchID))
	}
	return f
}

// DispatchSaleResponse is the sale recorded from the truck and the dispatch
// after re-evaluation.
type DispatchSaleResponse struct {
	Sale     *sale.Sale         `json:"sale"`
	Dispatch *dispatch.Dispatch `json:"dispatch"`
}

// DispatchReturnResponse is the recorded return and the dispatch after
// re-evaluation.
type DispatchReturnResponse struct {
	Return   *dispatch.Return   `json:"return"`
	Dispatch *dispatch.Dispatch `json:"dispatch"`
}
