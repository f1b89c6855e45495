package dto

import (
	"time"

	"distribuidora/internal/domain/stock"
)

// StockMovementsRequest filters the journal of one product.
type StockMovementsRequest struct {
	SourceType string     `form:"sourceType" binding:"omitempty,upper_enum=ADJUSTMENT SALE DISPATCH DISPATCH_RELOAD DISPATCH_CANCEL DISPATCH_RETURN"`
	From       *time.Time `form:"from" time_format:"2006-01-02"`
	To         *time.Time `form:"to" time_format:"2006-01-02"`
	Limit      int        `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset     int        `form:"offset" binding:"omitempty,min=0"`
}

// ToFilter converts to a domain filter.
func (r StockMovementsRequest) ToFilter() stock.MovementFilter {
	f := stock.MovementFilter{
		FromDate: r.From,
		ToDate:   r.To,
		Limit:    r.Limit,
		Offset:   r.Offset,
	}
	if r.SourceType != "" {
		st := stock.SourceType(Upper(r.SourceType))
		f.SourceType = &st
	}
	return f
}

// StockMovementResponse represents stock movement in API responses.
type StockMovementResponse struct {
	ID           string    `json:"id"`
	ProductID    string    `json:"productId"`
	ProductName  string    `json:"productName"`
	Delta        float64   `json:"delta"`
	BalanceAfter float64   `json:"balanceAfter"`
	SourceType   string    `json:"sourceType"`
	SourceID     string    `json:"sourceId"`
	CreatedAt    time.Time `json:"createdAt"`
}

// FromStockMovement converts a journal row to response DTO.
func FromStockMovement(m stock.Movement) StockMovementResponse {
	return StockMovementResponse{
		ID:           m.ID.String(),
		ProductID:    m.ProductID.String(),
		ProductName:  m.ProductName,
		Delta:        m.Delta.Float64(),
		BalanceAfter: m.BalanceAfter.Float64(),
		SourceType:   string(m.SourceType),
		SourceID:     m.SourceID.String(),
		CreatedAt:    m.CreatedAt,
	}
}

// StockMovementListResponse represents a list of stock movements.
type StockMovementListResponse struct {
	Items []StockMovementResponse `json:"items"`
}
