// Package adjustment provides inventory adjustments: shortages, overages and
// production entries that correct the warehouse quantity of one product.
package adjustment

import (
	"context"
	"strings"
	"time"

	"distribuidora/internal/core/apperror"
	"distribuidora/internal/core/entity"
	"distribuidora/internal/core/id"
	"distribuidora/internal/core/tenant"
	"distribuidora/internal/core/types"
	"distribuidora/internal/domain/stock"
)

// Kind of adjustment.
type Kind string

const (
	KindShortage   Kind = "SHORTAGE"   // faltante
	KindOverage    Kind = "OVERAGE"    // sobrante
	KindProduction Kind = "PRODUCTION" // produccion
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindShortage, KindOverage, KindProduction:
		return true
	}
	return false
}

// Status of an adjustment.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusDone    Status = "DONE"
)

// Adjustment is one inventory correction.
type Adjustment struct {
	entity.BaseEntity

	Cashier     string `db:"cashier" json:"cashier"`
	Warehouse   string `db:"warehouse" json:"warehouse"`
	ProductID   *id.ID `db:"product_id" json:"productId"`
	ProductName string `db:"product_name" json:"productName"`

	Quantity types.Quantity `db:"quantity" json:"quantity"`
	Kind     Kind           `db:"kind" json:"kind"`
	Status   Status         `db:"status" json:"status"`

	// Applied is true once the stock effect has been written
	Applied bool `db:"applied" json:"applied"`

	Observations string     `db:"observations" json:"observations"`
	ApprovedBy   string     `db:"approved_by" json:"approvedBy,omitempty"`
	ApprovedAt   *time.Time `db:"approved_at" json:"approvedAt,omitempty"`
}

// NewAdjustment creates a pending adjustment.
func NewAdjustment(t tenant.Key, productID id.ID, qty types.Quantity, kind Kind) *Adjustment {
	return &Adjustment{
		BaseEntity: entity.NewBaseEntity(t),
		ProductID:  id.Ref(productID),
		Quantity:   qty,
		Kind:       kind,
		Status:     StatusPending,
	}
}

// Validate implements entity.Validatable.
func (a *Adjustment) Validate(_ context.Context) error {
	if a.ProductID == nil {
		return apperror.NewValidation("product is required").WithDetail("field", "productId")
	}
	if a.Quantity.IsNegative() {
		return apperror.NewValidation("quantity cannot be negative").WithDetail("field", "quantity")
	}
	if !a.Kind.Valid() {
		return apperror.NewValidation("invalid adjustment kind").
			WithDetail("field", "kind").
			WithDetail("value", string(a.Kind))
	}
	if strings.TrimSpace(a.Warehouse) == "" {
		return apperror.NewValidation("warehouse is required").WithDetail("field", "warehouse")
	}
	return nil
}

// Delta returns the stock change this adjustment causes.
func (a *Adjustment) Delta() stock.Delta {
	var pid id.ID
	if a.ProductID != nil {
		pid = *a.ProductID
	}
	if a.Kind == KindShortage {
		return stock.Debit(pid, a.Quantity)
	}
	return stock.Credit(pid, a.Quantity)
}

// Source identifies the adjustment in the stock journal.
func (a *Adjustment) Source() stock.Source {
	return stock.Source{Type: stock.SourceAdjustment, ID: a.ID}
}
