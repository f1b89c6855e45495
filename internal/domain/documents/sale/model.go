// Package sale provides counter and route sales and the stock effect of
// their status transitions.
package sale

import (
	"context"
	"time"

	"distribuidora/internal/core/apperror"
	"distribuidora/internal/core/entity"
	"distribuidora/internal/core/id"
	"distribuidora/internal/core/tenant"
	"distribuidora/internal/core/types"
	"distribuidora/internal/domain/stock"
)

// Kind of sale.
type Kind string

const (
	KindCounter Kind = "COUNTER" // mostrador
	KindRoute   Kind = "ROUTE"   // ruta
)

// Payment kind of a sale.
type Payment string

const (
	PaymentCash     Payment = "CASH"
	PaymentCredit   Payment = "CREDIT"
	PaymentCourtesy Payment = "COURTESY"
)

// Status of a sale.
type Status string

const (
	StatusDone      Status = "DONE"
	StatusPending   Status = "PENDING"
	StatusCancelled Status = "CANCELLED"
)

// Valid reports whether st is a known status.
func (st Status) Valid() bool {
	switch st {
	case StatusDone, StatusPending, StatusCancelled:
		return true
	}
	return false
}

// Sale is a counter or route sale. Lines never change after creation.
type Sale struct {
	entity.BaseEntity

	Folio        string  `db:"folio" json:"folio"`
	Seller       string  `db:"seller" json:"seller"`
	CustomerID   *id.ID  `db:"customer_id" json:"customerId,omitempty"`
	CustomerName string  `db:"customer_name" json:"customerName"`
	DispatchID   *id.ID  `db:"dispatch_id" json:"dispatchId,omitempty"`
	Kind         Kind    `db:"kind" json:"kind"`
	Payment      Payment `db:"payment" json:"payment"`
	Status       Status  `db:"status" json:"status"`

	// Discount is a whole percentage 0..100
	Discount int         `db:"discount" json:"discount"`
	Amount   types.Money `db:"amount" json:"amount"`

	Lines []Line `db:"-" json:"lines"`
}

// Line is one product of a sale.
type Line struct {
	ID          id.ID          `db:"id" json:"id"`
	SaleID      id.ID          `db:"sale_id" json:"-"`
	ProductID   *id.ID         `db:"product_id" json:"productId,omitempty"`
	ProductName string         `db:"product_name" json:"productName"`
	Quantity    types.Quantity `db:"quantity" json:"quantity"`
	Price       types.Money    `db:"price" json:"price"`
	CreatedAt   time.Time      `db:"created_at" json:"-"`
}

// NewSale creates a sale owned by tenant t.
func NewSale(t tenant.Key, kind Kind, payment Payment, status Status) *Sale {
	return &Sale{
		BaseEntity: entity.NewBaseEntity(t),
		Kind:       kind,
		Payment:    payment,
		Status:     status,
		Amount:     types.Zero(),
		Lines:      make([]Line, 0),
	}
}

// AddLine appends a line and recalculates the amount.
func (s *Sale) AddLine(productID id.ID, name string, qty types.Quantity, price types.Money) {
	s.Lines = append(s.Lines, Line{
		ID:          id.New(),
		SaleID:      s.ID,
		ProductID:   id.Ref(productID),
		ProductName: name,
		Quantity:    qty,
		Price:       price,
		CreatedAt:   s.CreatedAt,
	})
	s.Amount = s.ComputeAmount()
}

// ComputeAmount returns sum(qty * price) less the discount, to cents.
func (s *Sale) ComputeAmount() types.Money {
	total := types.Zero()
	for _, l := range s.Lines {
		total = total.Add(l.Price.Mul(l.Quantity.Decimal()))
	}
	return types.ApplyDiscount(total, s.Discount)
}

// Validate implements entity.Validatable.
func (s *Sale) Validate(_ context.Context) error {
	switch s.Kind {
	case KindCounter, KindRoute:
	default:
		return apperror.NewValidation("invalid sale kind").WithDetail("field", "kind")
	}
	switch s.Payment {
	case PaymentCash, PaymentCredit, PaymentCourtesy:
	default:
		return apperror.NewValidation("invalid payment").WithDetail("field", "payment")
	}
	if !s.Status.Valid() {
		return apperror.NewValidation("invalid status").WithDetail("field", "status")
	}
	if s.Discount < 0 || s.Discount > 100 {
		return apperror.NewValidation("discount must be between 0 and 100").WithDetail("field", "discount")
	}
	if len(s.Lines) == 0 {
		return apperror.NewValidation("sale must have at least one line").WithDetail("field", "lines")
	}
	for i, l := range s.Lines {
		if !l.Quantity.IsPositive() {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "lines").
				WithDetail("line", i+1)
		}
		if l.Price.IsNegative() {
			return apperror.NewValidation("price cannot be negative").
				WithDetail("field", "lines").
				WithDetail("line", i+1)
		}
	}
	return nil
}

// CanTransition reports whether the sale may move to status to. A cancelled
// counter sale already gave its units back, so it stays cancelled.
func (s *Sale) CanTransition(to Status) error {
	if s.Kind == KindCounter && s.Status == StatusCancelled && to != StatusCancelled {
		return apperror.NewInvalidTransition("sale", string(s.Status), string(to))
	}
	return nil
}

// Deltas returns the warehouse effect of moving a counter sale from one
// status to another. Route sales never touch the warehouse: their stock
// left it when the dispatch was loaded.
func (s *Sale) Deltas(from, to Status) []stock.Delta {
	if s.Kind != KindCounter || from == to {
		return nil
	}

	var debit bool
	switch {
	case from == StatusPending && to == StatusDone:
		debit = true
	case from == StatusDone && (to == StatusCancelled || to == StatusPending):
		debit = false
	default:
		return nil
	}

	deltas := make([]stock.Delta, 0, len(s.Lines))
	for _, l := range s.Lines {
		if l.ProductID == nil {
			continue
		}
		if debit {
			deltas = append(deltas, stock.Debit(*l.ProductID, l.Quantity))
		} else {
			deltas = append(deltas, stock.Credit(*l.ProductID, l.Quantity))
		}
	}
	return deltas
}

// Source identifies the sale in the stock journal.
func (s *Sale) Source() stock.Source {
	return stock.Source{Type: stock.SourceSale, ID: s.ID}
}

// StatusChange reports a status transition and the products it moved.
type StatusChange struct {
	Before Status `json:"before"`
	After  Status `json:"after"`
}

// StatusReport is returned by ChangeStatus and written to the audit trail.
type StatusReport struct {
	SaleID   id.ID          `json:"saleId"`
	Status   StatusChange   `json:"status"`
	Products []stock.Change `json:"products"`
}

// Ordering names accepted by List.
const (
	OrderCustomer = "customer"
	OrderNewest   = "newest"
	OrderOldest   = "oldest"
	OrderSeller   = "seller"
)

// OrderBy maps an ordering name to a column expression for domain.ListFilter.
func OrderBy(ordering string) (string, error) {
	switch ordering {
	case "", OrderNewest:
		return "-created_at", nil
	case OrderOldest:
		return "created_at", nil
	case OrderCustomer:
		return "customer_name", nil
	case OrderSeller:
		return "seller", nil
	}
	return "", apperror.NewValidation("invalid ordering").WithDetail("ordering", ordering)
}
