// Package customer provides the Customer catalog with its address,
// per-product prices and route-day subscriptions.
package customer

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"distribuidora/internal/core/apperror"
	"distribuidora/internal/core/entity"
	"distribuidora/internal/core/id"
	"distribuidora/internal/core/tenant"
	"distribuidora/internal/core/types"
)

// PaymentKind is how a customer settles sales.
type PaymentKind string

const (
	PaymentCash   PaymentKind = "CASH"
	PaymentCredit PaymentKind = "CREDIT"
)

// Customer represents a client of one city.
type Customer struct {
	entity.BaseEntity

	Name    string      `db:"name" json:"name"`
	Payment PaymentKind `db:"payment" json:"payment"`

	// Loaded relations
	Address     *Address `db:"-" json:"address,omitempty"`
	RouteDayIDs []id.ID  `db:"-" json:"routeDayIds"`
}

// Address is owned by its customer and deleted with it.
type Address struct {
	CustomerID   id.ID  `db:"customer_id" json:"-"`
	Street       string `db:"street" json:"street"`
	Neighborhood string `db:"neighborhood" json:"neighborhood"`
	City         string `db:"city" json:"city"`
	Phone        string `db:"phone" json:"phone"`
	Reference    string `db:"reference" json:"reference"`
}

// NewCustomer creates a new Customer with required fields.
func NewCustomer(t tenant.Key, name string, payment PaymentKind) *Customer {
	return &Customer{
		BaseEntity: entity.NewBaseEntity(t),
		Name:       NormalizeName(name),
		Payment:    payment,
	}
}

// NormalizeName trims and upper-cases a customer name.
func NormalizeName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// Validate implements entity.Validatable interface.
func (c *Customer) Validate(_ context.Context) error {
	if c.Name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	switch c.Payment {
	case PaymentCash, PaymentCredit:
	default:
		return apperror.NewValidation("invalid payment kind").
			WithDetail("field", "payment").
			WithDetail("value", string(c.Payment))
	}
	return nil
}

// Price is the price a customer pays for a product.
type Price struct {
	ID          id.ID       `db:"id" json:"id"`
	CustomerID  id.ID       `db:"customer_id" json:"customerId"`
	ProductID   id.ID       `db:"product_id" json:"productId"`
	ProductName string      `db:"product_name" json:"productName"`
	ListPrice   types.Money `db:"list_price" json:"listPrice"`
	Price       types.Money `db:"price" json:"price"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updatedAt"`
}

// DiscountPercent returns (1 - price/list) * 100 rounded to 2 decimals.
// ok is false when the list price is zero.
func (p Price) DiscountPercent() (pct decimal.Decimal, ok bool) {
	return DiscountPercent(p.Price, p.ListPrice)
}

// DiscountPercent computes the discount of price against list.
func DiscountPercent(price, list types.Money) (decimal.Decimal, bool) {
	if list.IsZero() {
		return decimal.Zero, false
	}
	one := decimal.NewFromInt(1)
	return one.Sub(price.Div(list)).Mul(decimal.NewFromInt(100)).Round(2), true
}

// PriceOverride replaces the list price for one product at creation.
type PriceOverride struct {
	ProductID id.ID
	Price     types.Money
}
