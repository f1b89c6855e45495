// Package product provides the Product catalog: name, list price and the
// warehouse quantity moved by the stock ledger.
package product

import (
	"context"
	"strings"

	"distribuidora/internal/core/apperror"
	"distribuidora/internal/core/entity"
	"distribuidora/internal/core/tenant"
	"distribuidora/internal/core/types"
)

// Product represents a sellable item of one city.
type Product struct {
	entity.BaseEntity

	// Name is upper-cased and unique per tenant
	Name string `db:"name" json:"name"`

	// Quantity is owned by the stock ledger; catalog updates never write it
	Quantity types.Quantity `db:"quantity" json:"quantity"`

	// Price is the list price
	Price types.Money `db:"price" json:"price"`
}

// NewProduct creates a new Product with required fields.
func NewProduct(t tenant.Key, name string, price types.Money) *Product {
	return &Product{
		BaseEntity: entity.NewBaseEntity(t),
		Name:       NormalizeName(name),
		Price:      price,
	}
}

// NormalizeName trims and upper-cases a product name.
func NormalizeName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// Validate implements entity.Validatable interface.
func (p *Product) Validate(_ context.Context) error {
	if p.Name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if len(p.Name) > 150 {
		return apperror.NewValidation("name is too long").WithDetail("field", "name")
	}
	if p.Price.IsNegative() {
		return apperror.NewValidation("price cannot be negative").WithDetail("field", "price")
	}
	if p.Quantity.IsNegative() {
		return apperror.NewValidation("quantity cannot be negative").WithDetail("field", "quantity")
	}
	return nil
}
