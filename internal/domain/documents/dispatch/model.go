// Package dispatch provides the route dispatch lifecycle: a truck is loaded
// from the warehouse, visits customers, sells, returns and reloads product,
// and completes once every customer is visited and every line is sold.
package dispatch

import (
	"time"

	"distribuidora/internal/core/entity"
	"distribuidora/internal/core/id"
	"distribuidora/internal/core/tenant"
	"distribuidora/internal/core/types"
	"distribuidora/internal/domain/stock"
)

// Status of a dispatch.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusProgress  Status = "PROGRESS"
	StatusCompleted Status = "REALIZADO"
	StatusCancelled Status = "CANCELLED"
)

// IsTerminal reports whether no further transition is possible.
func (st Status) IsTerminal() bool {
	return st == StatusCompleted || st == StatusCancelled
}

// IsOpen reports whether the dispatch still accepts sales, returns and reloads.
func (st Status) IsOpen() bool {
	return st == StatusPending || st == StatusProgress
}

// ProductStatus of a loaded line.
type ProductStatus string

const (
	ProductLoaded ProductStatus = "LOADED"
	ProductSold   ProductStatus = "SOLD"
)

// CustomerStatus of a customer line.
type CustomerStatus string

const (
	CustomerPending CustomerStatus = "PENDING"
	CustomerVisited CustomerStatus = "VISITED"
)

// ReturnStatus of a product return.
type ReturnStatus string

const (
	ReturnPending ReturnStatus = "PENDING"
	ReturnDone    ReturnStatus = "DONE"
)

// Dispatch is one truck leaving the warehouse on a route day.
type Dispatch struct {
	entity.BaseEntity

	Folio       string `db:"folio" json:"folio"`
	RouteDayID  *id.ID `db:"route_day_id" json:"routeDayId,omitempty"`
	RouteName   string `db:"route_name" json:"routeName"`
	CarrierID   *id.ID `db:"carrier_id" json:"carrierId,omitempty"`
	CarrierName string `db:"carrier_name" json:"carrierName"`
	Attendant   string `db:"attendant" json:"attendant"`
	Status      Status `db:"status" json:"status"`

	Products  []*Product  `db:"-" json:"products"`
	Customers []*Customer `db:"-" json:"customers"`
}

// Product is a line of product carried by the dispatch.
type Product struct {
	ID          id.ID          `db:"id" json:"id"`
	Tenant      tenant.Key     `db:"tenant" json:"-"`
	DispatchID  id.ID          `db:"dispatch_id" json:"-"`
	ProductID   *id.ID         `db:"product_id" json:"productId,omitempty"`
	ProductName string         `db:"product_name" json:"productName"`
	Loaded      types.Quantity `db:"loaded" json:"loaded"`
	Remaining   types.Quantity `db:"remaining" json:"remaining"`
	Status      ProductStatus  `db:"status" json:"status"`
	CreatedAt   time.Time      `db:"created_at" json:"createdAt"`
}

// Take removes qty from the truck and marks the line SOLD at exactly zero.
func (p *Product) Take(qty types.Quantity) {
	p.Remaining -= qty
	if p.Remaining.IsZero() {
		p.Status = ProductSold
	}
}

// Add puts qty on the truck and reopens the line.
func (p *Product) Add(qty types.Quantity) {
	p.Loaded += qty
	p.Remaining += qty
	p.Status = ProductLoaded
}

// Customer is a customer the dispatch must visit.
type Customer struct {
	ID           id.ID          `db:"id" json:"id"`
	Tenant       tenant.Key     `db:"tenant" json:"-"`
	DispatchID   id.ID          `db:"dispatch_id" json:"-"`
	CustomerID   *id.ID         `db:"customer_id" json:"customerId,omitempty"`
	CustomerName string         `db:"customer_name" json:"customerName"`
	Status       CustomerStatus `db:"status" json:"status"`
	VisitedAt    *time.Time     `db:"visited_at" json:"visitedAt,omitempty"`
}

// Visit marks the customer VISITED.
func (c *Customer) Visit(at time.Time) {
	c.Status = CustomerVisited
	c.VisitedAt = &at
}

// Return is product brought back from the truck into the warehouse.
type Return struct {
	entity.BaseEntity

	DispatchID        id.ID          `db:"dispatch_id" json:"dispatchId"`
	DispatchProductID *id.ID         `db:"dispatch_product_id" json:"dispatchProductId,omitempty"`
	ProductID         *id.ID         `db:"product_id" json:"productId,omitempty"`
	ProductName       string         `db:"product_name" json:"productName"`
	Quantity          types.Quantity `db:"quantity" json:"quantity"`
	ReturnedBy        string         `db:"returned_by" json:"returnedBy"`
	Attendant         string         `db:"attendant" json:"attendant"`
	ApprovedBy        string         `db:"approved_by" json:"approvedBy,omitempty"`
	ApprovedAt        *time.Time     `db:"approved_at" json:"approvedAt,omitempty"`
	Status            ReturnStatus   `db:"status" json:"status"`

	// Applied is true once the warehouse has been credited
	Applied bool `db:"applied" json:"applied"`

	Observations string `db:"observations" json:"observations"`
}

// Source identifies the return in the stock journal.
func (r *Return) Source() stock.Source {
	return stock.Source{Type: stock.SourceDispatchReturn, ID: r.ID}
}

// Evaluate returns the status a dispatch should have given its lines:
// REALIZADO when every customer is visited and every product is sold,
// otherwise PENDING moves to PROGRESS. Terminal states never change.
// Evaluate is pure; applying it twice yields the same status.
func Evaluate(current Status, products []*Product, customers []*Customer) Status {
	if current.IsTerminal() {
		return current
	}

	done := true
	for _, c := range customers {
		if c.Status != CustomerVisited {
			done = false
			break
		}
	}
	if done {
		for _, p := range products {
			if p.Status != ProductSold {
				done = false
				break
			}
		}
	}

	switch {
	case done:
		return StatusCompleted
	case current == StatusPending:
		return StatusProgress
	default:
		return current
	}
}

// productLine finds the line carrying productID.
func (d *Dispatch) productLine(productID id.ID) *Product {
	for _, p := range d.Products {
		if p.ProductID != nil && *p.ProductID == productID {
			return p
		}
	}
	return nil
}

// customerLine finds the line for customerID.
func (d *Dispatch) customerLine(customerID id.ID) *Customer {
	for _, c := range d.Customers {
		if c.CustomerID != nil && *c.CustomerID == customerID {
			return c
		}
	}
	return nil
}
