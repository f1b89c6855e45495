package dto

import (
	"distribuidora/internal/core/types"
	"distribuidora/internal/domain/catalogs/customer"
	"distribuidora/internal/domain/catalogs/product"
)

// --- Products ---

// CreateProductRequest creates a product with its opening stock.
type CreateProductRequest struct {
	Name     string         `json:"name" binding:"required,max=150"`
	Price    *types.Money   `json:"price" binding:"required"`
	Quantity types.Quantity `json:"quantity" binding:"min=0"`
}

// ToInput converts to the domain input.
func (r *CreateProductRequest) ToInput() product.CreateInput {
	return product.CreateInput{Name: r.Name, Price: *r.Price, Quantity: r.Quantity}
}

// UpdateProductRequest edits name and list price. Stock moves only through
// adjustments, sales and dispatches.
type UpdateProductRequest struct {
	Name    *string      `json:"name" binding:"omitempty,max=150"`
	Price   *types.Money `json:"price"`
	Version int          `json:"version" binding:"required,min=1"`
}

// ToInput converts to the domain input.
func (r *UpdateProductRequest) ToInput() product.UpdateInput {
	return product.UpdateInput{Name: r.Name, Price: r.Price, Version: r.Version}
}

// --- Customers ---

// AddressRequest is a customer address.
type AddressRequest struct {
	Street       string `json:"street" binding:"max=200"`
	Neighborhood string `json:"neighborhood" binding:"max=120"`
	City         string `json:"city" binding:"max=120"`
	Phone        string `json:"phone" binding:"max=30"`
	Reference    string `json:"reference" binding:"max=250"`
}

func (r *AddressRequest) toDomain() *customer.Address {
	if r == nil {
		return nil
	}
	return &customer.Address{
		Street:       r.Street,
		Neighborhood: r.Neighborhood,
		City:         r.City,
		Phone:        r.Phone,
		Reference:    r.Reference,
	}
}

// PriceOverrideRequest replaces the list price of one product.
type PriceOverrideRequest struct {
	ProductID string       `json:"productId" binding:"required,uuid"`
	Price     *types.Money `json:"price" binding:"required"`
}

// CreateCustomerRequest creates a customer with address, route days and prices.
type CreateCustomerRequest struct {
	Name        string                 `json:"name" binding:"required,max=150"`
	Payment     string                 `json:"payment" binding:"required,upper_enum=CASH CREDIT"`
	Address     *AddressRequest        `json:"address"`
	RouteDayIDs []string               `json:"routeDayIds" binding:"omitempty,dive,uuid"`
	Prices      []PriceOverrideRequest `json:"prices" binding:"omitempty,dive"`
}

// ToInput converts to the domain input.
func (r *CreateCustomerRequest) ToInput() (customer.CreateInput, error) {
	days, err := ParseIDs("routeDayIds", r.RouteDayIDs)
	if err != nil {
		return customer.CreateInput{}, err
	}
	in := customer.CreateInput{
		Name:        r.Name,
		Payment:     customer.PaymentKind(Upper(r.Payment)),
		Address:     r.Address.toDomain(),
		RouteDayIDs: days,
	}
	for _, p := range r.Prices {
		pid, err := ParseID("productId", p.ProductID)
		if err != nil {
			return customer.CreateInput{}, err
		}
		in.Prices = append(in.Prices, customer.PriceOverride{ProductID: pid, Price: *p.Price})
	}
	return in, nil
}

// UpdateCustomerRequest edits a customer. Omitted routeDayIds keeps the
// subscriptions; an empty list clears them.
type UpdateCustomerRequest struct {
	Name        *string         `json:"name" binding:"omitempty,max=150"`
	Payment     *string         `json:"payment" binding:"omitempty,upper_enum=CASH CREDIT"`
	Address     *AddressRequest `json:"address"`
	RouteDayIDs []string        `json:"routeDayIds" binding:"omitempty,dive,uuid"`
	Version     int             `json:"version" binding:"required,min=1"`
}

// ToInput converts to the domain input.
func (r *UpdateCustomerRequest) ToInput() (customer.UpdateInput, error) {
	days, err := ParseIDs("routeDayIds", r.RouteDayIDs)
	if err != nil {
		return customer.UpdateInput{}, err
	}
	in := customer.UpdateInput{
		Name:        r.Name,
		Address:     r.Address.toDomain(),
		RouteDayIDs: days,
		Version:     r.Version,
	}
	if r.Payment != nil {
		p := customer.PaymentKind(Upper(*r.Payment))
		in.Payment = &p
	}
	return in, nil
}

// SetPriceRequest sets the price a customer pays for one product.
type SetPriceRequest struct {
	Price *types.Money `json:"price" binding:"required"`
}

// CustomerPriceResponse is a customer price with its discount against list.
type CustomerPriceResponse struct {
	ProductID       string      `json:"productId"`
	ProductName     string      `json:"productName"`
	ListPrice       types.Money `json:"listPrice"`
	Price           types.Money `json:"price"`
	DiscountPercent *string     `json:"discountPercent"`
}

// FromCustomerPrice creates the response; discountPercent is null when the
// list price is zero.
func FromCustomerPrice(p customer.Price) CustomerPriceResponse {
	resp := CustomerPriceResponse{
		ProductID:   p.ProductID.String(),
		ProductName: p.ProductName,
		ListPrice:   p.ListPrice,
		Price:       p.Price,
	}
	if pct, ok := p.DiscountPercent(); ok {
		s := pct.StringFixed(2)
		resp.DiscountPercent = &s
	}
	return resp
}

// --- Routes ---

// CreateRouteRequest creates a route and its seven days.
type CreateRouteRequest struct {
	Name      string  `json:"name" binding:"required,max=100"`
	CarrierID *string `json:"carrierId" binding:"omitempty,uuid"`
}

// UpdateRouteDayRequest reassigns the carrier of one route day. A null
// carrier leaves the day unassigned.
type UpdateRouteDayRequest struct {
	CarrierID *string `json:"carrierId" binding:"omitempty,uuid"`
}
