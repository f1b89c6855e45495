// Package route provides delivery routes and their weekly route days.
package route

import (
	"context"
	"strings"

	"distribuidora/internal/core/apperror"
	"distribuidora/internal/core/entity"
	"distribuidora/internal/core/id"
	"distribuidora/internal/core/tenant"
)

// Weekday names a route day.
type Weekday string

const (
	Monday    Weekday = "MONDAY"
	Tuesday   Weekday = "TUESDAY"
	Wednesday Weekday = "WEDNESDAY"
	Thursday  Weekday = "THURSDAY"
	Friday    Weekday = "FRIDAY"
	Saturday  Weekday = "SATURDAY"
	Sunday    Weekday = "SUNDAY"
)

// Weekdays lists the days created for every route, in order.
var Weekdays = [7]Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// Route is a named delivery route.
type Route struct {
	entity.BaseEntity

	Name        string `db:"name" json:"name"`
	CarrierID   *id.ID `db:"carrier_id" json:"carrierId,omitempty"`
	CarrierName string `db:"carrier_name" json:"carrierName"`

	Days []*Day `db:"-" json:"days,omitempty"`
}

// Day is one weekday of a route. It starts with the route's carrier and may
// be reassigned independently.
type Day struct {
	entity.BaseEntity

	RouteID     id.ID   `db:"route_id" json:"routeId"`
	RouteName   string  `db:"route_name" json:"routeName"`
	Weekday     Weekday `db:"weekday" json:"weekday"`
	CarrierID   *id.ID  `db:"carrier_id" json:"carrierId,omitempty"`
	CarrierName string  `db:"carrier_name" json:"carrierName"`
}

// CustomerRef is a customer subscribed to a route day.
type CustomerRef struct {
	ID   id.ID  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// NewRoute creates a route with its seven days.
func NewRoute(t tenant.Key, name string) *Route {
	r := &Route{
		BaseEntity: entity.NewBaseEntity(t),
		Name:       strings.ToUpper(strings.TrimSpace(name)),
	}
	r.Days = make([]*Day, 0, len(Weekdays))
	for _, wd := range Weekdays {
		r.Days = append(r.Days, &Day{
			BaseEntity: entity.NewBaseEntity(t),
			RouteID:    r.ID,
			RouteName:  r.Name,
			Weekday:    wd,
		})
	}
	return r
}

// AssignCarrier sets the carrier on the route and every day.
func (r *Route) AssignCarrier(carrierID *id.ID, name string) {
	r.CarrierID = carrierID
	r.CarrierName = name
	for _, d := range r.Days {
		d.CarrierID = carrierID
		d.CarrierName = name
	}
}

// Validate implements entity.Validatable interface.
func (r *Route) Validate(_ context.Context) error {
	if r.Name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	return nil
}
