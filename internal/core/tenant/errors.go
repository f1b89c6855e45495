package tenant

import "errors"

var (
	// ErrTenantNotFound is returned when a city is not registered in this deployment.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrNoTenantInContext is returned when a request reached the core without a city.
	ErrNoTenantInContext = errors.New("tenant not found in context")
)
