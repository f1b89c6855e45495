package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	"distribuidora/internal/core/apperror"
	"distribuidora/internal/core/tenant"
)

// TenantHeader is the HTTP header for city identification.
const TenantHeader = "X-Tenant-ID"

// Tenant resolves the city from the X-Tenant-ID header against the registry
// and stores it in the request context. A missing header is allowed here;
// Auth falls back to the city carried in the token.
func Tenant(registry *tenant.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(TenantHeader)
		if raw == "" {
			c.Next()
			return
		}

		key, err := registry.Resolve(raw)
		if err != nil {
			if errors.Is(err, tenant.ErrTenantNotFound) {
				_ = c.Error(apperror.NewValidation("unknown city").
					WithDetail("header", TenantHeader).
					WithDetail("value", raw))
			} else {
				_ = c.Error(apperror.NewValidation("invalid city").WithDetail("header", TenantHeader))
			}
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(tenant.WithTenant(c.Request.Context(), key))
		c.Set("tenant", string(key))
		c.Next()
	}
}

// RequireTenant rejects requests that reach a handler without a resolved city.
func RequireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tenant.FromContext(c.Request.Context()).IsZero() {
			_ = c.Error(apperror.NewValidation("city is required").WithDetail("header", TenantHeader))
			c.Abort()
			return
		}
		c.Next()
	}
}
