package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"distribuidora/internal/core/apperror"
	appctx "distribuidora/internal/core/context"
	"distribuidora/internal/core/tenant"
)

// JWTValidator interface for token validation.
type JWTValidator interface {
	ValidateToken(tokenString string) (*appctx.UserContext, error)
}

// Auth middleware validates JWT tokens and populates user context.
// The city claimed by the token becomes the request city; an X-Tenant-ID
// header, when present, must name the same city.
func Auth(validator JWTValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			return
		}

		user, err := validator.ValidateToken(token)
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}

		ctx := c.Request.Context()
		tokenTenant := tenant.Normalize(user.Tenant)
		if resolved := tenant.FromContext(ctx); !resolved.IsZero() && resolved != tokenTenant {
			_ = c.Error(
				apperror.NewForbidden("city mismatch").
					WithDetail("header_tenant", string(resolved)).
					WithDetail("token_tenant", string(tokenTenant)),
			)
			c.Abort()
			return
		}

		ctx = tenant.WithTenant(ctx, tokenTenant)
		ctx = appctx.WithUser(ctx, user)
		c.Request = c.Request.WithContext(ctx)

		c.Set("user_id", user.UserID)
		c.Set("tenant", string(tokenTenant))
		c.Set("role", user.Role)

		c.Next()
	}
}

// RequireRole middleware checks if user has required role.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if appctx.GetUser(ctx) == nil {
			abortUnauthorized(c, "authentication required")
			return
		}
		if !appctx.HasRole(ctx, roles...) {
			_ = c.Error(
				apperror.NewForbidden("insufficient permissions").
					WithDetail("required_roles", roles),
			)
			c.Abort()
			return
		}
		c.Next()
	}
}

// bearerToken extracts the token from the Authorization header. Browsers
// cannot set headers on a WebSocket handshake, so upgrades may pass it as
// the access_token query parameter instead.
func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
			if t := c.Query("access_token"); t != "" {
				return t, true
			}
		}
		abortUnauthorized(c, "missing authorization header")
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		abortUnauthorized(c, "invalid authorization header format")
		return "", false
	}
	return parts[1], true
}

func abortUnauthorized(c *gin.Context, message string) {
	_ = c.Error(apperror.NewUnauthorized(message))
	c.Abort()
}
