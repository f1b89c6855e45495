package tenant

import (
	"context"
)

type ctxKey struct{}

// WithTenant stores the tenant key in context.
func WithTenant(ctx context.Context, k Key) context.Context {
	return context.WithValue(ctx, ctxKey{}, k)
}

// FromContext returns the tenant key or "" when none is set.
func FromContext(ctx context.Context) Key {
	k, _ := ctx.Value(ctxKey{}).(Key)
	return k
}

// Require returns the tenant key or ErrNoTenantInContext.
func Require(ctx context.Context) (Key, error) {
	k := FromContext(ctx)
	if k.IsZero() {
		return "", ErrNoTenantInContext
	}
	return k, nil
}

// MustGet returns the tenant key or panics.
// Use in places where a missing tenant is a programming error.
func MustGet(ctx context.Context) Key {
	k, err := Require(ctx)
	if err != nil {
		panic(err.Error())
	}
	return k
}
