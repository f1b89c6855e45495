package auth

import (
	"context"

	"distribuidora/internal/core/id"
	"distribuidora/internal/core/tenant"
)

// UserRepository defines user persistence.
// Users are looked up across cities at login; everything else is tenant-scoped.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, userID id.ID) (*User, error)
	GetByUsername(ctx context.Context, t tenant.Key, username string) (*User, error)
	TouchLogin(ctx context.Context, userID id.ID) error
	List(ctx context.Context) ([]*User, error)
}
