package domain

import (
	"context"

	"distribuidora/internal/core/id"
)

// UserRef is the part of a user that other rows snapshot.
type UserRef struct {
	ID   id.ID
	Name string
	Role string
}

// UserDirectory resolves users referenced by dispatches and routes.
type UserDirectory interface {
	LookupUser(ctx context.Context, userID id.ID) (UserRef, error)
}
