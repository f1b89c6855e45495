// Package auth_repo provides the PostgreSQL implementation of the user repository.
package auth_repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"distribuidora/internal/core/apperror"
	"distribuidora/internal/core/id"
	"distribuidora/internal/core/tenant"
	"distribuidora/internal/domain/auth"
	"distribuidora/internal/infrastructure/storage/postgres"
)

var userColumns = []string{
	"id", "tenant", "version", "created_at", "updated_at",
	"username", "password_hash", "display_name", "role", "is_active", "last_login_at",
}

// UserRepo implements auth.UserRepository.
type UserRepo struct {
	*postgres.TenantRepo[*auth.User]
}

// NewUserRepo creates a new user repository.
func NewUserRepo(txm *postgres.TxManager) *UserRepo {
	return &UserRepo{
		TenantRepo: postgres.NewTenantRepo(txm, "users", "user",
			userColumns, []string{"username", "display_name"},
			func() *auth.User { return &auth.User{} },
		),
	}
}

var _ auth.UserRepository = (*UserRepo)(nil)

// GetByUsername retrieves a user of city t.
// Login runs before any tenant is in context, so t is explicit here.
func (r *UserRepo) GetByUsername(ctx context.Context, t tenant.Key, username string) (*auth.User, error) {
	query := `
		SELECT id, tenant, version, created_at, updated_at,
		       username, password_hash, display_name, role, is_active, last_login_at
		FROM users
		WHERE tenant = $1 AND username = $2
	`

	var user auth.User
	err := r.Querier(ctx).QueryRow(ctx, query, string(t), username).Scan(
		&user.ID, &user.Tenant, &user.Version, &user.CreatedAt, &user.UpdatedAt,
		&user.Username, &user.PasswordHash, &user.DisplayName, &user.Role,
		&user.IsActive, &user.LastLoginAt,
	)
	if err == pgx.ErrNoRows {
		return nil, apperror.NewNotFound("user", username)
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &user, nil
}

// TouchLogin stamps last_login_at.
func (r *UserRepo) TouchLogin(ctx context.Context, userID id.ID) error {
	t, err := r.Tenant(ctx)
	if err != nil {
		return err
	}
	_, err = r.Querier(ctx).Exec(ctx,
		`UPDATE users SET last_login_at = now() WHERE tenant = $1 AND id = $2`, t, userID)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

// List returns every user of the city ordered by username.
func (r *UserRepo) List(ctx context.Context) ([]*auth.User, error) {
	q, err := r.Select(ctx)
	if err != nil {
		return nil, err
	}
	return r.FindAll(ctx, q.OrderBy("username"))
}
