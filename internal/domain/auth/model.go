// Package auth provides authentication and authorization domain logic.
package auth

import (
	"context"
	"strings"
	"time"

	"distribuidora/internal/core/apperror"
	"distribuidora/internal/core/entity"
	"distribuidora/internal/core/tenant"
)

// Role is the single role a user holds within a city.
type Role string

const (
	RoleManager Role = "MANAGER" // gerente
	RoleCashier Role = "CASHIER" // cajero
	RoleCarrier Role = "CARRIER" // repartidor
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleManager, RoleCashier, RoleCarrier:
		return true
	}
	return false
}

// User represents a system user registered in one city.
type User struct {
	entity.BaseEntity

	Username     string     `db:"username" json:"username"`
	PasswordHash string     `db:"password_hash" json:"-"`
	DisplayName  string     `db:"display_name" json:"displayName"`
	Role         Role       `db:"role" json:"role"`
	IsActive     bool       `db:"is_active" json:"isActive"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"lastLoginAt,omitempty"`
}

// NewUser creates a new active user.
func NewUser(t tenant.Key, username, passwordHash string, role Role) *User {
	return &User{
		BaseEntity:   entity.NewBaseEntity(t),
		Username:     strings.ToLower(strings.TrimSpace(username)),
		PasswordHash: passwordHash,
		Role:         role,
		IsActive:     true,
	}
}

// Validate validates user data.
func (u *User) Validate(ctx context.Context) error {
	if u.Username == "" {
		return apperror.NewValidation("username is required").WithDetail("field", "username")
	}
	if !u.Role.Valid() {
		return apperror.NewValidation("invalid role").
			WithDetail("field", "role").
			WithDetail("value", string(u.Role))
	}
	if u.Tenant.IsZero() {
		return apperror.NewValidation("city is required").WithDetail("field", "tenant")
	}
	return nil
}

// CanLogin checks if user can login.
func (u *User) CanLogin() error {
	if !u.IsActive {
		return apperror.NewForbidden("account is disabled")
	}
	return nil
}

// Name returns the name written into snapshots.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return strings.ToUpper(u.DisplayName)
	}
	return strings.ToUpper(u.Username)
}

// Token is an issued access token.
type Token struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
	TokenType   string    `json:"tokenType"`
}

// Credentials for login.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CreateUserRequest for user creation by a manager.
type CreateUserRequest struct {
	Username    string
	Password    string
	DisplayName string
	Role        Role
}
