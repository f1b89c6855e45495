package dto

import (
	"time"

	"distribuidora/internal/domain/auth"
)

// LoginRequest for user login. City is the city of registration.
type LoginRequest struct {
	City     string `json:"city" binding:"required,tenant"`
	Username string `json:"username" binding:"required,max=150"`
	Password string `json:"password" binding:"required"`
}

// ToCredentials converts to domain credentials.
func (r *LoginRequest) ToCredentials() auth.Credentials {
	return auth.Credentials{Username: r.Username, Password: r.Password}
}

// CreateUserRequest for user creation by a manager.
type CreateUserRequest struct {
	Username    string `json:"username" binding:"required,max=150"`
	Password    string `json:"password" binding:"required,min=8"`
	DisplayName string `json:"displayName" binding:"max=150"`
	Role        string `json:"role" binding:"required,upper_enum=MANAGER CASHIER CARRIER"`
}

// ToDomain converts to the domain request.
func (r *CreateUserRequest) ToDomain() auth.CreateUserRequest {
	return auth.CreateUserRequest{
		Username:    r.Username,
		Password:    r.Password,
		DisplayName: r.DisplayName,
		Role:        auth.Role(Upper(r.Role)),
	}
}

// TokenResponse represents an issued access token.
type TokenResponse struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
	TokenType   string    `json:"tokenType"`
}

// UserResponse represents user in API response.
type UserResponse struct {
	ID          string     `json:"id"`
	City        string     `json:"city"`
	Username    string     `json:"username"`
	DisplayName string     `json:"displayName"`
	Role        string     `json:"role"`
	IsActive    bool       `json:"isActive"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

// LoginResponse combines the token and the logged-in user.
type LoginResponse struct {
	Token TokenResponse `json:"token"`
	User  UserResponse  `json:"user"`
}

// FromToken creates response from a domain token.
func FromToken(t *auth.Token) TokenResponse {
	return TokenResponse{
		AccessToken: t.AccessToken,
		ExpiresAt:   t.ExpiresAt,
		TokenType:   t.TokenType,
	}
}

// FromUser creates response from a domain user.
func FromUser(u *auth.User) UserResponse {
	return UserResponse{
		ID:          u.ID.String(),
		City:        string(u.Tenant),
		Username:    u.Username,
		DisplayName: u.Name(),
		Role:        string(u.Role),
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
	}
}
