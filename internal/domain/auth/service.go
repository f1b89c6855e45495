package auth

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"distribuidora/internal/core/apperror"
	"distribuidora/internal/core/id"
	"distribuidora/internal/core/tenant"
	"distribuidora/internal/domain"
	"distribuidora/pkg/logger"
)

// PasswordMinLength is the shortest accepted password.
const PasswordMinLength = 8

// Service provides authentication and user management.
type Service struct {
	userRepo   UserRepository
	tenants    *tenant.Registry
	jwtService *JWTService
}

// NewService creates a new auth service.
func NewService(userRepo UserRepository, tenants *tenant.Registry, jwtService *JWTService) *Service {
	return &Service{
		userRepo:   userRepo,
		tenants:    tenants,
		jwtService: jwtService,
	}
}

var _ domain.UserDirectory = (*Service)(nil)

// HashPassword hashes a plain password with bcrypt.
func HashPassword(password string) (string, error) {
	if len(password) < PasswordMinLength {
		return "", apperror.NewValidation(
			fmt.Sprintf("password must be at least %d characters", PasswordMinLength),
		).WithDetail("field", "password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CreateUser registers a user in the caller's city.
func (s *Service) CreateUser(ctx context.Context, req CreateUserRequest) (*User, error) {
	t, err := tenant.Require(ctx)
	if err != nil {
		return nil, apperror.NewValidation("city is required").WithDetail("header", "X-Tenant-ID")
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := NewUser(t, req.Username, hash, req.Role)
	user.DisplayName = strings.TrimSpace(req.DisplayName)
	if err := user.Validate(ctx); err != nil {
		return nil, err
	}

	if _, err := s.userRepo.GetByUsername(ctx, t, user.Username); err == nil {
		return nil, apperror.NewDuplicate("user", "username", user.Username)
	} else if !apperror.IsNotFound(err) {
		return nil, fmt.Errorf("check username: %w", err)
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	logger.Info(ctx, "user created", "user_id", user.ID, "role", string(user.Role))
	return user, nil
}

// Login authenticates a user of the given city and returns an access token.
func (s *Service) Login(ctx context.Context, city string, creds Credentials) (*Token, *User, error) {
	t, err := s.tenants.Resolve(city)
	if err != nil {
		return nil, nil, apperror.NewValidation("unknown city").WithDetail("city", city)
	}

	user, err := s.userRepo.GetByUsername(ctx, t, strings.ToLower(strings.TrimSpace(creds.Username)))
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, nil, apperror.NewUnauthorized("invalid credentials")
		}
		return nil, nil, err
	}
	if err := user.CanLogin(); err != nil {
		return nil, nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		return nil, nil, apperror.NewUnauthorized("invalid credentials")
	}

	access, expiresAt, err := s.jwtService.GenerateAccessToken(user)
	if err != nil {
		return nil, nil, fmt.Errorf("generate token: %w", err)
	}

	if err := s.userRepo.TouchLogin(tenant.WithTenant(ctx, t), user.ID); err != nil {
		logger.Warn(ctx, "failed to record login", "user_id", user.ID, "error", err)
	}

	logger.Info(ctx, "user logged in", "user_id", user.ID, "tenant", string(t))

	return &Token{AccessToken: access, ExpiresAt: expiresAt, TokenType: "Bearer"}, user, nil
}

// GetUserByID retrieves a user of the caller's city.
func (s *Service) GetUserByID(ctx context.Context, userID id.ID) (*User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// ListUsers lists users of the caller's city.
func (s *Service) ListUsers(ctx context.Context) ([]*User, error) {
	return s.userRepo.List(ctx)
}

// LookupUser implements domain.UserDirectory.
func (s *Service) LookupUser(ctx context.Context, userID id.ID) (domain.UserRef, error) {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return domain.UserRef{}, err
	}
	return domain.UserRef{ID: u.ID, Name: u.Name(), Role: string(u.Role)}, nil
}
