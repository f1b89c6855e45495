package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"distribuidora/internal/core/apperror"
	"distribuidora/internal/core/tenant"
	"distribuidora/internal/domain/auth"
	"distribuidora/internal/domain/domaintest"
)

func TestLogin_IssuesTokenForCity(t *testing.T) {
	f := domaintest.NewFixture(domaintest.Options{})
	ctx := domaintest.Ctx(tenant.Uruapan, "admin")

	u, err := f.Auth.CreateUser(ctx, auth.CreateUserRequest{
		Username:    "Maria",
		Password:    "secreto-123",
		DisplayName: "Maria Perez",
		Role:        auth.RoleManager,
	})
	require.NoError(t, err)
	assert.Equal(t, "maria", u.Username)
	assert.NotEqual(t, "secreto-123", u.PasswordHash)

	tok, logged, err := f.Auth.Login(ctx, "uruapan", auth.Credentials{Username: " MARIA ", Password: "secreto-123"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, logged.ID)
	assert.Equal(t, "Bearer", tok.TokenType)

	claims, err := auth.NewJWTService(auth.DefaultJWTConfig("test-secret")).ValidateToken(tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID.String(), claims.UserID)
	assert.Equal(t, string(tenant.Uruapan), claims.Tenant)
	assert.Equal(t, string(auth.RoleManager), claims.Role)
	assert.Equal(t, "MARIA PEREZ", u.Name())
}

func TestLogin_Rejections(t *testing.T) {
	f := domaintest.NewFixture(domaintest.Options{})
	ctx := domaintest.Ctx(tenant.Uruapan, "admin")
	_, err := f.Auth.CreateUser(ctx, auth.CreateUserRequest{
		Username: "maria", Password: "secreto-123", Role: auth.RoleCashier,
	})
	require.NoError(t, err)

	_, _, err = f.Auth.Login(ctx, "uruapan", auth.Credentials{Username: "maria", Password: "otra-clave"})
	assert.True(t, apperror.IsAppError(err))
	assert.Equal(t, 401, apperror.GetHTTPStatus(err))

	// users belong to one city
	_, _, err = f.Auth.Login(ctx, "lazaro", auth.Credentials{Username: "maria", Password: "secreto-123"})
	assert.Equal(t, 401, apperror.GetHTTPStatus(err))

	_, _, err = f.Auth.Login(ctx, "morelia", auth.Credentials{Username: "maria", Password: "secreto-123"})
	assert.True(t, apperror.IsValidation(err))
}

func TestCreateUser_Validation(t *testing.T) {
	f := domaintest.NewFixture(domaintest.Options{})
	ctx := domaintest.Ctx(tenant.Uruapan, "admin")

	_, err := f.Auth.CreateUser(ctx, auth.CreateUserRequest{Username: "maria", Password: "corta", Role: auth.RoleCashier})
	assert.True(t, apperror.IsValidation(err))

	_, err = f.Auth.CreateUser(ctx, auth.CreateUserRequest{Username: "maria", Password: "secreto-123", Role: "ADMIN"})
	assert.True(t, apperror.IsValidation(err))

	_, err = f.Auth.CreateUser(ctx, auth.CreateUserRequest{Username: "maria", Password: "secreto-123", Role: auth.RoleCashier})
	require.NoError(t, err)
	_, err = f.Auth.CreateUser(ctx, auth.CreateUserRequest{Username: "maria", Password: "secreto-123", Role: auth.RoleCashier})
	assert.True(t, apperror.IsConflict(err))

	// same username in the other city is fine
	_, err = f.Auth.CreateUser(domaintest.Ctx(tenant.Lazaro, "admin"),
		auth.CreateUserRequest{Username: "maria", Password: "secreto-123", Role: auth.RoleCashier})
	require.NoError(t, err)
}

func TestValidateToken_RejectsForeignSecret(t *testing.T) {
	u := auth.NewUser(tenant.Lazaro, "luis", "hash", auth.RoleCarrier)
	tok, _, err := auth.NewJWTService(auth.DefaultJWTConfig("one")).GenerateAccessToken(u)
	require.NoError(t, err)

	_, err = auth.NewJWTService(auth.DefaultJWTConfig("two")).ValidateToken(tok)
	assert.Error(t, err)
}
