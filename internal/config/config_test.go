package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("APPROVAL_RETURNS", "true")
	t.Setenv("FOLIO_SALE_MODE", "shared")

	cfg, err := load(viper.New(), t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.ApprovalReturns)
	assert.False(t, cfg.ApprovalAdjustments)
	assert.Equal(t, "shared", cfg.FolioSaleMode)
	assert.Equal(t, "RUTA", cfg.DispatchRouteCustomer)
	assert.Equal(t, 12*time.Hour, cfg.JWTTTL)
	assert.Equal(t, []string{"URUAPAN", "LAZARO"}, cfg.TenantList())
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("TENANTS", "")

	dir := t.TempDir()
	content := "DATABASE_URL=postgres://db/app\nJWT_SECRET=fromfile\nTENANTS=lazaro\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600))

	cfg, err := load(viper.New(), dir)
	require.NoError(t, err)
	assert.Equal(t, "fromfile", cfg.JWTSecret)
	assert.Equal(t, []string{"lazaro"}, cfg.TenantList())
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")

	_, err := load(viper.New(), t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestRead_ToolsSkipJWT(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("JWT_SECRET", "")

	cfg, err := read(viper.New(), t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, cfg.storageErrors())
	assert.Error(t, cfg.Validate())
	assert.Equal(t, time.Hour, cfg.CleanupInterval)
	assert.False(t, cfg.MigrateOnStart)
}
