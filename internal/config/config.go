// Package config loads runtime configuration from environment variables
// (and an optional .env file) using viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration.
type Config struct {
	// Server
	Port            string        `mapstructure:"APP_PORT"`
	Env             string        `mapstructure:"APP_ENV"` // development | production
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`

	// Database
	DatabaseURL      string        `mapstructure:"DATABASE_URL"`
	DBMaxConns       int32         `mapstructure:"DB_MAX_CONNS"`
	StatementTimeout time.Duration `mapstructure:"STATEMENT_TIMEOUT"`
	MigrateOnStart   bool          `mapstructure:"MIGRATE_ON_START"`

	// Redis (optional, list caching is disabled when empty)
	RedisURL string        `mapstructure:"REDIS_URL"`
	CacheTTL time.Duration `mapstructure:"CACHE_TTL"`

	// Auth
	JWTSecret string        `mapstructure:"JWT_SECRET"`
	JWTTTL    time.Duration `mapstructure:"JWT_TTL"`

	// Business
	Tenants               string `mapstructure:"TENANTS"`
	ApprovalAdjustments   bool   `mapstructure:"APPROVAL_ADJUSTMENTS"`
	ApprovalReturns       bool   `mapstructure:"APPROVAL_RETURNS"`
	FolioSaleMode         string `mapstructure:"FOLIO_SALE_MODE"`
	DispatchRouteCustomer string `mapstructure:"DISPATCH_ROUTE_CUSTOMER"`
	IdempotencyEnabled    bool   `mapstructure:"IDEMPOTENCY_ENABLED"`

	// Worker
	IdempotencyTTL  time.Duration `mapstructure:"IDEMPOTENCY_TTL"`
	CleanupInterval time.Duration `mapstructure:"CLEANUP_INTERVAL"`
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// TenantList returns the configured cities.
func (c *Config) TenantList() []string {
	var out []string
	for _, p := range strings.Split(c.Tenants, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks required keys.
func (c *Config) Validate() error {
	errs := c.storageErrors()
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	return errors.Join(errs...)
}

func (c *Config) storageErrors() []error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if len(c.TenantList()) == 0 {
		errs = append(errs, errors.New("TENANTS must list at least one city"))
	}
	return errs
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SHUTDOWN_TIMEOUT", 30*time.Second)
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("STATEMENT_TIMEOUT", 30*time.Second)
	v.SetDefault("MIGRATE_ON_START", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("CACHE_TTL", 5*time.Minute)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("JWT_TTL", 12*time.Hour)
	v.SetDefault("TENANTS", "URUAPAN,LAZARO")
	v.SetDefault("APPROVAL_ADJUSTMENTS", false)
	v.SetDefault("APPROVAL_RETURNS", false)
	v.SetDefault("FOLIO_SALE_MODE", "per_kind")
	v.SetDefault("DISPATCH_ROUTE_CUSTOMER", "RUTA")
	v.SetDefault("IDEMPOTENCY_ENABLED", true)
	v.SetDefault("IDEMPOTENCY_TTL", 24*time.Hour)
	v.SetDefault("CLEANUP_INTERVAL", time.Hour)
}

// Load reads configuration from environment variables (and optional .env file).
func Load() (*Config, error) {
	return load(viper.New(), ".")
}

// LoadForTools reads the same sources as Load but only requires the database
// and the city list. The seed and tenant commands never sign tokens.
func LoadForTools() (*Config, error) {
	cfg, err := read(viper.New(), ".")
	if err != nil {
		return nil, err
	}
	if err := errors.Join(cfg.storageErrors()...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func load(v *viper.Viper, dir string) (*Config, error) {
	cfg, err := read(v, dir)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func read(v *viper.Viper, dir string) (*Config, error) {
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(dir)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Optional .env file for local development, does not fail if missing
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}
