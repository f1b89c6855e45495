// Package folio provides the PostgreSQL implementation of folio numbering.
// It implements core/folio.Generator on top of the folio_counters table.
package folio

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	corefolio "distribuidora/internal/core/folio"
	"distribuidora/internal/core/tenant"
	"distribuidora/internal/infrastructure/storage/postgres"
)

// Querier is the subset of postgres.Querier the counter needs.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Service hands out folios from one counter row per (tenant, kind).
//
// The UPSERT takes a row lock on the counter, so concurrent creators in the
// same city serialize on it until the enclosing transaction ends. Numbers
// are never cached in memory: a rolled back document releases its folio.
type Service struct {
	staticQuerier Querier
	txm           *postgres.TxManager
}

// Ensure compile-time interface compliance.
var _ corefolio.Generator = (*Service)(nil)

// New creates a service bound to a fixed querier (tests, CLI).
func New(querier Querier) *Service {
	return &Service{staticQuerier: querier}
}

// NewWithTxManager creates a service that joins the transaction in ctx.
func NewWithTxManager(txm *postgres.TxManager) *Service {
	return &Service{txm: txm}
}

func (s *Service) getQuerier(ctx context.Context) Querier {
	if s.txm != nil {
		return s.txm.GetQuerier(ctx)
	}
	return s.staticQuerier
}

// Next returns the next formatted folio for cfg in tenant t.
func (s *Service) Next(ctx context.Context, t tenant.Key, cfg corefolio.Config) (string, error) {
	if s == nil {
		return "", fmt.Errorf("folio service is not initialized")
	}
	if t.IsZero() {
		return "", tenant.ErrNoTenantInContext
	}

	var value int64
	err := s.getQuerier(ctx).QueryRow(ctx, `
		INSERT INTO folio_counters (tenant, kind, last_value)
		VALUES ($1, $2, 1)
		ON CONFLICT (tenant, kind) DO UPDATE
		SET last_value = folio_counters.last_value + 1, updated_at = now()
		RETURNING last_value
	`, string(t), string(cfg.Kind)).Scan(&value)
	if err != nil {
		return "", fmt.Errorf("next folio %s/%s: %w", t, cfg.Kind, err)
	}
	return cfg.Format(value), nil
}

// SetNext makes the next call to Next for (t, kind) return value.
func (s *Service) SetNext(ctx context.Context, t tenant.Key, kind corefolio.Kind, value int64) error {
	if value < 1 {
		return fmt.Errorf("next folio must be positive, got %d", value)
	}

	var last int64
	err := s.getQuerier(ctx).QueryRow(ctx, `
		INSERT INTO folio_counters (tenant, kind, last_value)
		VALUES ($1, $2, $3)
		ON CONFLICT (tenant, kind) DO UPDATE
		SET last_value = EXCLUDED.last_value, updated_at = now()
		RETURNING last_value
	`, string(t), string(kind), value-1).Scan(&last)
	if err != nil {
		return fmt.Errorf("set next folio %s/%s: %w", t, kind, err)
	}
	return nil
}
