package folio

import (
	"context"

	"distribuidora/internal/core/tenant"
)

// Generator hands out folios.
// This is the domain contract - implementations live in infrastructure layer.
//
// Next must run inside the caller's transaction: a rolled back document also
// rolls back its folio, so sequences stay gapless.
type Generator interface {
	Next(ctx context.Context, t tenant.Key, cfg Config) (string, error)

	// SetNext makes the following Next return value (for migration purposes).
	SetNext(ctx context.Context, t tenant.Key, kind Kind, value int64) error
}
