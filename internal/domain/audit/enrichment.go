// Package audit provides the audit trail contract and actor snapshots.
package audit

import (
	"context"
	"strings"

	appctx "distribuidora/internal/core/context"
)

// Actor returns the acting user's display name, upper-cased, for the
// cashier/seller/attendant snapshot fields. Empty when no user is in ctx.
func Actor(ctx context.Context) string {
	return strings.ToUpper(strings.TrimSpace(appctx.GetDisplayName(ctx)))
}

// EnrichActor fills *field with the acting user when the caller left it empty,
// and upper-cases whatever ends up there.
func EnrichActor(ctx context.Context, field *string) {
	if field == nil {
		return
	}
	if strings.TrimSpace(*field) == "" {
		*field = Actor(ctx)
		return
	}
	*field = strings.ToUpper(strings.TrimSpace(*field))
}
