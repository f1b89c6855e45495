// Package document_repo provides PostgreSQL implementations of the document
// repositories: adjustments, sales and dispatches with their lines.
package document_repo

import (
	"distribuidora/internal/domain/documents/adjustment"
	"distribuidora/internal/infrastructure/storage/postgres"
)

// AdjustmentRepo implements adjustment.Repository.
type AdjustmentRepo struct {
	*postgres.TenantRepo[*adjustment.Adjustment]
}

// NewAdjustmentRepo creates a new adjustment repository.
func NewAdjustmentRepo(txm *postgres.TxManager) *AdjustmentRepo {
	return &AdjustmentRepo{
		TenantRepo: postgres.NewTenantRepo(txm, "adjustments", "adjustment",
			postgres.ExtractDBColumns[adjustment.Adjustment](),
			[]string{"product_name", "cashier", "observations"},
			func() *adjustment.Adjustment { return &adjustment.Adjustment{} },
		),
	}
}

var _ adjustment.Repository = (*AdjustmentRepo)(nil)
