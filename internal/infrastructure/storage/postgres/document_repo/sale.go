package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"distribuidora/internal/core/apperror"
	"distribuidora/internal/core/id"
	"distribuidora/internal/domain/documents/sale"
	"distribuidora/internal/infrastructure/storage/postgres"
)

const (
	salesTable     = "sales"
	saleLinesTable = "sale_lines"
)

var saleLineColumns = []string{
	"id", "sale_id", "product_id", "product_name", "quantity", "price", "created_at",
}

// SaleRepo implements sale.Repository.
type SaleRepo struct {
	*postgres.TenantRepo[*sale.Sale]
}

// NewSaleRepo creates a new sale repository.
func NewSaleRepo(txm *postgres.TxManager) *SaleRepo {
	return &SaleRepo{
		TenantRepo: postgres.NewTenantRepo(txm, salesTable, "sale",
			postgres.ExtractDBColumns[sale.Sale](),
			[]string{"folio", "customer_name", "seller"},
			func() *sale.Sale { return &sale.Sale{} },
		),
	}
}

var _ sale.Repository = (*SaleRepo)(nil)

// Create inserts the sale header. A folio collision means the counter row
// was reset behind our back.
func (r *SaleRepo) Create(ctx context.Context, s *sale.Sale) error {
	if err := r.TenantRepo.Create(ctx, s); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewConflict("sale folio already used").
				WithDetail("folio", s.Folio).
				WithCause(err)
		}
		return err
	}
	return nil
}

// SaveLines inserts the lines of a new sale. Lines never change afterwards.
func (r *SaleRepo) SaveLines(ctx context.Context, saleID id.ID, lines []sale.Line) error {
	if len(lines) == 0 {
		return nil
	}
	q := r.Builder().Insert(saleLinesTable).Columns(saleLineColumns...)
	for _, l := range lines {
		q = q.Values(l.ID, saleID, l.ProductID, l.ProductName, l.Quantity, l.Price, l.CreatedAt)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert lines: %w", err)
	}
	if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert sale lines: %w", err)
	}
	return nil
}

// GetLines returns a sale's lines in insertion order.
func (r *SaleRepo) GetLines(ctx context.Context, saleID id.ID) ([]sale.Line, error) {
	sql, args, err := r.Builder().
		Select(saleLineColumns...).
		From(saleLinesTable).
		Where(squirrel.Eq{"sale_id": saleID}).
		OrderBy("created_at", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	lines := []sale.Line{}
	if err := pgxscan.Select(ctx, r.Querier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get sale lines: %w", err)
	}
	return lines, nil
}
