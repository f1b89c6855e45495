// Package stock_repo provides the PostgreSQL implementation of the stock ledger.
package stock_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"distribuidora/internal/core/apperror"
	"distribuidora/internal/core/id"
	"distribuidora/internal/core/tenant"
	"distribuidora/internal/domain/stock"
	"distribuidora/internal/infrastructure/storage/postgres"
)

const (
	productsTable       = "products"
	stockMovementsTable = "stock_movements"
)

var movementColumns = []string{
	"id", "tenant", "product_id", "product_name",
	"delta", "balance_after", "source_type", "source_id", "created_at",
}

// StockRepo implements stock.Repository.
// Balances live on the products row; the journal is append-only.
type StockRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewStockRepo creates a new stock repository.
func NewStockRepo(txm *postgres.TxManager) *StockRepo {
	return &StockRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var _ stock.Repository = (*StockRepo)(nil)

func (r *StockRepo) tenantArg(ctx context.Context) (string, error) {
	k, err := tenant.Require(ctx)
	if err != nil {
		return "", apperror.NewInternal(err)
	}
	return string(k), nil
}

// LockBalances reads products with FOR UPDATE.
// ORDER BY id keeps the lock order identical across transactions.
func (r *StockRepo) LockBalances(ctx context.Context, productIDs []id.ID) (map[id.ID]stock.Balance, error) {
	t, err := r.tenantArg(ctx)
	if err != nil {
		return nil, err
	}

	sql, args, err := r.builder.
		Select("id", "name", "quantity").
		From(productsTable).
		Where(squirrel.Eq{"tenant": t, "id": productIDs}).
		OrderBy("id").
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []stock.Balance
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("lock products: %w", err)
	}

	out := make(map[id.ID]stock.Balance, len(rows))
	for _, b := range rows {
		out[b.ProductID] = b
	}
	return out, nil
}

// SetBalances writes the new quantities in one batch round-trip.
func (r *StockRepo) SetBalances(ctx context.Context, balances []stock.Balance) error {
	if len(balances) == 0 {
		return nil
	}
	t, err := r.tenantArg(ctx)
	if err != nil {
		return err
	}

	queries := make([]postgres.BatchQuery, 0, len(balances))
	for _, b := range balances {
		sql, args, err := r.builder.
			Update(productsTable).
			Set("quantity", b.Quantity).
			Set("updated_at", squirrel.Expr("now()")).
			Where(squirrel.Eq{"tenant": t, "id": b.ProductID}).
			ToSql()
		if err != nil {
			return fmt.Errorf("build update: %w", err)
		}
		queries = append(queries, postgres.BatchQuery{SQL: sql, Args: args})
	}

	if err := postgres.NewBatchExecutor(r.txm).ExecuteBatch(ctx, queries); err != nil {
		return fmt.Errorf("update quantities: %w", err)
	}
	return nil
}

// CreateMovements appends journal rows using COPY.
func (r *StockRepo) CreateMovements(ctx context.Context, movements []stock.Movement) error {
	if len(movements) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(movements))
	for _, m := range movements {
		rows = append(rows, []any{
			m.ID, string(m.Tenant), m.ProductID, m.ProductName,
			int64(m.Delta), int64(m.BalanceAfter), string(m.SourceType), m.SourceID, m.CreatedAt,
		})
	}

	if _, err := postgres.NewBatchInserter(r.txm).CopyFromSlice(ctx, stockMovementsTable, movementColumns, rows); err != nil {
		return fmt.Errorf("copy movements: %w", err)
	}
	return nil
}

// GetMovementHistory returns the journal of a product, newest first.
func (r *StockRepo) GetMovementHistory(ctx context.Context, productID id.ID, filter stock.MovementFilter) ([]stock.Movement, error) {
	t, err := r.tenantArg(ctx)
	if err != nil {
		return nil, err
	}

	q := r.builder.
		Select(movementColumns...).
		From(stockMovementsTable).
		Where(squirrel.Eq{"tenant": t, "product_id": productID})

	if filter.SourceType != nil {
		q = q.Where(squirrel.Eq{"source_type": string(*filter.SourceType)})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"created_at": *filter.ToDate})
	}

	q = q.OrderBy("created_at DESC", "id DESC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []stock.Movement
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("select movements: %w", err)
	}
	return movements, nil
}
