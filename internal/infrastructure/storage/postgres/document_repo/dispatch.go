package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"distribuidora/internal/core/id"
	"distribuidora/internal/domain"
	"distribuidora/internal/domain/documents/dispatch"
	"distribuidora/internal/infrastructure/storage/postgres"
)

const (
	dispatchesTable        = "dispatches"
	dispatchProductsTable  = "dispatch_products"
	dispatchCustomersTable = "dispatch_customers"
	dispatchReturnsTable   = "dispatch_returns"
)

var (
	dispatchProductColumns  = postgres.ExtractDBColumns[dispatch.Product]()
	dispatchCustomerColumns = postgres.ExtractDBColumns[dispatch.Customer]()
)

// DispatchRepo implements dispatch.Repository.
type DispatchRepo struct {
	*postgres.TenantRepo[*dispatch.Dispatch]
	products  *postgres.TenantRepo[*dispatch.Product]
	customers *postgres.TenantRepo[*dispatch.Customer]
	returns   *postgres.TenantRepo[*dispatch.Return]
	batch     *postgres.BatchInserter
	exec      *postgres.BatchExecutor
}

// NewDispatchRepo creates a new dispatch repository.
func NewDispatchRepo(txm *postgres.TxManager) *DispatchRepo {
	return &DispatchRepo{
		TenantRepo: postgres.NewTenantRepo(txm, dispatchesTable, "dispatch",
			postgres.ExtractDBColumns[dispatch.Dispatch](),
			[]string{"folio", "route_name", "carrier_name"},
			func() *dispatch.Dispatch { return &dispatch.Dispatch{} },
		),
		products: postgres.NewTenantRepo(txm, dispatchProductsTable, "dispatch product",
			dispatchProductColumns, nil,
			func() *dispatch.Product { return &dispatch.Product{} },
		),
		customers: postgres.NewTenantRepo(txm, dispatchCustomersTable, "dispatch customer",
			dispatchCustomerColumns, nil,
			func() *dispatch.Customer { return &dispatch.Customer{} },
		),
		returns: postgres.NewTenantRepo(txm, dispatchReturnsTable, "dispatch return",
			postgres.ExtractDBColumns[dispatch.Return](),
			[]string{"product_name", "returned_by"},
			func() *dispatch.Return { return &dispatch.Return{} },
		),
		batch: postgres.NewBatchInserter(txm),
		exec:  postgres.NewBatchExecutor(txm),
	}
}

var _ dispatch.Repository = (*DispatchRepo)(nil)

// InsertProducts copies new product lines.
func (r *DispatchRepo) InsertProducts(ctx context.Context, lines []*dispatch.Product) error {
	rows := make([][]any, 0, len(lines))
	for _, l := range lines {
		rows = append(rows, rowOf(postgres.StructToMap(l), dispatchProductColumns))
	}
	if _, err := r.batch.CopyFromSlice(ctx, dispatchProductsTable, dispatchProductColumns, rows); err != nil {
		return fmt.Errorf("copy dispatch products: %w", err)
	}
	return nil
}

// UpdateProducts writes loaded, remaining and status of each line in one batch.
func (r *DispatchRepo) UpdateProducts(ctx context.Context, lines []*dispatch.Product) error {
	queries := make([]postgres.BatchQuery, 0, len(lines))
	for _, l := range lines {
		sql, args, err := r.Builder().
			Update(dispatchProductsTable).
			Set("loaded", l.Loaded).
			Set("remaining", l.Remaining).
			Set("status", l.Status).
			Where(squirrel.Eq{"id": l.ID, "tenant": l.Tenant}).
			ToSql()
		if err != nil {
			return fmt.Errorf("build update: %w", err)
		}
		queries = append(queries, postgres.BatchQuery{SQL: sql, Args: args})
	}
	return r.exec.ExecuteBatch(ctx, queries)
}

// GetProducts returns the product lines of a dispatch in load order.
func (r *DispatchRepo) GetProducts(ctx context.Context, dispatchID id.ID) ([]*dispatch.Product, error) {
	q, err := r.products.Select(ctx)
	if err != nil {
		return nil, err
	}
	lines, err := r.products.FindAll(ctx, q.Where(squirrel.Eq{"dispatch_id": dispatchID}).OrderBy("created_at", "id"))
	if err != nil {
		return nil, err
	}
	if lines == nil {
		lines = []*dispatch.Product{}
	}
	return lines, nil
}

// InsertCustomers copies new customer lines.
func (r *DispatchRepo) InsertCustomers(ctx context.Context, lines []*dispatch.Customer) error {
	rows := make([][]any, 0, len(lines))
	for _, l := range lines {
		rows = append(rows, rowOf(postgres.StructToMap(l), dispatchCustomerColumns))
	}
	if _, err := r.batch.CopyFromSlice(ctx, dispatchCustomersTable, dispatchCustomerColumns, rows); err != nil {
		return fmt.Errorf("copy dispatch customers: %w", err)
	}
	return nil
}

// UpdateCustomers writes the visit state of each line.
func (r *DispatchRepo) UpdateCustomers(ctx context.Context, lines []*dispatch.Customer) error {
	queries := make([]postgres.BatchQuery, 0, len(lines))
	for _, l := range lines {
		sql, args, err := r.Builder().
			Update(dispatchCustomersTable).
			Set("status", l.Status).
			Set("visited_at", l.VisitedAt).
			Where(squirrel.Eq{"id": l.ID, "tenant": l.Tenant}).
			ToSql()
		if err != nil {
			return fmt.Errorf("build update: %w", err)
		}
		queries = append(queries, postgres.BatchQuery{SQL: sql, Args: args})
	}
	return r.exec.ExecuteBatch(ctx, queries)
}

// GetCustomers returns the customer lines of a dispatch by name.
func (r *DispatchRepo) GetCustomers(ctx context.Context, dispatchID id.ID) ([]*dispatch.Customer, error) {
	q, err := r.customers.Select(ctx)
	if err != nil {
		return nil, err
	}
	lines, err := r.customers.FindAll(ctx, q.Where(squirrel.Eq{"dispatch_id": dispatchID}).OrderBy("customer_name"))
	if err != nil {
		return nil, err
	}
	if lines == nil {
		lines = []*dispatch.Customer{}
	}
	return lines, nil
}

// DeleteLines removes product and customer lines. Returns keep their row;
// dispatch_product_id is set to NULL by the foreign key.
func (r *DispatchRepo) DeleteLines(ctx context.Context, dispatchID id.ID) error {
	t, err := r.Tenant(ctx)
	if err != nil {
		return err
	}
	for _, table := range []string{dispatchProductsTable, dispatchCustomersTable} {
		sql, args, err := r.Builder().
			Delete(table).
			Where(squirrel.Eq{"dispatch_id": dispatchID, "tenant": t}).
			ToSql()
		if err != nil {
			return fmt.Errorf("build delete: %w", err)
		}
		if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("delete %s: %w", table, err)
		}
	}
	return nil
}

// CreateReturn inserts a return.
func (r *DispatchRepo) CreateReturn(ctx context.Context, ret *dispatch.Return) error {
	return r.returns.Create(ctx, ret)
}

// UpdateReturn saves a return with optimistic locking.
func (r *DispatchRepo) UpdateReturn(ctx context.Context, ret *dispatch.Return) error {
	return r.returns.Update(ctx, ret)
}

// GetReturnForUpdate locks a return row.
func (r *DispatchRepo) GetReturnForUpdate(ctx context.Context, returnID id.ID) (*dispatch.Return, error) {
	return r.returns.GetForUpdate(ctx, returnID)
}

// ListReturns lists returns of the city.
func (r *DispatchRepo) ListReturns(ctx context.Context, f domain.ListFilter) (domain.ListResult[*dispatch.Return], error) {
	return r.returns.List(ctx, f)
}

func rowOf(data map[string]any, columns []string) []any {
	row := make([]any, len(columns))
	for i, col := range columns {
		row[i] = data[col]
	}
	return row
}
