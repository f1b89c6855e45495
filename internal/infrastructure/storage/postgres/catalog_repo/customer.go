package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"distribuidora/internal/core/id"
	"distribuidora/internal/domain/catalogs/customer"
	"distribuidora/internal/infrastructure/storage/postgres"
)

const (
	customerTable     = "customers"
	addressTable      = "customer_addresses"
	customerDaysTable = "customer_route_days"
)

// CustomerRepo implements customer.Repository.
type CustomerRepo struct {
	*postgres.TenantRepo[*customer.Customer]
}

// NewCustomerRepo creates a new customer repository.
func NewCustomerRepo(txm *postgres.TxManager) *CustomerRepo {
	return &CustomerRepo{
		TenantRepo: postgres.NewTenantRepo(txm, customerTable, "customer",
			postgres.ExtractDBColumns[customer.Customer](),
			[]string{"name"},
			func() *customer.Customer { return &customer.Customer{} },
		),
	}
}

var _ customer.Repository = (*CustomerRepo)(nil)

// FindByName looks a customer up by its normalized name.
func (r *CustomerRepo) FindByName(ctx context.Context, name string) (*customer.Customer, error) {
	q, err := r.Select(ctx)
	if err != nil {
		return nil, err
	}
	return r.FindOne(ctx, q.Where(squirrel.Eq{"name": name}).Limit(1), name)
}

// SaveAddress inserts or replaces the customer's address.
func (r *CustomerRepo) SaveAddress(ctx context.Context, addr *customer.Address) error {
	sql, args, err := r.Builder().
		Insert(addressTable).
		Columns("customer_id", "street", "neighborhood", "city", "phone", "reference").
		Values(addr.CustomerID, addr.Street, addr.Neighborhood, addr.City, addr.Phone, addr.Reference).
		Suffix(`ON CONFLICT (customer_id) DO UPDATE SET
			street = EXCLUDED.street,
			neighborhood = EXCLUDED.neighborhood,
			city = EXCLUDED.city,
			phone = EXCLUDED.phone,
			reference = EXCLUDED.reference`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build address upsert: %w", err)
	}
	if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("save address: %w", err)
	}
	return nil
}

// GetAddress returns nil when the customer has no address.
func (r *CustomerRepo) GetAddress(ctx context.Context, customerID id.ID) (*customer.Address, error) {
	sql, args, err := r.Builder().
		Select("customer_id", "street", "neighborhood", "city", "phone", "reference").
		From(addressTable).
		Where(squirrel.Eq{"customer_id": customerID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var addr customer.Address
	if err := pgxscan.Get(ctx, r.Querier(ctx), &addr, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get address: %w", err)
	}
	return &addr, nil
}

// SetRouteDays replaces the customer's subscriptions.
func (r *CustomerRepo) SetRouteDays(ctx context.Context, customerID id.ID, dayIDs []id.ID) error {
	q := r.Querier(ctx)

	sql, args, err := r.Builder().
		Delete(customerDaysTable).
		Where(squirrel.Eq{"customer_id": customerID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("clear route days: %w", err)
	}
	if len(dayIDs) == 0 {
		return nil
	}

	ins := r.Builder().Insert(customerDaysTable).Columns("customer_id", "route_day_id")
	for _, d := range dayIDs {
		ins = ins.Values(customerID, d)
	}
	sql, args, err = ins.Suffix("ON CONFLICT DO NOTHING").ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert route days: %w", postgres.TranslateWriteError("route day", err))
	}
	return nil
}

// GetRouteDays returns the ids of the days the customer is subscribed to.
func (r *CustomerRepo) GetRouteDays(ctx context.Context, customerID id.ID) ([]id.ID, error) {
	sql, args, err := r.Builder().
		Select("route_day_id").
		From(customerDaysTable).
		Where(squirrel.Eq{"customer_id": customerID}).
		OrderBy("route_day_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	ids := []id.ID{}
	if err := pgxscan.Select(ctx, r.Querier(ctx), &ids, sql, args...); err != nil {
		return nil, fmt.Errorf("get route days: %w", err)
	}
	return ids, nil
}
