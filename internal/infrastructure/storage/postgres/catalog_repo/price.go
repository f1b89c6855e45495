package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"distribuidora/internal/core/apperror"
	"distribuidora/internal/core/id"
	"distribuidora/internal/core/types"
	"distribuidora/internal/domain/catalogs/customer"
	"distribuidora/internal/domain/catalogs/product"
	"distribuidora/internal/infrastructure/storage/postgres"
)

const priceTable = "customer_prices"

// PriceRepo implements customer.PriceRepository and product.PriceSeeder.
type PriceRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewPriceRepo creates a new price repository.
func NewPriceRepo(txm *postgres.TxManager) *PriceRepo {
	return &PriceRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var (
	_ customer.PriceRepository = (*PriceRepo)(nil)
	_ product.PriceSeeder      = (*PriceRepo)(nil)
)

// InsertForCustomer copies every product's list price of the city.
func (r *PriceRepo) InsertForCustomer(ctx context.Context, customerID id.ID) error {
	t, err := requireTenant(ctx)
	if err != nil {
		return err
	}
	_, err = r.txm.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO customer_prices (id, tenant, customer_id, product_id, price, updated_at)
		SELECT gen_random_uuid(), p.tenant, $2, p.id, p.price, now()
		FROM products p
		WHERE p.tenant = $1
		ON CONFLICT (customer_id, product_id) DO NOTHING`,
		t, customerID)
	if err != nil {
		return fmt.Errorf("seed customer prices: %w", err)
	}
	return nil
}

// InsertForProduct gives every customer of the city a row at price.
func (r *PriceRepo) InsertForProduct(ctx context.Context, productID id.ID, price types.Money) error {
	t, err := requireTenant(ctx)
	if err != nil {
		return err
	}
	_, err = r.txm.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO customer_prices (id, tenant, customer_id, product_id, price, updated_at)
		SELECT gen_random_uuid(), c.tenant, c.id, $2, $3, now()
		FROM customers c
		WHERE c.tenant = $1
		ON CONFLICT (customer_id, product_id) DO NOTHING`,
		t, productID, price)
	if err != nil {
		return fmt.Errorf("seed product prices: %w", err)
	}
	return nil
}

// Upsert sets the price one customer pays for one product.
func (r *PriceRepo) Upsert(ctx context.Context, customerID, productID id.ID, price types.Money) error {
	t, err := requireTenant(ctx)
	if err != nil {
		return err
	}
	sql, args, err := r.builder.
		Insert(priceTable).
		Columns("id", "tenant", "customer_id", "product_id", "price", "updated_at").
		Values(id.New(), t, customerID, productID, price, squirrel.Expr("now()")).
		Suffix("ON CONFLICT (customer_id, product_id) DO UPDATE SET price = EXCLUDED.price, updated_at = now()").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.TranslateWriteError("customer price", err)
	}
	return nil
}

func (r *PriceRepo) selectPrices(t string) squirrel.SelectBuilder {
	return r.builder.
		Select("cp.id", "cp.customer_id", "cp.product_id", "p.name AS product_name",
			"p.price AS list_price", "cp.price", "cp.updated_at").
		From(priceTable + " cp").
		Join("products p ON p.id = cp.product_id").
		Where(squirrel.Eq{"cp.tenant": t})
}

// Get returns one price row with the product's current list price.
func (r *PriceRepo) Get(ctx context.Context, customerID, productID id.ID) (*customer.Price, error) {
	t, err := requireTenant(ctx)
	if err != nil {
		return nil, err
	}
	sql, args, err := r.selectPrices(t).
		Where(squirrel.Eq{"cp.customer_id": customerID, "cp.product_id": productID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p customer.Price
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("customer price", productID.String()).
				WithDetail("customer_id", customerID.String())
		}
		return nil, fmt.Errorf("get price: %w", err)
	}
	return &p, nil
}

// ListByCustomer returns the customer's prices ordered by product name.
func (r *PriceRepo) ListByCustomer(ctx context.Context, customerID id.ID) ([]customer.Price, error) {
	t, err := requireTenant(ctx)
	if err != nil {
		return nil, err
	}
	sql, args, err := r.selectPrices(t).
		Where(squirrel.Eq{"cp.customer_id": customerID}).
		OrderBy("p.name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	prices := []customer.Price{}
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &prices, sql, args...); err != nil {
		return nil, fmt.Errorf("list prices: %w", err)
	}
	return prices, nil
}
