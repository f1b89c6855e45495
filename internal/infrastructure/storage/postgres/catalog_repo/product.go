// Package catalog_repo provides PostgreSQL implementations of the catalog
// repositories: products, customers with their prices, and routes.
package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"distribuidora/internal/core/apperror"
	"distribuidora/internal/domain/catalogs/product"
	"distribuidora/internal/infrastructure/storage/postgres"
)

const productTable = "products"

// ProductRepo implements product.Repository.
type ProductRepo struct {
	*postgres.TenantRepo[*product.Product]
}

// NewProductRepo creates a new product repository.
func NewProductRepo(txm *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		TenantRepo: postgres.NewTenantRepo(txm, productTable, "product",
			postgres.ExtractDBColumns[product.Product](),
			[]string{"name"},
			func() *product.Product { return &product.Product{} },
		),
	}
}

var _ product.Repository = (*ProductRepo)(nil)

// Update writes name and price only. quantity belongs to the stock ledger.
func (r *ProductRepo) Update(ctx context.Context, p *product.Product) error {
	t, err := r.Tenant(ctx)
	if err != nil {
		return err
	}

	sql, args, err := r.Builder().
		Update(productTable).
		Set("name", p.Name).
		Set("price", p.Price).
		Set("updated_at", p.UpdatedAt).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": p.ID, "tenant": t, "version": p.Version}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate("product", "name", p.Name).WithCause(err)
		}
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("product", p.ID.String())
	}
	p.Version++
	return nil
}
