package product

import (
	"context"
	"fmt"

	"distribuidora/internal/core/apperror"
	"distribuidora/internal/core/id"
	"distribuidora/internal/core/tenant"
	"distribuidora/internal/core/tx"
	"distribuidora/internal/core/types"
	"distribuidora/internal/domain"
	"distribuidora/pkg/logger"
)

// CreateInput carries the fields accepted on product creation.
type CreateInput struct {
	Name     string
	Price    types.Money
	Quantity types.Quantity // opening stock
}

// UpdateInput carries the editable fields. Quantity is not one of them.
type UpdateInput struct {
	Name    *string
	Price   *types.Money
	Version int
}

// Service provides business logic for the Product catalog.
type Service struct {
	repo      Repository
	prices    PriceSeeder
	txManager tx.Manager
	hooks     *domain.HookRegistry[*Product]
}

// NewService creates a new Product service.
func NewService(repo Repository, prices PriceSeeder, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		prices:    prices,
		txManager: txManager,
		hooks:     domain.NewHookRegistry[*Product](),
	}
}

// Hooks returns the post-commit hook registry.
func (s *Service) Hooks() *domain.HookRegistry[*Product] { return s.hooks }

// Create stores a product and gives every customer of the city a price row
// at the list price.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Product, error) {
	t, err := tenant.Require(ctx)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}

	p := NewProduct(t, in.Name, in.Price)
	p.Quantity = in.Quantity
	if err := p.Validate(ctx); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, p); err != nil {
			return err
		}
		if err := s.prices.InsertForProduct(ctx, p.ID, p.Price); err != nil {
			return fmt.Errorf("seed customer prices: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.hooks.Fire(ctx, domain.AfterCreate, p)
	logger.Info(ctx, "product created", "id", p.ID, "name", p.Name)
	return p, nil
}

// Update changes name and list price. The stock quantity is read under lock
// and written back unchanged so a concurrent ledger write is never lost.
func (s *Service) Update(ctx context.Context, productID id.ID, in UpdateInput) (*Product, error) {
	var p *Product
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		p, err = s.repo.GetForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		if in.Version != 0 && in.Version != p.Version {
			return apperror.NewConcurrentModification("product", productID.String())
		}
		if in.Name != nil {
			p.Name = NormalizeName(*in.Name)
		}
		if in.Price != nil {
			p.Price = *in.Price
		}
		if err := p.Validate(ctx); err != nil {
			return err
		}
		return s.repo.Update(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	s.hooks.Fire(ctx, domain.AfterUpdate, p)
	return p, nil
}

// Delete removes a product. Historical rows keep the name snapshot and
// lose only the reference.
func (s *Service) Delete(ctx context.Context, productID id.ID) error {
	p, err := s.repo.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, productID); err != nil {
		return err
	}
	s.hooks.Fire(ctx, domain.AfterDelete, p)
	logger.Info(ctx, "product deleted", "id", productID)
	return nil
}

// GetByID retrieves a product.
func (s *Service) GetByID(ctx context.Context, productID id.ID) (*Product, error) {
	return s.repo.GetByID(ctx, productID)
}

// List retrieves products.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Product], error) {
	if filter.OrderBy == "" {
		filter.OrderBy = "name"
	}
	return s.repo.List(ctx, filter)
}
