package customer

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

// CreateInput carries everything created together with a customer.
type CreateInput struct {
	Name        string
	Payment     PaymentKind
	Address     *Address
	RouteDayIDs []id.ID
	Prices      []PriceOverride
}

// UpdateInput carries the editable fields; nil leaves a field unchanged.
type UpdateInput struct {
	Name        *string
	Payment     *PaymentKind
	Address     *Address
	RouteDayIDs []id.ID // nil keeps subscriptions, empty clears them
	Version     int
}

// Service provides business logic for the Customer catalog.
type Service struct {
	repo      Repository
	prices    PriceRepository
	txManager tx.Manager
	hooks     *domain.HookRegistry[*Customer]
}

// NewService creates a new Customer service.
func NewService(repo Repository, prices PriceRepository, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		prices:    prices,
		txManager: txManager,
		hooks:     domain.NewHookRegistry[*Customer](),
	}
}

// Hooks returns the post-commit hook registry.
func (s *Service) Hooks() *domain.HookRegistry[*Customer] { return s.hooks }

// Create stores the customer, its address, a price row per product and its
// route-day links in one transaction.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Customer, error) {
	t, err := tenant.Require(ctx)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}

	c := NewCustomer(t, in.Name, in.Payment)
	if c.Payment == "" {
		c.Payment = PaymentCash
	}
	if err := c.Validate(ctx); err != nil {
		return nil, err
	}
	for _, o := range in.Prices {
		if o.Price.IsNegative() {
			return nil, apperror.NewValidation("price cannot be negative").
				WithDetail("productId", o.ProductID.String())
		}
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, c); err != nil {
			return err
		}
		if in.Address != nil {
			addr := *in.Address
			addr.CustomerID = c.ID
			if err := s.repo.SaveAddress(ctx, &addr); err != nil {
				return fmt.Errorf("save address: %w", err)
			}
			c.Address = &addr
		}
		if err := s.prices.InsertForCustomer(ctx, c.ID); err != nil {
			return fmt.Errorf("seed prices: %w", err)
		}
		for _, o := range in.Prices {
			if err := s.prices.Upsert(ctx, c.ID, o.ProductID, o.Price); err != nil {
				return err
			}
		}
		if err := s.repo.SetRouteDays(ctx, c.ID, in.RouteDayIDs); err != nil {
			return err
		}
		c.RouteDayIDs = append([]id.ID{}, in.RouteDayIDs...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.hooks.Fire(ctx, domain.AfterCreate, c)
	logger.Info(ctx, "customer created", "id", c.ID, "name", c.Name)
	return c, nil
}

// Update modifies a customer with optimistic locking.
func (s *Service) Update(ctx context.Context, customerID id.ID, in UpdateInput) (*Customer, error) {
	var c *Customer
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		c, err = s.repo.GetByID(ctx, customerID)
		if err != nil {
			return err
		}
		if in.Version != 0 {
			c.Version = in.Version
		}
		if in.Name != nil {
			c.Name = NormalizeName(*in.Name)
		}
		if in.Payment != nil {
			c.Payment = *in.Payment
		}
		if err := c.Validate(ctx); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, c); err != nil {
			return err
		}
		if in.Address != nil {
			addr := *in.Address
			addr.CustomerID = c.ID
			if err := s.repo.SaveAddress(ctx, &addr); err != nil {
				return fmt.Errorf("save address: %w", err)
			}
		}
		if in.RouteDayIDs != nil {
			if err := s.repo.SetRouteDays(ctx, c.ID, in.RouteDayIDs); err != nil {
				return err
			}
		}
		return s.load(ctx, c)
	})
	if err != nil {
		return nil, err
	}

	s.hooks.Fire(ctx, domain.AfterUpdate, c)
	return c, nil
}

// Delete removes a customer; address, prices and subscriptions go with it.
func (s *Service) Delete(ctx context.Context, customerID id.ID) error {
	c, err := s.repo.GetByID(ctx, customerID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, customerID); err != nil {
		return err
	}
	s.hooks.Fire(ctx, domain.AfterDelete, c)
	return nil
}

// GetByID retrieves a customer with address and route days.
func (s *Service) GetByID(ctx context.Context, customerID id.ID) (*Customer, error) {
	c, err := s.repo.GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if err := s.load(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) load(ctx context.Context, c *Customer) error {
	addr, err := s.repo.GetAddress(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("get address: %w", err)
	}
	c.Address = addr
	days, err := s.repo.GetRouteDays(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("get route days: %w", err)
	}
	c.RouteDayIDs = days
	return nil
}

// List retrieves customers.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Customer], error) {
	if filter.OrderBy == "" {
		filter.OrderBy = "name"
	}
	return s.repo.List(ctx, filter)
}

// Prices lists the customer's prices with the discount against list price.
func (s *Service) Prices(ctx context.Context, customerID id.ID) ([]Price, error) {
	if _, err := s.repo.GetByID(ctx, customerID); err != nil {
		return nil, err
	}
	return s.prices.ListByCustomer(ctx, customerID)
}

// SetPrice changes what a customer pays for one product.
func (s *Service) SetPrice(ctx context.Context, customerID, productID id.ID, price types.Money) (*Price, error) {
	if price.IsNegative() {
		return nil, apperror.NewValidation("price cannot be negative").WithDetail("field", "price")
	}
	var out *Price
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetByID(ctx, customerID); err != nil {
			return err
		}
		if err := s.prices.Upsert(ctx, customerID, productID, price); err != nil {
			return err
		}
		var err error
		out, err = s.prices.Get(ctx, customerID, productID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
