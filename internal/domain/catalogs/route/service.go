package route

import (
	"context"
	"fmt"

	"distribuidora/internal/core/apperror"
	"distribuidora/internal/core/id"
	"distribuidora/internal/core/tenant"
	"distribuidora/internal/core/tx"
	"distribuidora/internal/domain"
	"distribuidora/pkg/logger"
)

// Service provides business logic for routes.
type Service struct {
	repo      Repository
	users     domain.UserDirectory
	txManager tx.Manager
}

// NewService creates a new route service.
func NewService(repo Repository, users domain.UserDirectory, txManager tx.Manager) *Service {
	return &Service{repo: repo, users: users, txManager: txManager}
}

// Create stores a route with its seven days.
func (s *Service) Create(ctx context.Context, name string, carrierID *id.ID) (*Route, error) {
	t, err := tenant.Require(ctx)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}

	r := NewRoute(t, name)
	if err := r.Validate(ctx); err != nil {
		return nil, err
	}
	if carrierID != nil {
		carrier, err := s.users.LookupUser(ctx, *carrierID)
		if err != nil {
			return nil, err
		}
		r.AssignCarrier(&carrier.ID, carrier.Name)
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, r); err != nil {
			return err
		}
		if err := s.repo.CreateDays(ctx, r.Days); err != nil {
			return fmt.Errorf("create route days: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "route created", "id", r.ID, "name", r.Name)
	return r, nil
}

// GetByID retrieves a route with its days.
func (s *Service) GetByID(ctx context.Context, routeID id.ID) (*Route, error) {
	r, err := s.repo.GetByID(ctx, routeID)
	if err != nil {
		return nil, err
	}
	r.Days, err = s.repo.GetDays(ctx, routeID)
	if err != nil {
		return nil, fmt.Errorf("get days: %w", err)
	}
	return r, nil
}

// List retrieves routes.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Route], error) {
	if filter.OrderBy == "" {
		filter.OrderBy = "name"
	}
	return s.repo.List(ctx, filter)
}

// GetDay retrieves one route day.
func (s *Service) GetDay(ctx context.Context, dayID id.ID) (*Day, error) {
	return s.repo.GetDay(ctx, dayID)
}

// SetDayCarrier reassigns the carrier of a single day; nil clears it.
func (s *Service) SetDayCarrier(ctx context.Context, dayID id.ID, carrierID *id.ID) (*Day, error) {
	day, err := s.repo.GetDay(ctx, dayID)
	if err != nil {
		return nil, err
	}
	day.CarrierID, day.CarrierName = nil, ""
	if carrierID != nil {
		carrier, err := s.users.LookupUser(ctx, *carrierID)
		if err != nil {
			return nil, err
		}
		day.CarrierID = &carrier.ID
		day.CarrierName = carrier.Name
	}
	if err := s.repo.UpdateDay(ctx, day); err != nil {
		return nil, err
	}
	return day, nil
}

// DayCustomers lists the customers subscribed to a day.
func (s *Service) DayCustomers(ctx context.Context, dayID id.ID) ([]CustomerRef, error) {
	if _, err := s.repo.GetDay(ctx, dayID); err != nil {
		return nil, err
	}
	return s.repo.DayCustomers(ctx, dayID)
}
