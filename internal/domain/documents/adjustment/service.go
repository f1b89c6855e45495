package adjustment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"distribuidora/internal/core/apperror"
	"distribuidora/internal/core/id"
	"distribuidora/internal/core/tenant"
	"distribuidora/internal/core/tx"
	"distribuidora/internal/core/types"
	"distribuidora/internal/domain"
	"distribuidora/internal/domain/audit"
	"distribuidora/internal/domain/stock"
	"distribuidora/pkg/logger"
)

// CreateInput carries a new adjustment.
type CreateInput struct {
	Warehouse    string
	ProductID    id.ID
	Quantity     types.Quantity
	Kind         Kind
	Observations string
}

// Config switches the approval gate.
type Config struct {
	// RequireApproval defers the stock effect from creation to Approve.
	RequireApproval bool
}

// Service provides business operations for adjustments.
type Service struct {
	repo      Repository
	ledger    *stock.Ledger
	txManager tx.Manager
	audit     audit.Recorder
	config    Config
	hooks     *domain.HookRegistry[*Adjustment]
}

// NewService creates a new adjustment service.
func NewService(repo Repository, ledger *stock.Ledger, txManager tx.Manager, recorder audit.Recorder, cfg Config) *Service {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	return &Service{
		repo:      repo,
		ledger:    ledger,
		txManager: txManager,
		audit:     recorder,
		config:    cfg,
		hooks:     domain.NewHookRegistry[*Adjustment](),
	}
}

// Hooks returns the post-commit hook registry.
func (s *Service) Hooks() *domain.HookRegistry[*Adjustment] { return s.hooks }

// Create records an adjustment. Without the approval gate its stock effect
// is applied in the same transaction; a shortage above the warehouse
// quantity fails with InsufficientStock and nothing is stored.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Adjustment, error) {
	t, err := tenant.Require(ctx)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}

	a := NewAdjustment(t, in.ProductID, in.Quantity, in.Kind)
	a.Warehouse = strings.ToUpper(strings.TrimSpace(in.Warehouse))
	a.Observations = strings.TrimSpace(in.Observations)
	audit.EnrichActor(ctx, &a.Cashier)
	if err := a.Validate(ctx); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		bal, err := s.ledger.Available(ctx, in.ProductID)
		if err != nil {
			return err
		}
		a.ProductName = bal.Name

		if s.config.RequireApproval {
			// reject now what approval would reject later
			if a.Kind == KindShortage && a.Quantity > bal.Quantity {
				return apperror.NewInsufficientStock(in.ProductID.String(), a.Quantity.Float64(), bal.Quantity.Float64()).
					WithDetail("product_name", bal.Name)
			}
		} else {
			if _, err := s.ledger.Apply(ctx, a.Source(), a.Delta()); err != nil {
				return err
			}
			a.Applied = true
		}

		if err := s.repo.Create(ctx, a); err != nil {
			return fmt.Errorf("create adjustment: %w", err)
		}
		return s.audit.Record(ctx, audit.Entry{
			EntityType: "adjustment",
			EntityID:   a.ID,
			Action:     audit.ActionCreate,
			Changes:    a,
		})
	})
	if err != nil {
		return nil, err
	}

	s.hooks.Fire(ctx, domain.AfterCreate, a)
	logger.Info(ctx, "adjustment created",
		"id", a.ID,
		"kind", string(a.Kind),
		"product", a.ProductName,
		"quantity", a.Quantity.String(),
		"applied", a.Applied,
	)
	return a, nil
}

// Approve marks an adjustment DONE. With the approval gate on, this is when
// the stock effect is applied, exactly once.
func (s *Service) Approve(ctx context.Context, adjustmentID id.ID) (*Adjustment, error) {
	var a *Adjustment
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		a, err = s.repo.GetForUpdate(ctx, adjustmentID)
		if err != nil {
			return err
		}
		if a.Status == StatusDone {
			return apperror.NewInvalidTransition("adjustment", string(a.Status), string(StatusDone))
		}

		if !a.Applied {
			if a.ProductID == nil {
				return apperror.NewConflict("product of this adjustment no longer exists").
					WithDetail("id", a.ID.String())
			}
			if _, err := s.ledger.Apply(ctx, a.Source(), a.Delta()); err != nil {
				return err
			}
			a.Applied = true
		}

		now := time.Now().UTC()
		a.Status = StatusDone
		a.ApprovedBy = audit.Actor(ctx)
		a.ApprovedAt = &now
		a.UpdatedAt = now
		if err := s.repo.Update(ctx, a); err != nil {
			return err
		}
		return s.audit.Record(ctx, audit.Entry{
			EntityType: "adjustment",
			EntityID:   a.ID,
			Action:     audit.ActionApprove,
			Changes:    map[string]string{"status": string(StatusDone), "approvedBy": a.ApprovedBy},
		})
	})
	if err != nil {
		return nil, err
	}

	s.hooks.Fire(ctx, domain.AfterStatusChange, a)
	logger.Info(ctx, "adjustment approved", "id", a.ID)
	return a, nil
}

// GetByID retrieves an adjustment.
func (s *Service) GetByID(ctx context.Context, adjustmentID id.ID) (*Adjustment, error) {
	return s.repo.GetByID(ctx, adjustmentID)
}

// List retrieves adjustments, newest first by default.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Adjustment], error) {
	return s.repo.List(ctx, filter)
}
