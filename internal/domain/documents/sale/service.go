package sale

import (
	"context"
	"fmt"
	"time"

	"distribuidora/internal/core/apperror"
	"distribuidora/internal/core/folio"
	"distribuidora/internal/core/id"
	"distribuidora/internal/core/tenant"
	"distribuidora/internal/core/tx"
	"distribuidora/internal/core/types"
	"distribuidora/internal/domain"
	"distribuidora/internal/domain/audit"
	"distribuidora/internal/domain/catalogs/customer"
	"distribuidora/internal/domain/stock"
	"distribuidora/pkg/logger"
)

// LineInput is one requested line. A nil Price takes the customer's price,
// falling back to the product list price.
type LineInput struct {
	ProductID id.ID
	Quantity  types.Quantity
	Price     *types.Money
}

// CreateInput carries a new sale.
type CreateInput struct {
	CustomerID *id.ID
	Kind       Kind
	Payment    Payment
	Status     Status // DONE when empty
	Discount   int
	Lines      []LineInput

	// DispatchID links a route sale to its dispatch
	DispatchID *id.ID
}

// Deps groups the collaborators of the sale service.
type Deps struct {
	Repo      Repository
	Products  ProductReader
	Customers CustomerReader
	Prices    PriceReader
	Ledger    *stock.Ledger
	Folios    folio.Generator
	TxManager tx.Manager
	Audit     audit.Recorder
}

// Service provides business operations for sales.
type Service struct {
	repo      Repository
	products  ProductReader
	customers CustomerReader
	prices    PriceReader
	ledger    *stock.Ledger
	folios    folio.Generator
	txManager tx.Manager
	audit     audit.Recorder
	folioMode folio.SaleMode
	hooks     *domain.HookRegistry[*Sale]
}

// NewService creates a new sale service.
func NewService(d Deps, mode folio.SaleMode) *Service {
	if d.Audit == nil {
		d.Audit = audit.Nop{}
	}
	return &Service{
		repo:      d.Repo,
		products:  d.Products,
		customers: d.Customers,
		prices:    d.Prices,
		ledger:    d.Ledger,
		folios:    d.Folios,
		txManager: d.TxManager,
		audit:     d.Audit,
		folioMode: mode,
		hooks:     domain.NewHookRegistry[*Sale](),
	}
}

// Hooks returns the post-commit hook registry.
func (s *Service) Hooks() *domain.HookRegistry[*Sale] { return s.hooks }

// Create records a counter sale. Stock is debited only when the sale is
// created DONE.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Sale, error) {
	if in.Kind == "" {
		in.Kind = KindCounter
	}
	if in.Kind == KindRoute && in.DispatchID == nil {
		return nil, apperror.NewValidation("route sales are recorded through their dispatch").
			WithDetail("field", "kind")
	}

	var sale *Sale
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		sale, err = s.Place(ctx, in)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.hooks.Fire(ctx, domain.AfterCreate, sale)
	return sale, nil
}

// Place builds and stores a sale inside the caller's transaction.
// It fires no hooks; the caller does that once its transaction commits.
func (s *Service) Place(ctx context.Context, in CreateInput) (*Sale, error) {
	t, err := tenant.Require(ctx)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	if in.Status == "" {
		in.Status = StatusDone
	}

	sale := NewSale(t, in.Kind, in.Payment, in.Status)
	sale.Discount = in.Discount
	sale.DispatchID = in.DispatchID
	audit.EnrichActor(ctx, &sale.Seller)

	var cust *customer.Customer
	if in.CustomerID != nil {
		cust, err = s.customers.GetByID(ctx, *in.CustomerID)
		if err != nil {
			return nil, err
		}
		sale.CustomerID = &cust.ID
		sale.CustomerName = cust.Name
	}
	if sale.Payment == PaymentCredit && (cust == nil || cust.Payment != customer.PaymentCredit) {
		return nil, apperror.NewValidation("credit sales require a credit customer").
			WithDetail("field", "payment")
	}

	for _, li := range in.Lines {
		p, err := s.products.GetByID(ctx, li.ProductID)
		if err != nil {
			return nil, err
		}
		price := p.Price
		if li.Price != nil {
			price = *li.Price
		} else if cust != nil {
			cp, err := s.prices.Get(ctx, cust.ID, p.ID)
			switch {
			case err == nil:
				price = cp.Price
			case !apperror.IsNotFound(err):
				return nil, err
			}
		}
		sale.AddLine(p.ID, p.Name, li.Quantity, price)
	}

	if err := sale.Validate(ctx); err != nil {
		return nil, err
	}

	if sale.Kind == KindCounter && sale.Status == StatusDone {
		if _, err := s.ledger.Apply(ctx, sale.Source(), sale.Deltas(StatusPending, StatusDone)...); err != nil {
			return nil, err
		}
	}

	sale.Folio, err = s.folios.Next(ctx, t, folio.SaleConfig(s.folioMode, sale.Kind == KindRoute))
	if err != nil {
		return nil, fmt.Errorf("assign folio: %w", err)
	}

	if err := s.repo.Create(ctx, sale); err != nil {
		return nil, fmt.Errorf("create sale: %w", err)
	}
	if err := s.repo.SaveLines(ctx, sale.ID, sale.Lines); err != nil {
		return nil, fmt.Errorf("save lines: %w", err)
	}

	logger.Info(ctx, "sale created",
		"id", sale.ID,
		"folio", sale.Folio,
		"kind", string(sale.Kind),
		"status", string(sale.Status),
		"amount", sale.Amount.String(),
	)
	return sale, nil
}

// ChangeStatus moves a sale to newStatus, replaying the stock effect of the
// transition. Every affected product is checked before any is written.
func (s *Service) ChangeStatus(ctx context.Context, saleID id.ID, newStatus Status) (*StatusReport, error) {
	if !newStatus.Valid() {
		return nil, apperror.NewValidation("invalid status").WithDetail("status", string(newStatus))
	}

	var (
		sale   *Sale
		report *StatusReport
	)
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		sale, err = s.repo.GetForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		sale.Lines, err = s.repo.GetLines(ctx, saleID)
		if err != nil {
			return fmt.Errorf("get lines: %w", err)
		}

		report = &StatusReport{
			SaleID:   sale.ID,
			Status:   StatusChange{Before: sale.Status, After: newStatus},
			Products: []stock.Change{},
		}
		if sale.Status == newStatus {
			return nil
		}
		if err := sale.CanTransition(newStatus); err != nil {
			return err
		}

		changes, err := s.ledger.Apply(ctx, sale.Source(), sale.Deltas(sale.Status, newStatus)...)
		if err != nil {
			return err
		}
		if changes != nil {
			report.Products = changes
		}

		sale.Status = newStatus
		if newStatus == StatusCancelled && sale.Kind == KindCounter {
			sale.Amount = types.Zero()
		}
		sale.UpdatedAt = time.Now().UTC()
		if err := s.repo.Update(ctx, sale); err != nil {
			return err
		}

		return s.audit.Record(ctx, audit.Entry{
			EntityType: "sale",
			EntityID:   sale.ID,
			Action:     audit.ActionStatusChange,
			Changes:    report,
		})
	})
	if err != nil {
		return nil, err
	}

	if report.Status.Before != report.Status.After {
		s.hooks.Fire(ctx, domain.AfterStatusChange, sale)
		logger.Info(ctx, "sale status changed",
			"id", sale.ID,
			"from", string(report.Status.Before),
			"to", string(report.Status.After),
			"products", len(report.Products),
		)
	}
	return report, nil
}

// GetByID retrieves a sale with its lines.
func (s *Service) GetByID(ctx context.Context, saleID id.ID) (*Sale, error) {
	sale, err := s.repo.GetByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	sale.Lines, err = s.repo.GetLines(ctx, saleID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	return sale, nil
}

// List retrieves sales using one of the named orderings.
func (s *Service) List(ctx context.Context, filter domain.ListFilter, ordering string) (domain.ListResult[*Sale], error) {
	orderBy, err := OrderBy(ordering)
	if err != nil {
		return domain.ListResult[*Sale]{}, err
	}
	filter.OrderBy = orderBy
	return s.repo.List(ctx, filter)
}
