package dispatch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"distribuidora/internal/core/apperror"
	"distribuidora/internal/core/entity"
	"distribuidora/internal/core/folio"
	"distribuidora/internal/core/id"
	"distribuidora/internal/core/tenant"
	"distribuidora/internal/core/tx"
	"distribuidora/internal/core/types"
	"distribuidora/internal/domain"
	"distribuidora/internal/domain/audit"
	"distribuidora/internal/domain/catalogs/customer"
	"distribuidora/internal/domain/documents/sale"
	"distribuidora/internal/domain/stock"
	"distribuidora/pkg/logger"
)

// Config holds dispatch behaviour switches.
type Config struct {
	// RouteCustomer names the pseudo-customer auto-added as VISITED
	RouteCustomer string
	// RequireReturnApproval defers the warehouse credit of returns to approval
	RequireReturnApproval bool
}

// Deps groups the collaborators of the dispatch service.
type Deps struct {
	Repo      Repository
	Ledger    *stock.Ledger
	Sales     *sale.Service
	Customers CustomerFinder
	Routes    RouteReader
	Users     domain.UserDirectory
	Folios    folio.Generator
	TxManager tx.Manager
	Audit     audit.Recorder
}

// Service runs the dispatch lifecycle. Every operation is one transaction
// holding the dispatch row lock; product rows are locked by the ledger.
type Service struct {
	repo        Repository
	ledger      *stock.Ledger
	sales       *sale.Service
	customers   CustomerFinder
	routes      RouteReader
	users       domain.UserDirectory
	folios      folio.Generator
	txManager   tx.Manager
	audit       audit.Recorder
	config      Config
	hooks       *domain.HookRegistry[*Dispatch]
	returnHooks *domain.HookRegistry[*Return]
}

// NewService creates a new dispatch service.
func NewService(d Deps, cfg Config) *Service {
	if d.Audit == nil {
		d.Audit = audit.Nop{}
	}
	return &Service{
		repo:        d.Repo,
		ledger:      d.Ledger,
		sales:       d.Sales,
		customers:   d.Customers,
		routes:      d.Routes,
		users:       d.Users,
		folios:      d.Folios,
		txManager:   d.TxManager,
		audit:       d.Audit,
		config:      cfg,
		hooks:       domain.NewHookRegistry[*Dispatch](),
		returnHooks: domain.NewHookRegistry[*Return](),
	}
}

// Hooks returns the post-commit hooks of dispatches.
func (s *Service) Hooks() *domain.HookRegistry[*Dispatch] { return s.hooks }

// ReturnHooks returns the post-commit hooks of returns.
func (s *Service) ReturnHooks() *domain.HookRegistry[*Return] { return s.returnHooks }

// LineInput is a product and quantity to load.
type LineInput struct {
	ProductID id.ID
	Quantity  types.Quantity
}

// CreateInput carries a new dispatch.
type CreateInput struct {
	RouteDayID  *id.ID
	CarrierID   *id.ID
	Products    []LineInput
	CustomerIDs []id.ID // nil takes the route day's subscribers
}

func validateLines(lines []LineInput) error {
	if len(lines) == 0 {
		return apperror.NewValidation("at least one product is required").WithDetail("field", "products")
	}
	seen := make(map[id.ID]struct{}, len(lines))
	for i, l := range lines {
		if id.IsNil(l.ProductID) {
			return apperror.NewValidation("product is required").WithDetail("line", i+1)
		}
		if !l.Quantity.IsPositive() {
			return apperror.NewValidation("quantity must be positive").WithDetail("line", i+1)
		}
		if _, dup := seen[l.ProductID]; dup {
			return apperror.NewValidation("product listed twice").
				WithDetail("line", i+1).
				WithDetail("productId", l.ProductID.String())
		}
		seen[l.ProductID] = struct{}{}
	}
	return nil
}

func debits(lines []LineInput) []stock.Delta {
	out := make([]stock.Delta, 0, len(lines))
	for _, l := range lines {
		out = append(out, stock.Debit(l.ProductID, l.Quantity))
	}
	return out
}

// Create loads a truck: the warehouse is debited per line, customers are
// queued PENDING and the route pseudo-customer, when it exists, is added
// already VISITED.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Dispatch, error) {
	t, err := tenant.Require(ctx)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	if err := validateLines(in.Products); err != nil {
		return nil, err
	}

	d := &Dispatch{
		BaseEntity: entity.NewBaseEntity(t),
		RouteDayID: in.RouteDayID,
		Status:     StatusPending,
	}
	audit.EnrichActor(ctx, &d.Attendant)

	customerIDs := in.CustomerIDs
	if in.RouteDayID != nil {
		day, err := s.routes.GetDay(ctx, *in.RouteDayID)
		if err != nil {
			return nil, err
		}
		d.RouteName = day.RouteName
		if in.CarrierID == nil && day.CarrierID != nil {
			d.CarrierID, d.CarrierName = day.CarrierID, day.CarrierName
		}
		if customerIDs == nil {
			refs, err := s.routes.DayCustomers(ctx, *in.RouteDayID)
			if err != nil {
				return nil, err
			}
			for _, ref := range refs {
				customerIDs = append(customerIDs, ref.ID)
			}
		}
	}
	if in.CarrierID != nil {
		carrier, err := s.users.LookupUser(ctx, *in.CarrierID)
		if err != nil {
			return nil, err
		}
		d.CarrierID, d.CarrierName = &carrier.ID, carrier.Name
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		changes, err := s.ledger.Apply(ctx, stock.Source{Type: stock.SourceDispatch, ID: d.ID}, debits(in.Products)...)
		if err != nil {
			return err
		}
		names := make(map[id.ID]string, len(changes))
		for _, c := range changes {
			names[c.ProductID] = c.Name
		}

		d.Folio, err = s.folios.Next(ctx, t, folio.DispatchConfig())
		if err != nil {
			return fmt.Errorf("assign folio: %w", err)
		}
		if err := s.repo.Create(ctx, d); err != nil {
			return fmt.Errorf("create dispatch: %w", err)
		}

		d.Products = make([]*Product, 0, len(in.Products))
		for _, l := range in.Products {
			d.Products = append(d.Products, s.newProductLine(d, l.ProductID, names[l.ProductID], l.Quantity))
		}
		if err := s.repo.InsertProducts(ctx, d.Products); err != nil {
			return fmt.Errorf("insert products: %w", err)
		}

		d.Customers, err = s.customerLines(ctx, d, customerIDs)
		if err != nil {
			return err
		}
		if err := s.repo.InsertCustomers(ctx, d.Customers); err != nil {
			return fmt.Errorf("insert customers: %w", err)
		}

		return s.audit.Record(ctx, audit.Entry{
			EntityType: "dispatch",
			EntityID:   d.ID,
			Action:     audit.ActionCreate,
			Changes:    d,
		})
	})
	if err != nil {
		return nil, err
	}

	s.hooks.Fire(ctx, domain.AfterCreate, d)
	logger.Info(ctx, "dispatch created",
		"id", d.ID,
		"folio", d.Folio,
		"route", d.RouteName,
		"products", len(d.Products),
		"customers", len(d.Customers),
	)
	return d, nil
}

func (s *Service) newProductLine(d *Dispatch, productID id.ID, name string, qty types.Quantity) *Product {
	return &Product{
		ID:          id.New(),
		Tenant:      d.Tenant,
		DispatchID:  d.ID,
		ProductID:   id.Ref(productID),
		ProductName: name,
		Loaded:      qty,
		Remaining:   qty,
		Status:      ProductLoaded,
		CreatedAt:   time.Now().UTC(),
	}
}

func (s *Service) customerLines(ctx context.Context, d *Dispatch, customerIDs []id.ID) ([]*Customer, error) {
	lines := make([]*Customer, 0, len(customerIDs)+1)
	seen := make(map[id.ID]struct{}, len(customerIDs))
	add := func(c *customer.Customer, status CustomerStatus) {
		if _, dup := seen[c.ID]; dup {
			return
		}
		seen[c.ID] = struct{}{}
		line := &Customer{
			ID:           id.New(),
			Tenant:       d.Tenant,
			DispatchID:   d.ID,
			CustomerID:   id.Ref(c.ID),
			CustomerName: c.Name,
			Status:       status,
		}
		if status == CustomerVisited {
			line.Visit(time.Now().UTC())
		}
		lines = append(lines, line)
	}

	if name := strings.TrimSpace(s.config.RouteCustomer); name != "" {
		rc, err := s.customers.FindByName(ctx, customer.NormalizeName(name))
		switch {
		case err == nil:
			add(rc, CustomerVisited)
		case !apperror.IsNotFound(err):
			return nil, fmt.Errorf("find route customer: %w", err)
		}
	}

	for _, cid := range customerIDs {
		c, err := s.customers.GetByID(ctx, cid)
		if err != nil {
			return nil, err
		}
		add(c, CustomerPending)
	}
	return lines, nil
}

// lockOpen locks the dispatch, loads its lines and checks it still accepts
// operations.
func (s *Service) lockOpen(ctx context.Context, dispatchID id.ID, op string) (*Dispatch, error) {
	d, err := s.repo.GetForUpdate(ctx, dispatchID)
	if err != nil {
		return nil, err
	}
	if !d.Status.IsOpen() {
		return nil, apperror.NewConflict(fmt.Sprintf("cannot %s a dispatch in status %s", op, d.Status)).
			WithDetail("id", d.ID.String()).
			WithDetail("status", string(d.Status))
	}
	if err := s.loadLines(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) loadLines(ctx context.Context, d *Dispatch) error {
	var err error
	d.Products, err = s.repo.GetProducts(ctx, d.ID)
	if err != nil {
		return fmt.Errorf("get products: %w", err)
	}
	d.Customers, err = s.repo.GetCustomers(ctx, d.ID)
	if err != nil {
		return fmt.Errorf("get customers: %w", err)
	}
	return nil
}

// reevaluate applies Evaluate and persists the dispatch when it moved.
func (s *Service) reevaluate(ctx context.Context, d *Dispatch) (Status, error) {
	before := d.Status
	next := Evaluate(d.Status, d.Products, d.Customers)
	if next == before {
		return before, nil
	}
	d.Status = next
	d.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, d); err != nil {
		return before, err
	}
	return before, s.audit.Record(ctx, audit.Entry{
		EntityType: "dispatch",
		EntityID:   d.ID,
		Action:     audit.ActionStatusChange,
		Changes:    map[string]Status{"before": before, "after": next},
	})
}

func (s *Service) fireStatus(ctx context.Context, d *Dispatch, before Status) {
	if before == d.Status {
		s.hooks.Fire(ctx, domain.AfterUpdate, d)
		return
	}
	s.hooks.Fire(ctx, domain.AfterStatusChange, d)
	logger.Info(ctx, "dispatch status changed",
		"id", d.ID,
		"folio", d.Folio,
		"from", string(before),
		"to", string(d.Status),
	)
}

// SaleInput carries a route sale made from the truck.
type SaleInput struct {
	CustomerID id.ID
	Payment    sale.Payment
	Discount   int
	Lines      []sale.LineInput
}

// RecordSale sells product from the truck to a customer on the dispatch.
// The customer becomes VISITED, each sold line's remaining quantity drops
// and completion is re-evaluated.
func (s *Service) RecordSale(ctx context.Context, dispatchID id.ID, in SaleInput) (*sale.Sale, *Dispatch, error) {
	var (
		created *sale.Sale
		d       *Dispatch
		before  Status
	)
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		d, err = s.lockOpen(ctx, dispatchID, "sell from")
		if err != nil {
			return err
		}

		cl := d.customerLine(in.CustomerID)
		if cl == nil {
			return apperror.NewValidation("customer is not on this dispatch").
				WithDetail("customerId", in.CustomerID.String())
		}

		wanted := make(map[id.ID]types.Quantity, len(in.Lines))
		for _, l := range in.Lines {
			wanted[l.ProductID] += l.Quantity
		}
		touched := make([]*Product, 0, len(wanted))
		for pid, qty := range wanted {
			line := d.productLine(pid)
			if line == nil {
				return apperror.NewValidation("product is not loaded on this dispatch").
					WithDetail("productId", pid.String())
			}
			if qty > line.Remaining {
				return apperror.NewInsufficientStock(pid.String(), qty.Float64(), line.Remaining.Float64()).
					WithDetail("product_name", line.ProductName).
					WithDetail("dispatch_id", d.ID.String())
			}
		}

		created, err = s.sales.Place(ctx, sale.CreateInput{
			CustomerID: &in.CustomerID,
			Kind:       sale.KindRoute,
			Payment:    in.Payment,
			Status:     sale.StatusDone,
			Discount:   in.Discount,
			Lines:      in.Lines,
			DispatchID: &d.ID,
		})
		if err != nil {
			return err
		}

		for pid, qty := range wanted {
			line := d.productLine(pid)
			line.Take(qty)
			touched = append(touched, line)
		}
		if err := s.repo.UpdateProducts(ctx, touched); err != nil {
			return fmt.Errorf("update products: %w", err)
		}

		if cl.Status != CustomerVisited {
			cl.Visit(time.Now().UTC())
			if err := s.repo.UpdateCustomers(ctx, []*Customer{cl}); err != nil {
				return fmt.Errorf("update customer: %w", err)
			}
		}

		before, err = s.reevaluate(ctx, d)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	s.sales.Hooks().Fire(ctx, domain.AfterCreate, created)
	s.fireStatus(ctx, d, before)
	return created, d, nil
}

// RecordVisit marks a customer VISITED without a sale.
func (s *Service) RecordVisit(ctx context.Context, dispatchID, customerID id.ID) (*Dispatch, error) {
	var (
		d      *Dispatch
		before Status
	)
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		d, err = s.lockOpen(ctx, dispatchID, "visit with")
		if err != nil {
			return err
		}

		cl := d.customerLine(customerID)
		if cl == nil {
			return apperror.NewNotFound("dispatch customer", customerID.String())
		}
		if cl.Status != CustomerPending {
			return apperror.NewConflict("customer already visited").
				WithDetail("customerId", customerID.String())
		}
		cl.Visit(time.Now().UTC())
		if err := s.repo.UpdateCustomers(ctx, []*Customer{cl}); err != nil {
			return fmt.Errorf("update customer: %w", err)
		}

		before, err = s.reevaluate(ctx, d)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.fireStatus(ctx, d, before)
	return d, nil
}

// ReturnInput carries product coming back from the truck.
type ReturnInput struct {
	ProductID    id.ID
	Quantity     types.Quantity
	ReturnedBy   string
	Observations string
}

// RecordReturn takes product off the truck back into the warehouse.
// With the return approval gate on, the warehouse credit waits for
// ApproveReturn.
func (s *Service) RecordReturn(ctx context.Context, dispatchID id.ID, in ReturnInput) (*Return, *Dispatch, error) {
	if !in.Quantity.IsPositive() {
		return nil, nil, apperror.NewValidation("quantity must be positive").WithDetail("field", "quantity")
	}

	var (
		ret    *Return
		d      *Dispatch
		before Status
	)
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		d, err = s.lockOpen(ctx, dispatchID, "return product to")
		if err != nil {
			return err
		}

		line := d.productLine(in.ProductID)
		if line == nil {
			return apperror.NewNotFound("dispatch product", in.ProductID.String())
		}
		if in.Quantity > line.Remaining {
			return apperror.NewInsufficientStock(in.ProductID.String(), in.Quantity.Float64(), line.Remaining.Float64()).
				WithDetail("product_name", line.ProductName).
				WithDetail("dispatch_id", d.ID.String())
		}

		ret = &Return{
			BaseEntity:        entity.NewBaseEntity(d.Tenant),
			DispatchID:        d.ID,
			DispatchProductID: id.Ref(line.ID),
			ProductID:         line.ProductID,
			ProductName:       line.ProductName,
			Quantity:          in.Quantity,
			ReturnedBy:        in.ReturnedBy,
			Status:            ReturnPending,
			Observations:      strings.TrimSpace(in.Observations),
		}
		audit.EnrichActor(ctx, &ret.ReturnedBy)
		audit.EnrichActor(ctx, &ret.Attendant)

		line.Take(in.Quantity)
		if err := s.repo.UpdateProducts(ctx, []*Product{line}); err != nil {
			return fmt.Errorf("update product: %w", err)
		}

		if !s.config.RequireReturnApproval {
			if _, err := s.ledger.Apply(ctx, ret.Source(), stock.Credit(in.ProductID, in.Quantity)); err != nil {
				return err
			}
			ret.Applied = true
		}
		if err := s.repo.CreateReturn(ctx, ret); err != nil {
			return fmt.Errorf("create return: %w", err)
		}

		before, err = s.reevaluate(ctx, d)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	s.returnHooks.Fire(ctx, domain.AfterCreate, ret)
	s.fireStatus(ctx, d, before)
	logger.Info(ctx, "dispatch return recorded",
		"dispatch_id", d.ID,
		"return_id", ret.ID,
		"product", ret.ProductName,
		"quantity", ret.Quantity.String(),
	)
	return ret, d, nil
}

// ApproveReturn marks a return DONE, crediting the warehouse if that has not
// happened yet.
func (s *Service) ApproveReturn(ctx context.Context, returnID id.ID) (*Return, error) {
	var ret *Return
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		ret, err = s.repo.GetReturnForUpdate(ctx, returnID)
		if err != nil {
			return err
		}
		if ret.Status == ReturnDone {
			return apperror.NewInvalidTransition("return", string(ret.Status), string(ReturnDone))
		}

		if !ret.Applied {
			if ret.ProductID == nil {
				return apperror.NewConflict("product of this return no longer exists").
					WithDetail("id", ret.ID.String())
			}
			if _, err := s.ledger.Apply(ctx, ret.Source(), stock.Credit(*ret.ProductID, ret.Quantity)); err != nil {
				return err
			}
			ret.Applied = true
		}

		now := time.Now().UTC()
		ret.Status = ReturnDone
		ret.ApprovedBy = audit.Actor(ctx)
		ret.ApprovedAt = &now
		ret.UpdatedAt = now
		if err := s.repo.UpdateReturn(ctx, ret); err != nil {
			return err
		}
		return s.audit.Record(ctx, audit.Entry{
			EntityType: "dispatch_return",
			EntityID:   ret.ID,
			Action:     audit.ActionApprove,
			Changes:    map[string]string{"status": string(ReturnDone), "approvedBy": ret.ApprovedBy},
		})
	})
	if err != nil {
		return nil, err
	}

	s.returnHooks.Fire(ctx, domain.AfterStatusChange, ret)
	return ret, nil
}

// Reload puts more product on an open truck. Existing lines grow and go
// back to LOADED; new products get a new line.
func (s *Service) Reload(ctx context.Context, dispatchID id.ID, lines []LineInput) (*Dispatch, error) {
	if err := validateLines(lines); err != nil {
		return nil, err
	}

	var d *Dispatch
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		d, err = s.lockOpen(ctx, dispatchID, "reload")
		if err != nil {
			return err
		}

		changes, err := s.ledger.Apply(ctx, stock.Source{Type: stock.SourceDispatchReload, ID: d.ID}, debits(lines)...)
		if err != nil {
			return err
		}
		names := make(map[id.ID]string, len(changes))
		for _, c := range changes {
			names[c.ProductID] = c.Name
		}

		var grown, added []*Product
		for _, l := range lines {
			if line := d.productLine(l.ProductID); line != nil {
				line.Add(l.Quantity)
				grown = append(grown, line)
				continue
			}
			line := s.newProductLine(d, l.ProductID, names[l.ProductID], l.Quantity)
			d.Products = append(d.Products, line)
			added = append(added, line)
		}
		if len(grown) > 0 {
			if err := s.repo.UpdateProducts(ctx, grown); err != nil {
				return fmt.Errorf("update products: %w", err)
			}
		}
		if len(added) > 0 {
			if err := s.repo.InsertProducts(ctx, added); err != nil {
				return fmt.Errorf("insert products: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.hooks.Fire(ctx, domain.AfterUpdate, d)
	logger.Info(ctx, "dispatch reloaded", "id", d.ID, "lines", len(lines))
	return d, nil
}

// Cancel aborts a PENDING dispatch: everything still on the truck goes back
// to the warehouse and the child lines are removed.
func (s *Service) Cancel(ctx context.Context, dispatchID id.ID) (*Dispatch, error) {
	var d *Dispatch
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		d, err = s.repo.GetForUpdate(ctx, dispatchID)
		if err != nil {
			return err
		}
		if d.Status != StatusPending {
			return apperror.NewInvalidTransition("dispatch", string(d.Status), string(StatusCancelled))
		}
		if err := s.loadLines(ctx, d); err != nil {
			return err
		}

		credits := make([]stock.Delta, 0, len(d.Products))
		for _, p := range d.Products {
			if p.ProductID == nil || p.Remaining.IsZero() {
				continue
			}
			credits = append(credits, stock.Credit(*p.ProductID, p.Remaining))
		}
		if _, err := s.ledger.Apply(ctx, stock.Source{Type: stock.SourceDispatchCancel, ID: d.ID}, credits...); err != nil {
			return err
		}

		if err := s.repo.DeleteLines(ctx, d.ID); err != nil {
			return fmt.Errorf("delete lines: %w", err)
		}
		d.Products, d.Customers = []*Product{}, []*Customer{}
		d.Status = StatusCancelled
		d.UpdatedAt = time.Now().UTC()
		if err := s.repo.Update(ctx, d); err != nil {
			return err
		}
		return s.audit.Record(ctx, audit.Entry{
			EntityType: "dispatch",
			EntityID:   d.ID,
			Action:     audit.ActionCancel,
			Changes:    map[string]Status{"before": StatusPending, "after": StatusCancelled},
		})
	})
	if err != nil {
		return nil, err
	}

	s.fireStatus(ctx, d, StatusPending)
	return d, nil
}

// GetByID retrieves a dispatch with its lines.
func (s *Service) GetByID(ctx context.Context, dispatchID id.ID) (*Dispatch, error) {
	d, err := s.repo.GetByID(ctx, dispatchID)
	if err != nil {
		return nil, err
	}
	if err := s.loadLines(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// List retrieves dispatches, newest first by default.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Dispatch], error) {
	return s.repo.List(ctx, filter)
}

// ListReturns retrieves returns, newest first by default.
func (s *Service) ListReturns(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Return], error) {
	return s.repo.ListReturns(ctx, filter)
}
