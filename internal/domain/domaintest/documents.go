package domaintest

import (
	"context"
	"sort"

	"distribuidora/internal/core/apperror"
	"distribuidora/internal/core/id"
	"distribuidora/internal/domain"
	"distribuidora/internal/domain/documents/adjustment"
	"distribuidora/internal/domain/documents/dispatch"
	"distribuidora/internal/domain/documents/sale"
)

// AdjustmentRepo implements adjustment.Repository.
type AdjustmentRepo struct{ store *Store }

// NewAdjustmentRepo creates an adjustment repository.
func NewAdjustmentRepo(store *Store) *AdjustmentRepo { return &AdjustmentRepo{store: store} }

var _ adjustment.Repository = (*AdjustmentRepo)(nil)

func (r *AdjustmentRepo) Create(ctx context.Context, a *adjustment.Adjustment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.data.adjustments[a.ID] = *a
	return nil
}

func (r *AdjustmentRepo) Update(ctx context.Context, a *adjustment.Adjustment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cur, ok := r.store.data.adjustments[a.ID]
	if !ok {
		return notFound("adjustment", a.ID)
	}
	if cur.Version != a.Version {
		return apperror.NewConcurrentModification("adjustment", a.ID)
	}
	a.Version++
	r.store.data.adjustments[a.ID] = *a
	return nil
}

func (r *AdjustmentRepo) GetByID(ctx context.Context, adjustmentID id.ID) (*adjustment.Adjustment, error) {
	t, err := currentTenant(ctx)
	if err != nil {
		return nil, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	a, ok := r.store.data.adjustments[adjustmentID]
	if !ok || a.Tenant != t {
		return nil, notFound("adjustment", adjustmentID)
	}
	return &a, nil
}

func (r *AdjustmentRepo) GetForUpdate(ctx context.Context, adjustmentID id.ID) (*adjustment.Adjustment, error) {
	return r.GetByID(ctx, adjustmentID)
}

func (r *AdjustmentRepo) List(ctx context.Context, f domain.ListFilter) (domain.ListResult[*adjustment.Adjustment], error) {
	t, err := currentTenant(ctx)
	if err != nil {
		return domain.ListResult[*adjustment.Adjustment]{}, err
	}
	r.store.mu.Lock()
	rows := []adjustment.Adjustment{}
	for _, a := range r.store.data.adjustments {
		if a.Tenant == t {
			rows = append(rows, a)
		}
	}
	r.store.mu.Unlock()
	return list(rows, f, func(a adjustment.Adjustment) map[string]string {
		return map[string]string{
			"id": a.ID.String(), "status": string(a.Status), "kind": string(a.Kind),
			"product_id": ref(a.ProductID), "product_name": a.ProductName, "created_at": ts(a.CreatedAt),
		}
	}, "product_name", "cashier"), nil
}

// SaleRepo implements sale.Repository.
type SaleRepo struct{ store *Store }

// NewSaleRepo creates a sale repository.
func NewSaleRepo(store *Store) *SaleRepo { return &SaleRepo{store: store} }

var _ sale.Repository = (*SaleRepo)(nil)

func (r *SaleRepo) Create(ctx context.Context, s *sale.Sale) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, other := range r.store.data.sales {
		if other.Tenant == s.Tenant && other.Folio == s.Folio {
			return apperror.NewDuplicate("sale", "folio", s.Folio)
		}
	}
	stored := *s
	stored.Lines = nil
	r.store.data.sales[s.ID] = stored
	return nil
}

func (r *SaleRepo) Update(ctx context.Context, s *sale.Sale) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cur, ok := r.store.data.sales[s.ID]
	if !ok {
		return notFound("sale", s.ID)
	}
	if cur.Version != s.Version {
		return apperror.NewConcurrentModification("sale", s.ID)
	}
	s.Version++
	stored := *s
	stored.Lines = nil
	r.store.data.sales[s.ID] = stored
	return nil
}

func (r *SaleRepo) GetByID(ctx context.Context, saleID id.ID) (*sale.Sale, error) {
	t, err := currentTenant(ctx)
	if err != nil {
		return nil, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	s, ok := r.store.data.sales[saleID]
	if !ok || s.Tenant != t {
		return nil, notFound("sale", saleID)
	}
	return &s, nil
}

func (r *SaleRepo) GetForUpdate(ctx context.Context, saleID id.ID) (*sale.Sale, error) {
	return r.GetByID(ctx, saleID)
}

func (r *SaleRepo) List(ctx context.Context, f domain.ListFilter) (domain.ListResult[*sale.Sale], error) {
	t, err := currentTenant(ctx)
	if err != nil {
		return domain.ListResult[*sale.Sale]{}, err
	}
	r.store.mu.Lock()
	rows := []sale.Sale{}
	for _, s := range r.store.data.sales {
		if s.Tenant == t {
			rows = append(rows, s)
		}
	}
	r.store.mu.Unlock()
	return list(rows, f, func(s sale.Sale) map[string]string {
		return map[string]string{
			"id": s.ID.String(), "folio": s.Folio, "status": string(s.Status), "kind": string(s.Kind),
			"customer_id": ref(s.CustomerID), "customer_name": s.CustomerName, "seller": s.Seller,
			"dispatch_id": ref(s.DispatchID), "created_at": ts(s.CreatedAt),
		}
	}, "folio", "customer_name", "seller"), nil
}

func (r *SaleRepo) SaveLines(ctx context.Context, saleID id.ID, lines []sale.Line) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.data.saleLines[saleID] = append([]sale.Line(nil), lines...)
	return nil
}

func (r *SaleRepo) GetLines(ctx context.Context, saleID id.ID) ([]sale.Line, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return append([]sale.Line{}, r.store.data.saleLines[saleID]...), nil
}

// DispatchRepo implements dispatch.Repository.
type DispatchRepo struct{ store *Store }

// NewDispatchRepo creates a dispatch repository.
func NewDispatchRepo(store *Store) *DispatchRepo { return &DispatchRepo{store: store} }

var _ dispatch.Repository = (*DispatchRepo)(nil)

func (r *DispatchRepo) Create(ctx context.Context, d *dispatch.Dispatch) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stored := *d
	stored.Products, stored.Customers = nil, nil
	r.store.data.dispatches[d.ID] = stored
	return nil
}

func (r *DispatchRepo) Update(ctx context.Context, d *dispatch.Dispatch) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cur, ok := r.store.data.dispatches[d.ID]
	if !ok {
		return notFound("dispatch", d.ID)
	}
	if cur.Version != d.Version {
		return apperror.NewConcurrentModification("dispatch", d.ID)
	}
	d.Version++
	stored := *d
	stored.Products, stored.Customers = nil, nil
	r.store.data.dispatches[d.ID] = stored
	return nil
}

func (r *DispatchRepo) GetByID(ctx context.Context, dispatchID id.ID) (*dispatch.Dispatch, error) {
	t, err := currentTenant(ctx)
	if err != nil {
		return nil, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	d, ok := r.store.data.dispatches[dispatchID]
	if !ok || d.Tenant != t {
		return nil, notFound("dispatch", dispatchID)
	}
	return &d, nil
}

func (r *DispatchRepo) GetForUpdate(ctx context.Context, dispatchID id.ID) (*dispatch.Dispatch, error) {
	return r.GetByID(ctx, dispatchID)
}

func (r *DispatchRepo) List(ctx context.Context, f domain.ListFilter) (domain.ListResult[*dispatch.Dispatch], error) {
	t, err := currentTenant(ctx)
	if err != nil {
		return domain.ListResult[*dispatch.Dispatch]{}, err
	}
	r.store.mu.Lock()
	rows := []dispatch.Dispatch{}
	for _, d := range r.store.data.dispatches {
		if d.Tenant == t {
			rows = append(rows, d)
		}
	}
	r.store.mu.Unlock()
	return list(rows, f, func(d dispatch.Dispatch) map[string]string {
		return map[string]string{
			"id": d.ID.String(), "folio": d.Folio, "status": string(d.Status),
			"route_name": d.RouteName, "carrier_id": ref(d.CarrierID), "created_at": ts(d.CreatedAt),
		}
	}, "folio", "route_name", "carrier_name"), nil
}

func (r *DispatchRepo) InsertProducts(ctx context.Context, lines []*dispatch.Product) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, l := range lines {
		r.store.data.dProducts[l.ID] = *l
	}
	return nil
}

func (r *DispatchRepo) UpdateProducts(ctx context.Context, lines []*dispatch.Product) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, l := range lines {
		if _, ok := r.store.data.dProducts[l.ID]; !ok {
			return notFound("dispatch product", l.ID)
		}
		r.store.data.dProducts[l.ID] = *l
	}
	return nil
}

func (r *DispatchRepo) GetProducts(ctx context.Context, dispatchID id.ID) ([]*dispatch.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := []*dispatch.Product{}
	for _, p := range r.store.data.dProducts {
		if p.DispatchID == dispatchID {
			line := p
			out = append(out, &line)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductName < out[j].ProductName })
	return out, nil
}

func (r *DispatchRepo) InsertCustomers(ctx context.Context, lines []*dispatch.Customer) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, l := range lines {
		r.store.data.dCustomers[l.ID] = *l
	}
	return nil
}

func (r *DispatchRepo) UpdateCustomers(ctx context.Context, lines []*dispatch.Customer) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, l := range lines {
		if _, ok := r.store.data.dCustomers[l.ID]; !ok {
			return notFound("dispatch customer", l.ID)
		}
		r.store.data.dCustomers[l.ID] = *l
	}
	return nil
}

func (r *DispatchRepo) GetCustomers(ctx context.Context, dispatchID id.ID) ([]*dispatch.Customer, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := []*dispatch.Customer{}
	for _, c := range r.store.data.dCustomers {
		if c.DispatchID == dispatchID {
			line := c
			out = append(out, &line)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CustomerName < out[j].CustomerName })
	return out, nil
}

func (r *DispatchRepo) DeleteLines(ctx context.Context, dispatchID id.ID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for k, p := range r.store.data.dProducts {
		if p.DispatchID == dispatchID {
			delete(r.store.data.dProducts, k)
		}
	}
	for k, c := range r.store.data.dCustomers {
		if c.DispatchID == dispatchID {
			delete(r.store.data.dCustomers, k)
		}
	}
	return nil
}

func (r *DispatchRepo) CreateReturn(ctx context.Context, ret *dispatch.Return) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.data.returns[ret.ID] = *ret
	return nil
}

func (r *DispatchRepo) UpdateReturn(ctx context.Context, ret *dispatch.Return) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cur, ok := r.store.data.returns[ret.ID]
	if !ok {
		return notFound("dispatch return", ret.ID)
	}
	if cur.Version != ret.Version {
		return apperror.NewConcurrentModification("dispatch return", ret.ID)
	}
	ret.Version++
	r.store.data.returns[ret.ID] = *ret
	return nil
}

func (r *DispatchRepo) GetReturnForUpdate(ctx context.Context, returnID id.ID) (*dispatch.Return, error) {
	t, err := currentTenant(ctx)
	if err != nil {
		return nil, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	ret, ok := r.store.data.returns[returnID]
	if !ok || ret.Tenant != t {
		return nil, notFound("dispatch return", returnID)
	}
	return &ret, nil
}

func (r *DispatchRepo) ListReturns(ctx context.Context, f domain.ListFilter) (domain.ListResult[*dispatch.Return], error) {
	t, err := currentTenant(ctx)
	if err != nil {
		return domain.ListResult[*dispatch.Return]{}, err
	}
	r.store.mu.Lock()
	rows := []dispatch.Return{}
	for _, ret := range r.store.data.returns {
		if ret.Tenant == t {
			rows = append(rows, ret)
		}
	}
	r.store.mu.Unlock()
	return list(rows, f, func(ret dispatch.Return) map[string]string {
		return map[string]string{
			"id": ret.ID.String(), "status": string(ret.Status), "dispatch_id": ret.DispatchID.String(),
			"product_name": ret.ProductName, "created_at": ts(ret.CreatedAt),
		}
	}, "product_name"), nil
}
