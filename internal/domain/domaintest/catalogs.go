package domaintest

import (
	"context"
	"sort"
	"time"

	"distribuidora/internal/core/apperror"
	"distribuidora/internal/core/id"
	"distribuidora/internal/core/types"
	"distribuidora/internal/domain"
	"distribuidora/internal/domain/catalogs/customer"
	"distribuidora/internal/domain/catalogs/product"
	"distribuidora/internal/domain/catalogs/route"
)

// ProductRepo implements product.Repository.
type ProductRepo struct{ store *Store }

// NewProductRepo creates a product repository.
func NewProductRepo(store *Store) *ProductRepo { return &ProductRepo{store: store} }

var _ product.Repository = (*ProductRepo)(nil)

func (r *ProductRepo) Create(ctx context.Context, p *product.Product) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, other := range r.store.data.products {
		if other.Tenant == p.Tenant && other.Name == p.Name {
			return apperror.NewDuplicate("product", "name", p.Name)
		}
	}
	r.store.data.products[p.ID] = *p
	return nil
}

func (r *ProductRepo) Update(ctx context.Context, p *product.Product) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cur, ok := r.store.data.products[p.ID]
	if !ok || cur.Tenant != p.Tenant {
		return notFound("product", p.ID)
	}
	if cur.Version != p.Version {
		return apperror.NewConcurrentModification("product", p.ID)
	}
	p.Version++
	r.store.data.products[p.ID] = *p
	return nil
}

func (r *ProductRepo) Delete(ctx context.Context, productID id.ID) error {
	t, err := currentTenant(ctx)
	if err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.data.products[productID]
	if !ok || p.Tenant != t {
		return notFound("product", productID)
	}
	delete(r.store.data.products, productID)
	for k := range r.store.data.prices {
		if k.productID == productID {
			delete(r.store.data.prices, k)
		}
	}
	return nil
}

func (r *ProductRepo) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	t, err := currentTenant(ctx)
	if err != nil {
		return nil, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.data.products[productID]
	if !ok || p.Tenant != t {
		return nil, notFound("product", productID)
	}
	return &p, nil
}

func (r *ProductRepo) GetForUpdate(ctx context.Context, productID id.ID) (*product.Product, error) {
	return r.GetByID(ctx, productID)
}

func (r *ProductRepo) List(ctx context.Context, f domain.ListFilter) (domain.ListResult[*product.Product], error) {
	t, err := currentTenant(ctx)
	if err != nil {
		return domain.ListResult[*product.Product]{}, err
	}
	r.store.mu.Lock()
	rows := make([]product.Product, 0, len(r.store.data.products))
	for _, p := range r.store.data.products {
		if p.Tenant == t {
			rows = append(rows, p)
		}
	}
	r.store.mu.Unlock()
	return list(rows, f, func(p product.Product) map[string]string {
		return map[string]string{"id": p.ID.String(), "name": p.Name, "created_at": ts(p.CreatedAt)}
	}, "name"), nil
}

// CustomerRepo implements customer.Repository and customer.PriceRepository.
type CustomerRepo struct{ store *Store }

// NewCustomerRepo creates a customer repository.
func NewCustomerRepo(store *Store) *CustomerRepo { return &CustomerRepo{store: store} }

var (
	_ customer.Repository      = (*CustomerRepo)(nil)
	_ customer.PriceRepository = (*CustomerRepo)(nil)
	_ product.PriceSeeder      = (*CustomerRepo)(nil)
)

func (r *CustomerRepo) Create(ctx context.Context, c *customer.Customer) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, other := range r.store.data.customers {
		if other.Tenant == c.Tenant && other.Name == c.Name {
			return apperror.NewDuplicate("customer", "name", c.Name)
		}
	}
	stored := *c
	stored.Address, stored.RouteDayIDs = nil, nil
	r.store.data.customers[c.ID] = stored
	return nil
}

func (r *CustomerRepo) Update(ctx context.Context, c *customer.Customer) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cur, ok := r.store.data.customers[c.ID]
	if !ok || cur.Tenant != c.Tenant {
		return notFound("customer", c.ID)
	}
	if cur.Version != c.Version {
		return apperror.NewConcurrentModification("customer", c.ID)
	}
	c.Version++
	stored := *c
	stored.Address, stored.RouteDayIDs = nil, nil
	r.store.data.customers[c.ID] = stored
	return nil
}

func (r *CustomerRepo) Delete(ctx context.Context, customerID id.ID) error {
	if _, err := r.GetByID(ctx, customerID); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.data.customers, customerID)
	delete(r.store.data.addresses, customerID)
	delete(r.store.data.customerDays, customerID)
	for k := range r.store.data.prices {
		if k.customerID == customerID {
			delete(r.store.data.prices, k)
		}
	}
	return nil
}

func (r *CustomerRepo) GetByID(ctx context.Context, customerID id.ID) (*customer.Customer, error) {
	t, err := currentTenant(ctx)
	if err != nil {
		return nil, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	c, ok := r.store.data.customers[customerID]
	if !ok || c.Tenant != t {
		return nil, notFound("customer", customerID)
	}
	return &c, nil
}

func (r *CustomerRepo) FindByName(ctx context.Context, name string) (*customer.Customer, error) {
	t, err := currentTenant(ctx)
	if err != nil {
		return nil, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, c := range r.store.data.customers {
		if c.Tenant == t && c.Name == name {
			return &c, nil
		}
	}
	return nil, apperror.NewNotFound("customer", name)
}

func (r *CustomerRepo) List(ctx context.Context, f domain.ListFilter) (domain.ListResult[*customer.Customer], error) {
	t, err := currentTenant(ctx)
	if err != nil {
		return domain.ListResult[*customer.Customer]{}, err
	}
	r.store.mu.Lock()
	rows := make([]customer.Customer, 0, len(r.store.data.customers))
	for _, c := range r.store.data.customers {
		if c.Tenant == t {
			rows = append(rows, c)
		}
	}
	r.store.mu.Unlock()
	return list(rows, f, func(c customer.Customer) map[string]string {
		return map[string]string{
			"id": c.ID.String(), "name": c.Name, "payment": string(c.Payment), "created_at": ts(c.CreatedAt),
		}
	}, "name"), nil
}

func (r *CustomerRepo) SaveAddress(ctx context.Context, addr *customer.Address) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.data.addresses[addr.CustomerID] = *addr
	return nil
}

func (r *CustomerRepo) GetAddress(ctx context.Context, customerID id.ID) (*customer.Address, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	a, ok := r.store.data.addresses[customerID]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (r *CustomerRepo) SetRouteDays(ctx context.Context, customerID id.ID, dayIDs []id.ID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, d := range dayIDs {
		if _, ok := r.store.data.days[d]; !ok {
			return apperror.NewValidation("referenced route day does not exist").WithDetail("routeDayId", d.String())
		}
	}
	r.store.data.customerDays[customerID] = append([]id.ID(nil), dayIDs...)
	return nil
}

func (r *CustomerRepo) GetRouteDays(ctx context.Context, customerID id.ID) ([]id.ID, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return append([]id.ID{}, r.store.data.customerDays[customerID]...), nil
}

func (r *CustomerRepo) InsertForCustomer(ctx context.Context, customerID id.ID) error {
	t, err := currentTenant(ctx)
	if err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, p := range r.store.data.products {
		if p.Tenant != t {
			continue
		}
		r.store.data.prices[priceKey{customerID, p.ID}] = customer.Price{
			ID: id.New(), CustomerID: customerID, ProductID: p.ID, Price: p.Price, UpdatedAt: time.Now().UTC(),
		}
	}
	return nil
}

func (r *CustomerRepo) InsertForProduct(ctx context.Context, productID id.ID, price types.Money) error {
	t, err := currentTenant(ctx)
	if err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, c := range r.store.data.customers {
		if c.Tenant != t {
			continue
		}
		r.store.data.prices[priceKey{c.ID, productID}] = customer.Price{
			ID: id.New(), CustomerID: c.ID, ProductID: productID, Price: price, UpdatedAt: time.Now().UTC(),
		}
	}
	return nil
}

func (r *CustomerRepo) Upsert(ctx context.Context, customerID, productID id.ID, price types.Money) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.data.products[productID]; !ok {
		return apperror.NewValidation("referenced product does not exist").WithDetail("productId", productID.String())
	}
	k := priceKey{customerID, productID}
	p, ok := r.store.data.prices[k]
	if !ok {
		p = customer.Price{ID: id.New(), CustomerID: customerID, ProductID: productID}
	}
	p.Price = price
	p.UpdatedAt = time.Now().UTC()
	r.store.data.prices[k] = p
	return nil
}

func (r *CustomerRepo) withProduct(p customer.Price) customer.Price {
	if prod, ok := r.store.data.products[p.ProductID]; ok {
		p.ProductName = prod.Name
		p.ListPrice = prod.Price
	}
	return p
}

func (r *CustomerRepo) Get(ctx context.Context, customerID, productID id.ID) (*customer.Price, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.data.prices[priceKey{customerID, productID}]
	if !ok {
		return nil, apperror.NewNotFound("customer price", productID.String())
	}
	p = r.withProduct(p)
	return &p, nil
}

func (r *CustomerRepo) ListByCustomer(ctx context.Context, customerID id.ID) ([]customer.Price, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := []customer.Price{}
	for k, p := range r.store.data.prices {
		if k.customerID == customerID {
			out = append(out, r.withProduct(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductName < out[j].ProductName })
	return out, nil
}

// RouteRepo implements route.Repository.
type RouteRepo struct{ store *Store }

// NewRouteRepo creates a route repository.
func NewRouteRepo(store *Store) *RouteRepo { return &RouteRepo{store: store} }

var _ route.Repository = (*RouteRepo)(nil)

func (r *RouteRepo) Create(ctx context.Context, rt *route.Route) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, other := range r.store.data.routes {
		if other.Tenant == rt.Tenant && other.Name == rt.Name {
			return apperror.NewDuplicate("route", "name", rt.Name)
		}
	}
	stored := *rt
	stored.Days = nil
	r.store.data.routes[rt.ID] = stored
	return nil
}

func (r *RouteRepo) GetByID(ctx context.Context, routeID id.ID) (*route.Route, error) {
	t, err := currentTenant(ctx)
	if err != nil {
		return nil, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	rt, ok := r.store.data.routes[routeID]
	if !ok || rt.Tenant != t {
		return nil, notFound("route", routeID)
	}
	return &rt, nil
}

func (r *RouteRepo) List(ctx context.Context, f domain.ListFilter) (domain.ListResult[*route.Route], error) {
	t, err := currentTenant(ctx)
	if err != nil {
		return domain.ListResult[*route.Route]{}, err
	}
	r.store.mu.Lock()
	rows := []route.Route{}
	for _, rt := range r.store.data.routes {
		if rt.Tenant == t {
			rows = append(rows, rt)
		}
	}
	r.store.mu.Unlock()
	return list(rows, f, func(rt route.Route) map[string]string {
		return map[string]string{"id": rt.ID.String(), "name": rt.Name, "created_at": ts(rt.CreatedAt)}
	}, "name"), nil
}

func (r *RouteRepo) CreateDays(ctx context.Context, days []*route.Day) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, d := range days {
		r.store.data.days[d.ID] = *d
	}
	return nil
}

func (r *RouteRepo) GetDays(ctx context.Context, routeID id.ID) ([]*route.Day, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	order := map[route.Weekday]int{}
	for i, wd := range route.Weekdays {
		order[wd] = i
	}
	out := []*route.Day{}
	for _, d := range r.store.data.days {
		if d.RouteID == routeID {
			day := d
			out = append(out, &day)
		}
	}
	sort.Slice(out, func(i, j int) bool { return order[out[i].Weekday] < order[out[j].Weekday] })
	return out, nil
}

func (r *RouteRepo) GetDay(ctx context.Context, dayID id.ID) (*route.Day, error) {
	t, err := currentTenant(ctx)
	if err != nil {
		return nil, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	d, ok := r.store.data.days[dayID]
	if !ok || d.Tenant != t {
		return nil, notFound("route day", dayID)
	}
	return &d, nil
}

func (r *RouteRepo) UpdateDay(ctx context.Context, day *route.Day) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.data.days[day.ID]; !ok {
		return notFound("route day", day.ID)
	}
	day.Version++
	r.store.data.days[day.ID] = *day
	return nil
}

func (r *RouteRepo) DayCustomers(ctx context.Context, dayID id.ID) ([]route.CustomerRef, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := []route.CustomerRef{}
	for cid, days := range r.store.data.customerDays {
		for _, d := range days {
			if d == dayID {
				out = append(out, route.CustomerRef{ID: cid, Name: r.store.data.customers[cid].Name})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
