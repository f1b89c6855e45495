// Package domaintest provides in-memory repositories and a transaction
// manager for service tests. Transactions are serialized and roll back by
// restoring a snapshot, so "nothing persisted" can be asserted directly.
package domaintest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"distribuidora/internal/core/apperror"
	"distribuidora/internal/core/id"
	"distribuidora/internal/core/tenant"
	"distribuidora/internal/domain"
	"distribuidora/internal/domain/auth"
	"distribuidora/internal/domain/catalogs/customer"
	"distribuidora/internal/domain/catalogs/product"
	"distribuidora/internal/domain/catalogs/route"
	"distribuidora/internal/domain/documents/adjustment"
	"distribuidora/internal/domain/documents/dispatch"
	"distribuidora/internal/domain/documents/sale"
	"distribuidora/internal/domain/filter"
	"distribuidora/internal/domain/stock"
)

type priceKey struct {
	customerID id.ID
	productID  id.ID
}

type state struct {
	products     map[id.ID]product.Product
	movements    []stock.Movement
	customers    map[id.ID]customer.Customer
	addresses    map[id.ID]customer.Address
	prices       map[priceKey]customer.Price
	customerDays map[id.ID][]id.ID
	routes       map[id.ID]route.Route
	days         map[id.ID]route.Day
	adjustments  map[id.ID]adjustment.Adjustment
	sales        map[id.ID]sale.Sale
	saleLines    map[id.ID][]sale.Line
	dispatches   map[id.ID]dispatch.Dispatch
	dProducts    map[id.ID]dispatch.Product
	dCustomers   map[id.ID]dispatch.Customer
	returns      map[id.ID]dispatch.Return
	users        map[id.ID]auth.User
}

func newState() *state {
	return &state{
		products:     map[id.ID]product.Product{},
		customers:    map[id.ID]customer.Customer{},
		addresses:    map[id.ID]customer.Address{},
		prices:       map[priceKey]customer.Price{},
		customerDays: map[id.ID][]id.ID{},
		routes:       map[id.ID]route.Route{},
		days:         map[id.ID]route.Day{},
		adjustments:  map[id.ID]adjustment.Adjustment{},
		sales:        map[id.ID]sale.Sale{},
		saleLines:    map[id.ID][]sale.Line{},
		dispatches:   map[id.ID]dispatch.Dispatch{},
		dProducts:    map[id.ID]dispatch.Product{},
		dCustomers:   map[id.ID]dispatch.Customer{},
		returns:      map[id.ID]dispatch.Return{},
		users:        map[id.ID]auth.User{},
	}
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copySlices[K comparable, V any](m map[K][]V) map[K][]V {
	out := make(map[K][]V, len(m))
	for k, v := range m {
		out[k] = append([]V(nil), v...)
	}
	return out
}

func (s *state) clone() *state {
	return &state{
		products:     copyMap(s.products),
		movements:    append([]stock.Movement(nil), s.movements...),
		customers:    copyMap(s.customers),
		addresses:    copyMap(s.addresses),
		prices:       copyMap(s.prices),
		customerDays: copySlices(s.customerDays),
		routes:       copyMap(s.routes),
		days:         copyMap(s.days),
		adjustments:  copyMap(s.adjustments),
		sales:        copyMap(s.sales),
		saleLines:    copySlices(s.saleLines),
		dispatches:   copyMap(s.dispatches),
		dProducts:    copyMap(s.dProducts),
		dCustomers:   copyMap(s.dCustomers),
		returns:      copyMap(s.returns),
		users:        copyMap(s.users),
	}
}

// Store holds every in-memory table.
type Store struct {
	mu     sync.Mutex
	txLock sync.Mutex
	data   *state
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{data: newState()}
}

func (s *Store) snapshot() *state {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.clone()
}

func (s *Store) restore(st *state) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = st
}

// Movements returns the stock journal.
func (s *Store) Movements() []stock.Movement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]stock.Movement(nil), s.data.movements...)
}

// Quantity returns the stored warehouse quantity of a product.
func (s *Store) Quantity(productID id.ID) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(s.data.products[productID].Quantity)
}

// Counts reports how many rows each table holds.
func (s *Store) Counts() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := 0
	for _, l := range s.data.saleLines {
		lines += len(l)
	}
	return map[string]int{
		"products":           len(s.data.products),
		"stock_movements":    len(s.data.movements),
		"customers":          len(s.data.customers),
		"customer_prices":    len(s.data.prices),
		"adjustments":        len(s.data.adjustments),
		"sales":              len(s.data.sales),
		"sale_lines":         lines,
		"dispatches":         len(s.data.dispatches),
		"dispatch_products":  len(s.data.dProducts),
		"dispatch_customers": len(s.data.dCustomers),
		"dispatch_returns":   len(s.data.returns),
	}
}

func currentTenant(ctx context.Context) (tenant.Key, error) {
	t, err := tenant.Require(ctx)
	if err != nil {
		return "", apperror.NewInternal(err)
	}
	return t, nil
}

func notFound(entity string, key id.ID) error {
	return apperror.NewNotFound(entity, key.String())
}

func ts(t time.Time) string {
	return fmt.Sprintf("%020d", t.UnixNano())
}

// list applies equality filters, search, ordering and pagination the way
// the SQL repositories do, over already tenant-scoped rows.
func list[T any](rows []T, f domain.ListFilter, fields func(T) map[string]string, search ...string) domain.ListResult[*T] {
	f = f.Normalize()
	matched := make([]T, 0, len(rows))
	for _, r := range rows {
		fv := fields(r)
		if !matches(fv, f.Filters) {
			continue
		}
		if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
			hit := false
			for _, col := range search {
				if strings.Contains(strings.ToLower(fv[col]), q) {
					hit = true
					break
				}
			}
			if !hit {
				continue
			}
		}
		if len(f.IDs) > 0 && !containsID(f.IDs, fv["id"]) {
			continue
		}
		matched = append(matched, r)
	}

	orderBy := f.OrderBy
	if orderBy == "" {
		orderBy = "-created_at"
	}
	desc := strings.HasPrefix(orderBy, "-")
	col := strings.TrimLeft(orderBy, "+-")
	sort.SliceStable(matched, func(i, j int) bool {
		a, b := fields(matched[i])[col], fields(matched[j])[col]
		if desc {
			return a > b
		}
		return a < b
	})

	out := domain.ListResult[*T]{TotalCount: int64(len(matched)), Limit: f.Limit, Offset: f.Offset, Items: []*T{}}
	for i := f.Offset; i < len(matched) && i < f.Offset+f.Limit; i++ {
		item := matched[i]
		out.Items = append(out.Items, &item)
	}
	return out
}

func matches(fv map[string]string, items []filter.Item) bool {
	for _, it := range items {
		if it.Operator != filter.Equal {
			continue
		}
		if fv[it.Field] != fmt.Sprint(it.Value) {
			return false
		}
	}
	return true
}

func containsID(ids []id.ID, s string) bool {
	for _, x := range ids {
		if x.String() == s {
			return true
		}
	}
	return false
}

func ref(p *id.ID) string {
	if p == nil {
		return ""
	}
	return p.String()
}
