package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"distribuidora/internal/core/apperror"
	"distribuidora/internal/core/id"
	"distribuidora/internal/core/tenant"
	"distribuidora/internal/domain/catalogs/route"
	"distribuidora/internal/infrastructure/storage/postgres"
)

const (
	routeTable = "routes"
	dayTable   = "route_days"
)

var dayColumns = postgres.ExtractDBColumns[route.Day]()

// RouteRepo implements route.Repository.
type RouteRepo struct {
	*postgres.TenantRepo[*route.Route]
	days *postgres.TenantRepo[*route.Day]
}

// NewRouteRepo creates a new route repository.
func NewRouteRepo(txm *postgres.TxManager) *RouteRepo {
	return &RouteRepo{
		TenantRepo: postgres.NewTenantRepo(txm, routeTable, "route",
			postgres.ExtractDBColumns[route.Route](),
			[]string{"name", "carrier_name"},
			func() *route.Route { return &route.Route{} },
		),
		days: postgres.NewTenantRepo(txm, dayTable, "route day",
			dayColumns, nil,
			func() *route.Day { return &route.Day{} },
		),
	}
}

var _ route.Repository = (*RouteRepo)(nil)

// GetByID retrieves a route with its days.
func (r *RouteRepo) GetByID(ctx context.Context, routeID id.ID) (*route.Route, error) {
	rt, err := r.TenantRepo.GetByID(ctx, routeID)
	if err != nil {
		return nil, err
	}
	rt.Days, err = r.GetDays(ctx, routeID)
	if err != nil {
		return nil, err
	}
	return rt, nil
}

// CreateDays inserts the seven days of a route.
func (r *RouteRepo) CreateDays(ctx context.Context, days []*route.Day) error {
	if len(days) == 0 {
		return nil
	}
	ins := r.Builder().Insert(dayTable).Columns(dayColumns...)
	for _, d := range days {
		row := postgres.StructToMap(d)
		vals := make([]any, len(dayColumns))
		for i, col := range dayColumns {
			vals[i] = row[col]
		}
		ins = ins.Values(vals...)
	}
	sql, args, err := ins.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.TranslateWriteError("route day", err)
	}
	return nil
}

// GetDays returns the days of a route, Monday first.
func (r *RouteRepo) GetDays(ctx context.Context, routeID id.ID) ([]*route.Day, error) {
	q, err := r.days.Select(ctx)
	if err != nil {
		return nil, err
	}
	days, err := r.days.FindAll(ctx, q.
		Where(squirrel.Eq{"route_id": routeID}).
		OrderBy("array_position(ARRAY['MONDAY','TUESDAY','WEDNESDAY','THURSDAY','FRIDAY','SATURDAY','SUNDAY'], weekday)"))
	if err != nil {
		return nil, err
	}
	if days == nil {
		days = []*route.Day{}
	}
	return days, nil
}

// GetDay retrieves one route day.
func (r *RouteRepo) GetDay(ctx context.Context, dayID id.ID) (*route.Day, error) {
	return r.days.GetByID(ctx, dayID)
}

// UpdateDay saves a day's carrier.
func (r *RouteRepo) UpdateDay(ctx context.Context, day *route.Day) error {
	return r.days.Update(ctx, day)
}

// DayCustomers lists the customers subscribed to a day, by name.
func (r *RouteRepo) DayCustomers(ctx context.Context, dayID id.ID) ([]route.CustomerRef, error) {
	t, err := tenant.Require(ctx)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	sql, args, err := r.Builder().
		Select("c.id", "c.name").
		From("customer_route_days crd").
		Join("customers c ON c.id = crd.customer_id").
		Where(squirrel.Eq{"crd.route_day_id": dayID, "c.tenant": string(t)}).
		OrderBy("c.name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	refs := []route.CustomerRef{}
	if err := pgxscan.Select(ctx, r.Querier(ctx), &refs, sql, args...); err != nil {
		return nil, fmt.Errorf("day customers: %w", err)
	}
	return refs, nil
}
