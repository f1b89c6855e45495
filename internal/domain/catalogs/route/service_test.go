package route_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"distribuidora/internal/core/apperror"
	"distribuidora/internal/core/id"
	"distribuidora/internal/core/tenant"
	"distribuidora/internal/domain/catalogs/route"
	"distribuidora/internal/domain/domaintest"
)

func TestCreate_SevenDaysWithCarrier(t *testing.T) {
	f := domaintest.NewFixture(domaintest.Options{})
	ctx := domaintest.Ctx(tenant.Uruapan, "ana")
	carrier := f.Carrier(t, ctx, "pedro")

	r, err := f.Routes.Create(ctx, " norte ", &carrier.ID)
	require.NoError(t, err)
	assert.Equal(t, "NORTE", r.Name)
	assert.Equal(t, "PEDRO", r.CarrierName)

	got, err := f.Routes.GetByID(ctx, r.ID)
	require.NoError(t, err)
	require.Len(t, got.Days, 7)
	for i, d := range got.Days {
		assert.Equal(t, route.Weekdays[i], d.Weekday)
		assert.Equal(t, "NORTE", d.RouteName)
		require.NotNil(t, d.CarrierID)
		assert.Equal(t, carrier.ID, *d.CarrierID)
	}
}

func TestCreate_Rejections(t *testing.T) {
	f := domaintest.NewFixture(domaintest.Options{})
	ctx := domaintest.Ctx(tenant.Uruapan, "ana")

	_, err := f.Routes.Create(ctx, "", nil)
	assert.True(t, apperror.IsValidation(err))

	missing := id.New()
	_, err = f.Routes.Create(ctx, "norte", &missing)
	assert.True(t, apperror.IsNotFound(err))
}

func TestSetDayCarrier(t *testing.T) {
	f := domaintest.NewFixture(domaintest.Options{})
	ctx := domaintest.Ctx(tenant.Uruapan, "ana")
	pedro := f.Carrier(t, ctx, "pedro")
	juan := f.Carrier(t, ctx, "juan")

	r, err := f.Routes.Create(ctx, "norte", &pedro.ID)
	require.NoError(t, err)

	day, err := f.Routes.SetDayCarrier(ctx, r.Days[5].ID, &juan.ID)
	require.NoError(t, err)
	assert.Equal(t, "JUAN", day.CarrierName)

	stored, err := f.Routes.GetDay(ctx, r.Days[5].ID)
	require.NoError(t, err)
	assert.Equal(t, juan.ID, *stored.CarrierID)

	other, err := f.Routes.GetDay(ctx, r.Days[4].ID)
	require.NoError(t, err)
	assert.Equal(t, "PEDRO", other.CarrierName)

	day, err = f.Routes.SetDayCarrier(ctx, r.Days[5].ID, nil)
	require.NoError(t, err)
	assert.Nil(t, day.CarrierID)
	assert.Empty(t, day.CarrierName)
}
