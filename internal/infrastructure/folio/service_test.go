package folio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corefolio "distribuidora/internal/core/folio"
	"distribuidora/internal/core/tenant"
)

// Mock objects
type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

// mockQuerier simulates folio_counters keyed by (tenant, kind).
type mockQuerier struct {
	mu       sync.Mutex
	counters map[string]int64
	err      error
}

func newMockQuerier() *mockQuerier {
	return &mockQuerier{counters: make(map[string]int64)}
}

func (m *mockQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return &mockRow{err: m.err}
	}

	key := fmt.Sprintf("%v/%v", args[0], args[1])
	if strings.Contains(sql, "EXCLUDED.last_value") {
		m.counters[key] = args[2].(int64)
	} else {
		m.counters[key]++
	}
	return &mockRow{val: m.counters[key]}
}

func TestNext_SequencesPerTenantAndKind(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	ctx := context.Background()

	counter := corefolio.SaleConfig(corefolio.SaleModePerKind, false)
	route := corefolio.SaleConfig(corefolio.SaleModePerKind, true)

	n, err := svc.Next(ctx, tenant.Uruapan, counter)
	require.NoError(t, err)
	assert.Equal(t, "M-1", n)

	n, err = svc.Next(ctx, tenant.Uruapan, counter)
	require.NoError(t, err)
	assert.Equal(t, "M-2", n)

	n, err = svc.Next(ctx, tenant.Uruapan, route)
	require.NoError(t, err)
	assert.Equal(t, "R-1", n)

	n, err = svc.Next(ctx, tenant.Lazaro, counter)
	require.NoError(t, err)
	assert.Equal(t, "M-1", n)

	n, err = svc.Next(ctx, tenant.Lazaro, corefolio.DispatchConfig())
	require.NoError(t, err)
	assert.Equal(t, "1", n)
}

func TestNext_ConcurrentCallersGetDistinctFolios(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	ctx := context.Background()
	cfg := corefolio.DispatchConfig()

	const workers = 50
	results := make(chan string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := svc.Next(ctx, tenant.Uruapan, cfg)
			if err == nil {
				results <- n
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[string]bool)
	for n := range results {
		assert.False(t, seen[n], "duplicate folio %s", n)
		seen[n] = true
	}
	assert.Len(t, seen, workers)
}

func TestSetNext(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	ctx := context.Background()

	require.NoError(t, svc.SetNext(ctx, tenant.Uruapan, corefolio.KindCounterSale, 500))

	n, err := svc.Next(ctx, tenant.Uruapan, corefolio.SaleConfig(corefolio.SaleModePerKind, false))
	require.NoError(t, err)
	assert.Equal(t, "M-500", n)

	assert.Error(t, svc.SetNext(ctx, tenant.Uruapan, corefolio.KindCounterSale, 0))
}

func TestNext_Errors(t *testing.T) {
	q := newMockQuerier()
	q.err = errors.New("connection reset")
	svc := New(q)

	_, err := svc.Next(context.Background(), tenant.Uruapan, corefolio.DispatchConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")

	_, err = svc.Next(context.Background(), "", corefolio.DispatchConfig())
	assert.ErrorIs(t, err, tenant.ErrNoTenantInContext)
}
