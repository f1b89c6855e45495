package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHookRegistry_FireRunsAllHooks(t *testing.T) {
	r := NewHookRegistry[string]()
	var calls []string

	r.On(AfterCreate, func(_ context.Context, e string) error {
		calls = append(calls, "first:"+e)
		return errors.New("cache down")
	})
	r.On(AfterCreate, func(_ context.Context, e string) error {
		calls = append(calls, "second:"+e)
		return nil
	})

	r.Fire(context.Background(), AfterCreate, "x")
	assert.Equal(t, []string{"first:x", "second:x"}, calls)

	calls = nil
	err := r.Run(context.Background(), AfterCreate, "y")
	assert.EqualError(t, err, "cache down")
	assert.Equal(t, []string{"first:y"}, calls)
}

func TestHookRegistry_OnWrite(t *testing.T) {
	r := NewHookRegistry[int]()
	n := 0
	r.OnWrite(func(context.Context, int) error { n++; return nil })

	for _, ev := range []HookEvent{AfterCreate, AfterUpdate, AfterStatusChange, AfterDelete} {
		r.Fire(context.Background(), ev, 1)
	}
	assert.Equal(t, 4, n)

	var nilRegistry *HookRegistry[int]
	nilRegistry.Fire(context.Background(), AfterCreate, 1)
}

func TestListFilter_Normalize(t *testing.T) {
	f := ListFilter{Limit: 1000, Offset: -3}.Normalize()
	assert.Equal(t, MaxListLimit, f.Limit)
	assert.Equal(t, 0, f.Offset)

	base := DefaultListFilter()
	withStatus := base.Where("status", "PENDING")
	assert.Empty(t, base.Filters)
	assert.Len(t, withStatus.Filters, 1)
}
