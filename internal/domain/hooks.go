package domain

import (
	"context"
	"sync"

	"distribuidora/pkg/logger"
)

// HookEvent represents lifecycle event type.
type HookEvent string

const (
	AfterCreate       HookEvent = "after_create"
	AfterUpdate       HookEvent = "after_update"
	AfterDelete       HookEvent = "after_delete"
	AfterStatusChange HookEvent = "after_status_change"
)

// Hook is a function that runs after a write has committed.
type Hook[T any] func(ctx context.Context, entity T) error

// HookRegistry stores post-commit hooks for an entity type.
//
// Services fire hooks explicitly once RunInTransaction has returned nil, so a
// hook never observes uncommitted state and can never roll a write back.
// Typical hooks invalidate cached lists or broadcast dispatch status.
type HookRegistry[T any] struct {
	mu    sync.RWMutex
	hooks map[HookEvent][]Hook[T]
}

// NewHookRegistry creates an empty hook registry.
func NewHookRegistry[T any]() *HookRegistry[T] {
	return &HookRegistry[T]{
		hooks: make(map[HookEvent][]Hook[T]),
	}
}

// On registers a hook for the specified event.
func (r *HookRegistry[T]) On(event HookEvent, hook Hook[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks[event] = append(r.hooks[event], hook)
}

// OnWrite registers hook for create, update, status change and delete.
func (r *HookRegistry[T]) OnWrite(hook Hook[T]) {
	for _, ev := range []HookEvent{AfterCreate, AfterUpdate, AfterStatusChange, AfterDelete} {
		r.On(ev, hook)
	}
}

// Run executes all hooks for the event and stops at the first error.
func (r *HookRegistry[T]) Run(ctx context.Context, event HookEvent, entity T) error {
	r.mu.RLock()
	hooks := r.hooks[event]
	r.mu.RUnlock()

	for _, hook := range hooks {
		if err := hook(ctx, entity); err != nil {
			return err
		}
	}
	return nil
}

// Fire executes every hook for the event, logging failures.
// Use after commit: the write already happened and must not be reported as failed.
func (r *HookRegistry[T]) Fire(ctx context.Context, event HookEvent, entity T) {
	if r == nil {
		return
	}
	r.mu.RLock()
	hooks := r.hooks[event]
	r.mu.RUnlock()

	for _, hook := range hooks {
		if err := hook(ctx, entity); err != nil {
			logger.Warn(ctx, "post-commit hook failed", "event", string(event), "error", err)
		}
	}
}
