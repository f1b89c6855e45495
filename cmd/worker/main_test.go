package main

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"distribuidora/pkg/logger"
)

type countingExpirer struct {
	calls atomic.Int32
	err   error
}

func (e *countingExpirer) CleanupExpired(context.Context) (int64, error) {
	e.calls.Add(1)
	return 3, e.err
}

func TestCleanupWorker_RunsUntilCancelled(t *testing.T) {
	store := &countingExpirer{}
	w := NewCleanupWorker(store, 10*time.Millisecond, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return store.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestCleanupWorker_ErrorsDoNotStopTheLoop(t *testing.T) {
	store := &countingExpirer{err: errors.New("db down")}
	w := NewCleanupWorker(store, 5*time.Millisecond, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	assert.Eventually(t, func() bool { return store.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
}

func TestNewCleanupWorker_DefaultInterval(t *testing.T) {
	w := NewCleanupWorker(&countingExpirer{}, 0, logger.NewNop())
	assert.Equal(t, time.Hour, w.interval)
}

type countingStats struct{ calls atomic.Int32 }

func (s *countingStats) LogStats(context.Context) { s.calls.Add(1) }

func TestCleanupWorker_LogsPoolStatsEveryTick(t *testing.T) {
	store := &countingExpirer{err: errors.New("db down")}
	stats := &countingStats{}
	w := NewCleanupWorker(store, 5*time.Millisecond, logger.NewNop()).WithPoolStats(stats)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	assert.Eventually(t, func() bool { return stats.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
}
