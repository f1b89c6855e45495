// Package main is the entry point for the distribuidora background worker.
// It expires idempotency keys for every city on a fixed interval.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"distribuidora/internal/config"
	"distribuidora/internal/infrastructure/storage/postgres"
	"distribuidora/pkg/logger"
)

func main() {
	cfg, err := config.LoadForTools()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(logger.WithLogger(context.Background(), log))
	defer cancel()

	log.Info("starting distribuidora worker")

	poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	poolCfg.MaxConns = 2
	poolCfg.MinConns = 1
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	store := postgres.NewIdempotencyStore(postgres.NewTxManager(pool), cfg.IdempotencyTTL)
	worker := NewCleanupWorker(store, cfg.CleanupInterval, log).WithPoolStats(pool)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

// Expirer deletes expired rows and reports how many were removed.
type Expirer interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// StatsLogger reports connection pool usage.
type StatsLogger interface {
	LogStats(ctx context.Context)
}

// CleanupWorker periodically removes expired idempotency keys and, when a
// pool is attached, logs its usage on every tick.
type CleanupWorker struct {
	store    Expirer
	pool     StatsLogger
	interval time.Duration
	log      *logger.Logger
}

// NewCleanupWorker creates a worker; a non-positive interval means hourly.
func NewCleanupWorker(store Expirer, interval time.Duration, log *logger.Logger) *CleanupWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &CleanupWorker{
		store:    store,
		interval: interval,
		log:      log.WithComponent("worker"),
	}
}

// WithPoolStats attaches a pool whose statistics are logged after each cleanup.
func (w *CleanupWorker) WithPoolStats(pool StatsLogger) *CleanupWorker {
	w.pool = pool
	return w
}

// Run cleans once immediately, then on every tick until ctx is cancelled.
func (w *CleanupWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.cleanup(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.cleanup(ctx)
		}
	}
}

func (w *CleanupWorker) cleanup(ctx context.Context) {
	if w.pool != nil {
		defer w.pool.LogStats(ctx)
	}
	n, err := w.store.CleanupExpired(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.log.Errorw("failed to clean up idempotency keys", "error", err)
		}
		return
	}
	if n > 0 {
		w.log.Infow("cleaned up idempotency keys", "count", n)
	}
}
