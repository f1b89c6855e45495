package folio

import (
	"context"
	"sync"

	"distribuidora/internal/core/tenant"
)

// MemoryGenerator is a test implementation of Generator.
// Use in unit tests to avoid database dependencies.
type MemoryGenerator struct {
	mu       sync.Mutex
	counters map[string]int64
}

// NewMemoryGenerator creates an empty generator.
func NewMemoryGenerator() *MemoryGenerator {
	return &MemoryGenerator{counters: make(map[string]int64)}
}

// Next implements Generator.
func (m *MemoryGenerator) Next(_ context.Context, t tenant.Key, cfg Config) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := string(t) + "/" + string(cfg.Kind)
	m.counters[key]++
	return cfg.Format(m.counters[key]), nil
}

// SetNext implements Generator.
func (m *MemoryGenerator) SetNext(_ context.Context, t tenant.Key, kind Kind, value int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[string(t)+"/"+string(kind)] = value - 1
	return nil
}

// Ensure compile-time interface compliance.
var _ Generator = (*MemoryGenerator)(nil)
