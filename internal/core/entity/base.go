// Package entity holds the fields shared by every persisted row.
package entity

import (
	"context"
	"time"

	"distribuidora/internal/core/id"
	"distribuidora/internal/core/tenant"
)

// Validatable is implemented by entities that support self-validation.
// Validation checks internal invariants (without database access).
type Validatable interface {
	Validate(ctx context.Context) error
}

// BaseEntity contains common fields for every tenant-owned row.
type BaseEntity struct {
	ID     id.ID      `db:"id" json:"id"`
	Tenant tenant.Key `db:"tenant" json:"tenant"`

	// Version for optimistic locking (incremented on each update)
	Version int `db:"version" json:"version"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewBaseEntity creates a BaseEntity with generated ID owned by t.
func NewBaseEntity(t tenant.Key) BaseEntity {
	now := time.Now().UTC()
	return BaseEntity{
		ID:        id.New(),
		Tenant:    t,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch updates the UpdatedAt timestamp and increments version.
func (b *BaseEntity) Touch() {
	b.UpdatedAt = time.Now().UTC()
	b.Version++
}

// GetID returns the primary key.
func (b *BaseEntity) GetID() id.ID { return b.ID }

// GetTenant returns the owning city.
func (b *BaseEntity) GetTenant() tenant.Key { return b.Tenant }

// Snapshot is a name copied from a referenced row at creation time.
//
// Historical rows (sale lines, adjustments, dispatch lines) keep the snapshot
// next to a nullable reference. The snapshot is written once and never
// resynchronized, so it may differ from the live entity after a rename or
// survive the referenced row's deletion.
type Snapshot = string

// SetVersion records the version persisted by the last update.
func (b *BaseEntity) SetVersion(v int) { b.Version = v }
