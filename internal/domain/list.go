// Package domain provides business logic contracts shared by all workflows.
package domain

import (
	"distribuidora/internal/core/id"
	"distribuidora/internal/domain/filter"
)

// MaxListLimit caps page size for every list operation.
const MaxListLimit = 200

// ListFilter contains common filtering options for list operations.
type ListFilter struct {
	// Search performs a case-insensitive match on the repository's search columns
	Search string

	// IDs filters by specific IDs
	IDs []id.ID

	// Filters are exact conditions (status, customer_id, dispatch_id ...)
	Filters []filter.Item

	// OrderBy specifies sorting (e.g., "name", "-created_at")
	OrderBy string

	Limit  int
	Offset int
}

// DefaultListFilter returns sensible defaults.
func DefaultListFilter() ListFilter {
	return ListFilter{Limit: 50}
}

// Where appends an equality filter and returns f for chaining.
func (f ListFilter) Where(field string, value any) ListFilter {
	f.Filters = append(append([]filter.Item(nil), f.Filters...), filter.Eq(field, value))
	return f
}

// Normalize clamps pagination values.
func (f ListFilter) Normalize() ListFilter {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// ListResult contains paginated results.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}
