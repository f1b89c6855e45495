// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"fmt"
	"strings"

	"distribuidora/internal/core/apperror"
	"distribuidora/internal/core/id"
	"distribuidora/internal/domain"
)

// ListRequest contains the query parameters shared by every list endpoint.
type ListRequest struct {
	Search  string `form:"search" binding:"max=100"`
	OrderBy string `form:"orderBy"`
	Limit   int    `form:"limit" binding:"omitempty,min=1,max=200"`
	Offset  int    `form:"offset" binding:"omitempty,min=0"`
}

// ToFilter converts to a domain filter.
func (r ListRequest) ToFilter() domain.ListFilter {
	return domain.ListFilter{
		Search:  strings.TrimSpace(r.Search),
		OrderBy: r.OrderBy,
		Limit:   r.Limit,
		Offset:  r.Offset,
	}.Normalize()
}

// CacheKey identifies the requested page for the list cache.
func (r ListRequest) CacheKey() string {
	f := r.ToFilter()
	return fmt.Sprintf("q=%s|o=%s|l=%d|f=%d", strings.ToUpper(f.Search), f.OrderBy, f.Limit, f.Offset)
}

// ListResponse wraps list results with pagination.
type ListResponse[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// FromListResult maps every item of a domain page with conv.
func FromListResult[E, T any](r domain.ListResult[E], conv func(E) T) ListResponse[T] {
	items := make([]T, len(r.Items))
	for i, e := range r.Items {
		items[i] = conv(e)
	}
	return ListResponse[T]{
		Items:      items,
		TotalCount: r.TotalCount,
		Limit:      r.Limit,
		Offset:     r.Offset,
	}
}

// IDResponse for create operations.
type IDResponse struct {
	ID string `json:"id"`
}

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse documents the body written by middleware.ErrorHandler.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ParseID parses a path or body identifier, reporting the field on failure.
func ParseID(field, raw string) (id.ID, error) {
	v, err := id.Parse(raw)
	if err != nil {
		return id.ID{}, apperror.NewValidation("invalid "+field).
			WithDetail("field", field).
			WithDetail("value", raw)
	}
	return v, nil
}

// ParseOptionalID parses an optional identifier; empty yields nil.
func ParseOptionalID(field string, raw *string) (*id.ID, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	v, err := ParseID(field, *raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ParseIDs parses a list of identifiers.
func ParseIDs(field string, raw []string) ([]id.ID, error) {
	if raw == nil {
		return nil, nil
	}
	out := make([]id.ID, 0, len(raw))
	for _, s := range raw {
		v, err := ParseID(field, s)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Upper normalizes an enum value received from a client.
func Upper(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
