// Package tenant models the city of registration that partitions every row.
// All cities share one schema; each row carries its tenant key and every query
// and uniqueness constraint is scoped by it.
package tenant

import (
	"sort"
	"strings"
)

// Key identifies a city of registration (e.g. "URUAPAN").
type Key string

// Known cities the business operates in.
const (
	Uruapan Key = "URUAPAN"
	Lazaro  Key = "LAZARO"
)

// Normalize upper-cases and trims a raw tenant key.
func Normalize(raw string) Key {
	return Key(strings.ToUpper(strings.TrimSpace(raw)))
}

func (k Key) String() string { return string(k) }

// IsZero reports whether the key is empty.
func (k Key) IsZero() bool { return k == "" }

// Registry is the set of cities accepted by this deployment.
type Registry struct {
	keys map[Key]struct{}
}

// NewRegistry builds a registry from raw keys. Empty entries are skipped.
func NewRegistry(raw ...string) *Registry {
	r := &Registry{keys: make(map[Key]struct{}, len(raw))}
	for _, s := range raw {
		if k := Normalize(s); !k.IsZero() {
			r.keys[k] = struct{}{}
		}
	}
	return r
}

// Resolve normalizes raw and checks it against the registry.
func (r *Registry) Resolve(raw string) (Key, error) {
	k := Normalize(raw)
	if k.IsZero() {
		return "", ErrNoTenantInContext
	}
	if _, ok := r.keys[k]; !ok {
		return "", ErrTenantNotFound
	}
	return k, nil
}

// Contains reports whether k is registered.
func (r *Registry) Contains(k Key) bool {
	_, ok := r.keys[k]
	return ok
}

// List returns registered keys in stable order.
func (r *Registry) List() []Key {
	out := make([]Key, 0, len(r.keys))
	for k := range r.keys {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
