// Package folio provides domain contracts for human-facing document numbers.
//
// A folio is unique per (tenant, kind). Numbers come from a counter row that
// is incremented atomically inside the caller's transaction, so two concurrent
// creators in the same city can never observe the same value.
package folio

import (
	"fmt"
	"strconv"
)

// Kind names one independent sequence within a tenant.
type Kind string

const (
	KindSale        Kind = "SALE"         // shared sale sequence
	KindCounterSale Kind = "SALE_COUNTER" // "M-" sales
	KindRouteSale   Kind = "SALE_ROUTE"   // "R-" sales
	KindDispatch    Kind = "DISPATCH"
)

// SaleMode selects how sale folios are partitioned.
type SaleMode string

const (
	// SaleModePerKind numbers counter and route sales separately with a prefix.
	SaleModePerKind SaleMode = "per_kind"
	// SaleModeShared uses one plain sequence per tenant for all sales.
	SaleModeShared SaleMode = "shared"
)

// ParseSaleMode accepts the configured mode; unknown values fall back to per_kind.
func ParseSaleMode(s string) SaleMode {
	if SaleMode(s) == SaleModeShared {
		return SaleModeShared
	}
	return SaleModePerKind
}

// Config describes one sequence.
type Config struct {
	Kind   Kind
	Prefix string
}

// Format renders value with the configured prefix.
func (c Config) Format(value int64) string {
	if c.Prefix == "" {
		return strconv.FormatInt(value, 10)
	}
	return fmt.Sprintf("%s%d", c.Prefix, value)
}

// SaleConfig returns the sequence used for a sale.
func SaleConfig(mode SaleMode, route bool) Config {
	if mode == SaleModeShared {
		return Config{Kind: KindSale}
	}
	if route {
		return Config{Kind: KindRouteSale, Prefix: "R-"}
	}
	return Config{Kind: KindCounterSale, Prefix: "M-"}
}

// DispatchConfig returns the sequence used for route dispatches.
func DispatchConfig() Config {
	return Config{Kind: KindDispatch}
}
