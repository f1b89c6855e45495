// Package stock implements the stock ledger: one non-negative balance per
// product, moved by adjustments, sales and route dispatches.
package stock

import (
	"time"

	"distribuidora/internal/core/id"
	"distribuidora/internal/core/tenant"
	"distribuidora/internal/core/types"
)

// SourceType names the workflow that moved stock.
type SourceType string

const (
	SourceAdjustment     SourceType = "ADJUSTMENT"
	SourceSale           SourceType = "SALE"
	SourceDispatch       SourceType = "DISPATCH"
	SourceDispatchReload SourceType = "DISPATCH_RELOAD"
	SourceDispatchReturn SourceType = "DISPATCH_RETURN"
	SourceDispatchCancel SourceType = "DISPATCH_CANCEL"
)

// Source identifies the document behind a set of deltas.
type Source struct {
	Type SourceType
	ID   id.ID
}

// Delta is a signed change to one product balance.
type Delta struct {
	ProductID id.ID
	Quantity  types.Quantity
}

// Debit returns a delta that removes qty from the warehouse.
func Debit(productID id.ID, qty types.Quantity) Delta {
	return Delta{ProductID: productID, Quantity: -qty.Abs()}
}

// Credit returns a delta that adds qty to the warehouse.
func Credit(productID id.ID, qty types.Quantity) Delta {
	return Delta{ProductID: productID, Quantity: qty.Abs()}
}

// Balance is the locked view of a product row.
type Balance struct {
	ProductID id.ID          `db:"id"`
	Name      string         `db:"name"`
	Quantity  types.Quantity `db:"quantity"`
}

// Movement is one journal row in stock_movements.
type Movement struct {
	ID           id.ID          `db:"id" json:"id"`
	Tenant       tenant.Key     `db:"tenant" json:"-"`
	ProductID    id.ID          `db:"product_id" json:"productId"`
	ProductName  string         `db:"product_name" json:"productName"`
	Delta        types.Quantity `db:"delta" json:"delta"`
	BalanceAfter types.Quantity `db:"balance_after" json:"balanceAfter"`
	SourceType   SourceType     `db:"source_type" json:"sourceType"`
	SourceID     id.ID          `db:"source_id" json:"sourceId"`
	CreatedAt    time.Time      `db:"created_at" json:"createdAt"`
}

// Change reports a balance before and after one Apply call.
type Change struct {
	ProductID id.ID          `json:"productId"`
	Name      string         `json:"name"`
	Before    types.Quantity `json:"before"`
	After     types.Quantity `json:"after"`
}

// MovementFilter for filtering movement history.
type MovementFilter struct {
	SourceType *SourceType
	FromDate   *time.Time
	ToDate     *time.Time
	Limit      int
	Offset     int
}
