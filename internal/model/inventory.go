package model

// MovementReason explains why a ledger entry changed stock.
type MovementReason string

const (
	MovementStockIn      MovementReason = "stock_in"      // manual add / purchase
	MovementReserve      MovementReason = "reserve"       // reserved (not emitted: carts do not hold stock)
	MovementUnreserve    MovementReason = "unreserve"     // reservation released
	MovementSold         MovementReason = "sold"          // order placed
	MovementReturnIn     MovementReason = "return_in"     // returned items restocked
	MovementCancelAdjust MovementReason = "cancel_adjust" // order cancelled, stock added back
	MovementManualAdjust MovementReason = "manual_adjust" // corrections
)

func (r MovementReason) Valid() bool {
	switch r {
	case MovementStockIn, MovementReserve, MovementUnreserve, MovementSold,
		MovementReturnIn, MovementCancelAdjust, MovementManualAdjust:
		return true
	}
	return false
}

// InventoryMovement is one immutable ledger row. Rows are appended, never
// updated or deleted; the running sum of QtyDelta per variant equals the
// variant's current stock_qty.
type InventoryMovement struct {
	BaseModel
	VariantID int64          `db:"variant_id" json:"variant_id"`
	OrderID   *int64         `db:"order_id" json:"order_id,omitempty"`
	QtyDelta  int            `db:"qty_delta" json:"qty_delta"`
	Reason    MovementReason `db:"reason" json:"reason"`
	Note      *string        `db:"note" json:"note,omitempty"`
}

func (m *InventoryMovement) IsInflow() bool  { return m.QtyDelta > 0 }
func (m *InventoryMovement) IsOutflow() bool { return m.QtyDelta < 0 }
