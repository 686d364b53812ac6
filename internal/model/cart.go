package model

type CartStatus string

const (
	CartOpen       CartStatus = "open"
	CartCheckedOut CartStatus = "checked_out"
	CartAbandoned  CartStatus = "abandoned"
)

// Cart is the per-user staging area for purchases. At most one open,
// non-deleted cart exists per user (partial unique index).
type Cart struct {
	BaseModel
	SoftDelete
	UserID int64      `db:"user_id" json:"user_id"`
	Status CartStatus `db:"status" json:"status"`

	Items         []CartItem `db:"-" json:"items,omitempty"`
	SubtotalCents int64      `db:"-" json:"subtotal_cents"`
}

// CartItem holds a point-in-time price snapshot; later catalog price changes
// do not alter it. Unique per (cart_id, variant_id).
type CartItem struct {
	BaseModel
	CartID         int64 `db:"cart_id" json:"cart_id"`
	VariantID      int64 `db:"variant_id" json:"variant_id"`
	Qty            int   `db:"qty" json:"qty"`
	UnitPriceCents int64 `db:"unit_price_cents" json:"unit_price_cents"`
	LineTotalCents int64 `db:"line_total_cents" json:"line_total_cents"`
}
