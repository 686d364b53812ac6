package model

import "time"

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPaid      OrderStatus = "paid"
	OrderCancelled OrderStatus = "cancelled"
	OrderFulfilled OrderStatus = "fulfilled"
	OrderRefunded  OrderStatus = "refunded"
)

// ShippingAddress is the denormalized address snapshot copied onto an order at
// checkout. Address-book edits must never rewrite order history.
type ShippingAddress struct {
	FullName      string  `db:"ship_full_name" json:"full_name"`
	MobileNum     string  `db:"ship_mobile_num" json:"mobile_num"`
	DetailAddress string  `db:"ship_detail_address" json:"detail_address"`
	ProvinceName  *string `db:"ship_province_name" json:"province_name,omitempty"`
	DistrictName  *string `db:"ship_district_name" json:"district_name,omitempty"`
	WardName      *string `db:"ship_ward_name" json:"ward_name,omitempty"`
	ZipCode       *string `db:"ship_zip_code" json:"zip_code,omitempty"`
}

// Order is the durable financial record of a purchase. user_id is nulled, not
// cascaded, if the user is removed.
type Order struct {
	BaseModel
	SoftDelete
	ShippingAddress
	OrderNumber string      `db:"order_number" json:"order_number"`
	UserID      *int64      `db:"user_id" json:"user_id,omitempty"`
	Status      OrderStatus `db:"status" json:"status"`

	SubtotalCents    int64  `db:"subtotal_cents" json:"subtotal_cents"`
	ShippingFeeCents int64  `db:"shipping_fee_cents" json:"shipping_fee_cents"`
	DiscountCents    int64  `db:"discount_cents" json:"discount_cents"`
	TotalCents       int64  `db:"total_cents" json:"total_cents"`
	Currency         string `db:"currency" json:"currency"`

	PaidAt      *time.Time `db:"paid_at" json:"paid_at,omitempty"`
	CancelledAt *time.Time `db:"cancelled_at" json:"cancelled_at,omitempty"`
	FulfilledAt *time.Time `db:"fulfilled_at" json:"fulfilled_at,omitempty"`

	Items []OrderItem `db:"-" json:"items,omitempty"`
}

// OrderItem snapshots name/sku/color/size and unit price at purchase time.
// Catalog links are nullable so order history survives catalog deletions.
type OrderItem struct {
	BaseModel
	OrderID   int64  `db:"order_id" json:"order_id"`
	ProductID *int64 `db:"product_id" json:"product_id,omitempty"`
	VariantID *int64 `db:"variant_id" json:"variant_id,omitempty"`

	Name  string  `db:"name" json:"name"`
	SKU   string  `db:"sku" json:"sku"`
	Color *string `db:"color" json:"color,omitempty"`
	Size  *string `db:"size" json:"size,omitempty"`

	Qty            int   `db:"qty" json:"qty"`
	UnitPriceCents int64 `db:"unit_price_cents" json:"unit_price_cents"`
	LineTotalCents int64 `db:"line_total_cents" json:"line_total_cents"`
}
