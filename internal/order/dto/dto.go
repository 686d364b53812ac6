package dto

import (
	"time"

	"github.com/tuanvm/fashionstore-backend/internal/model"
)

type CheckoutInput struct {
	Shipping         model.ShippingAddress `json:"shipping"`
	PaymentMethod    model.PaymentMethod   `json:"payment_method"`
	PayNow           bool                  `json:"pay_now"`
	ShippingFeeCents int64                 `json:"shipping_fee_cents"`
}

type OrderFilters struct {
	UserID      *int64
	Status      []string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	MinTotal    *int64
	MaxTotal    *int64
	Sort        []string
	Limit       int
	Offset      int
}

type CreateShipmentInput struct {
	Carrier        *string `json:"carrier,omitempty"`
	TrackingNumber *string `json:"tracking_number,omitempty"`
}

// OrderEvent is the payload published to the order events topic after a
// lifecycle transition commits.
type OrderEvent struct {
	OrderID     int64  `json:"order_id"`
	OrderNumber string `json:"order_number"`
	UserID      *int64 `json:"user_id,omitempty"`
	Status      string `json:"status"`
	TotalCents  int64  `json:"total_cents"`
}
