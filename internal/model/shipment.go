package model

import "time"

type ShipmentStatus string

const (
	ShipmentPending   ShipmentStatus = "pending"
	ShipmentPacked    ShipmentStatus = "packed"
	ShipmentInTransit ShipmentStatus = "in_transit"
	ShipmentDelivered ShipmentStatus = "delivered"
	ShipmentCancelled ShipmentStatus = "cancelled"
)

func (s ShipmentStatus) Valid() bool {
	switch s {
	case ShipmentPending, ShipmentPacked, ShipmentInTransit, ShipmentDelivered, ShipmentCancelled:
		return true
	}
	return false
}

// Shipment is the single fulfillment record of an order (unique order_id).
type Shipment struct {
	BaseModel
	OrderID        int64          `db:"order_id" json:"order_id"`
	Carrier        *string        `db:"carrier" json:"carrier,omitempty"`
	TrackingNumber *string        `db:"tracking_number" json:"tracking_number,omitempty"`
	Status         ShipmentStatus `db:"status" json:"status"`
	ShippedAt      *time.Time     `db:"shipped_at" json:"shipped_at,omitempty"`
	DeliveredAt    *time.Time     `db:"delivered_at" json:"delivered_at,omitempty"`
}

// ShipmentPatch applies a partial update; only non-nil fields are written.
type ShipmentPatch struct {
	Status         *ShipmentStatus
	Carrier        *string
	TrackingNumber *string
	ShippedAt      *time.Time
	DeliveredAt    *time.Time
}

func (p *ShipmentPatch) Apply(s *Shipment) {
	if p.Status != nil {
		s.Status = *p.Status
	}
	if p.Carrier != nil {
		s.Carrier = p.Carrier
	}
	if p.TrackingNumber != nil {
		s.TrackingNumber = p.TrackingNumber
	}
	if p.ShippedAt != nil {
		s.ShippedAt = p.ShippedAt
	}
	if p.DeliveredAt != nil {
		s.DeliveredAt = p.DeliveredAt
	}
}
