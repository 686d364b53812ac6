package model

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
	PaymentVoided   PaymentStatus = "voided"
)

type PaymentMethod string

const (
	PaymentMethodCOD     PaymentMethod = "cod"
	PaymentMethodCard    PaymentMethod = "card"
	PaymentMethodMomo    PaymentMethod = "momo"
	PaymentMethodZalopay PaymentMethod = "zalopay"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCOD, PaymentMethodCard, PaymentMethodMomo, PaymentMethodZalopay:
		return true
	}
	return false
}

// Payment is one row in the append-mostly money ledger of an order.
// Corrections (refunds, voids) are new rows, not edits; the only in-place
// transition is the initiating pending -> paid capture.
type Payment struct {
	BaseModel
	OrderID        int64         `db:"order_id" json:"order_id"`
	AmountCents    int64         `db:"amount_cents" json:"amount_cents"`
	Status         PaymentStatus `db:"status" json:"status"`
	Method         PaymentMethod `db:"method" json:"method"`
	TransactionRef *string       `db:"transaction_ref" json:"transaction_ref,omitempty"`
}
