package model

type ReturnStatus string

const (
	ReturnRequested ReturnStatus = "requested"
	ReturnApproved  ReturnStatus = "approved"
	ReturnRejected  ReturnStatus = "rejected"
	ReturnReceived  ReturnStatus = "received"
	ReturnRefunded  ReturnStatus = "refunded"
	ReturnClosed    ReturnStatus = "closed"
)

// returnTransitions is the strict forward state table; anything not listed is
// an illegal transition.
var returnTransitions = map[ReturnStatus][]ReturnStatus{
	ReturnRequested: {ReturnApproved, ReturnRejected},
	ReturnApproved:  {ReturnReceived, ReturnRefunded},
	ReturnReceived:  {ReturnRefunded},
	ReturnRefunded:  {ReturnClosed},
	ReturnRejected:  {ReturnClosed},
}

func (s ReturnStatus) CanTransitionTo(next ReturnStatus) bool {
	for _, allowed := range returnTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ReturnRequest is a customer's post-purchase request to send items back.
type ReturnRequest struct {
	BaseModel
	OrderID int64        `db:"order_id" json:"order_id"`
	Status  ReturnStatus `db:"status" json:"status"`
	Reason  *string      `db:"reason" json:"reason,omitempty"`

	Items []ReturnItem `db:"-" json:"items,omitempty"`
}

// ReturnItem references an original order item (restrict-delete) and must not
// exceed its purchased quantity. Unique per (return_id, order_item_id).
type ReturnItem struct {
	BaseModel
	ReturnID    int64 `db:"return_id" json:"return_id"`
	OrderItemID int64 `db:"order_item_id" json:"order_item_id"`
	Qty         int   `db:"qty" json:"qty"`
}
