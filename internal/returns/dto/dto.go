package dto

import "github.com/tuanvm/fashionstore-backend/internal/model"

type ReturnLineInput struct {
	OrderItemID int64 `json:"order_item_id"`
	Qty         int   `json:"qty"`
}

type CreateReturnInput struct {
	OrderID int64             `json:"order_id"`
	Reason  *string           `json:"reason,omitempty"`
	Items   []ReturnLineInput `json:"items"`
}

type ReturnFilters struct {
	OrderID *int64
	UserID  *int64
	Status  []string
	Sort    []string
	Limit   int
	Offset  int
}

// ReceiveResult reports the restock outcome of marking a return received.
// SkippedItems counts lines whose catalog variant no longer exists; those
// lines are accepted but produce no stock movement.
type ReceiveResult struct {
	Return       *model.ReturnRequest `json:"return"`
	SkippedItems int                  `json:"skipped_items"`
}
