package dto

import "github.com/tuanvm/fashionstore-backend/internal/model"

type ChangeStockInput struct {
	VariantID int64
	QtyDelta  int
	Reason    model.MovementReason
	OrderID   *int64
	Note      *string
}

type ManualAdjustInput struct {
	VariantID int64
	QtyDelta  int
	Note      *string
}

type MovementFilters struct {
	VariantID *int64
	OrderID   *int64
	Reason    model.MovementReason // empty matches all reasons
	Sort      []string             // e.g. "-created_at", "qty_delta"; id tiebreak is always applied
	Limit     int
	Offset    int
}
