package payment

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/tuanvm/fashionstore-backend/internal/model"
	"github.com/tuanvm/fashionstore-backend/internal/payment/dto"
)

// Repository persists the append-mostly payment ledger. Corrections are new
// rows; no method edits an existing row.
type Repository interface {
	Create(ctx context.Context, ext sqlx.ExtContext, p *model.Payment) (*model.Payment, error)
	ListForOrder(ctx context.Context, ext sqlx.ExtContext, orderID int64) ([]model.Payment, error)
	// TotalPaidForOrder sums amount_cents over rows with status 'paid'; used
	// for reconciliation.
	TotalPaidForOrder(ctx context.Context, ext sqlx.ExtContext, orderID int64) (int64, error)
	ListPaged(ctx context.Context, f *dto.PaymentFilters) ([]model.Payment, int, error)
}
