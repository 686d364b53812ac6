package payment

import (
	"context"

	"github.com/tuanvm/fashionstore-backend/internal/model"
	"github.com/tuanvm/fashionstore-backend/internal/payment/dto"
)

type UseCase interface {
	ListForOrder(ctx context.Context, orderID int64) ([]model.Payment, error)
	TotalPaidForOrder(ctx context.Context, orderID int64) (int64, error)
	ListPaged(ctx context.Context, f *dto.PaymentFilters) ([]model.Payment, int, error)
}
