package usecase

import (
	"context"

	"github.com/tuanvm/fashionstore-backend/internal/apperr"
	"github.com/tuanvm/fashionstore-backend/internal/model"
	"github.com/tuanvm/fashionstore-backend/internal/order"
	"github.com/tuanvm/fashionstore-backend/internal/payment"
	"github.com/tuanvm/fashionstore-backend/internal/payment/dto"
	"github.com/tuanvm/fashionstore-backend/pkg/logger"
)

type paymentUseCase struct {
	repo   payment.Repository
	orders order.Repository
	logger logger.ZapLogger
}

func NewPaymentUseCase(repo payment.Repository, orders order.Repository, log logger.ZapLogger) payment.UseCase {
	return &paymentUseCase{
		repo:   repo,
		orders: orders,
		logger: log,
	}
}

func (uc *paymentUseCase) ListForOrder(ctx context.Context, orderID int64) ([]model.Payment, error) {
	o, err := uc.orders.Get(ctx, nil, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, apperr.NotFound("Order not found")
	}
	return uc.repo.ListForOrder(ctx, nil, orderID)
}

func (uc *paymentUseCase) TotalPaidForOrder(ctx context.Context, orderID int64) (int64, error) {
	o, err := uc.orders.Get(ctx, nil, orderID)
	if err != nil {
		return 0, err
	}
	if o == nil {
		return 0, apperr.NotFound("Order not found")
	}
	return uc.repo.TotalPaidForOrder(ctx, nil, orderID)
}

func (uc *paymentUseCase) ListPaged(ctx context.Context, f *dto.PaymentFilters) ([]model.Payment, int, error) {
	return uc.repo.ListPaged(ctx, f)
}
