package usecase

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/tuanvm/fashionstore-backend/internal/apperr"
	"github.com/tuanvm/fashionstore-backend/internal/inventory"
	invdto "github.com/tuanvm/fashionstore-backend/internal/inventory/dto"
	"github.com/tuanvm/fashionstore-backend/internal/model"
	"github.com/tuanvm/fashionstore-backend/internal/order"
	orderdto "github.com/tuanvm/fashionstore-backend/internal/order/dto"
	"github.com/tuanvm/fashionstore-backend/internal/payment"
	"github.com/tuanvm/fashionstore-backend/internal/returns"
	"github.com/tuanvm/fashionstore-backend/internal/returns/dto"
	"github.com/tuanvm/fashionstore-backend/pkg/broker"
	"github.com/tuanvm/fashionstore-backend/pkg/cache"
	"github.com/tuanvm/fashionstore-backend/pkg/logger"
	"github.com/tuanvm/fashionstore-backend/pkg/postgres"
	"go.uber.org/zap"
)

type returnsUseCase struct {
	repo      returns.Repository
	orders    order.Repository
	inv       inventory.Repository
	payments  payment.Repository
	tm        postgres.Transactor
	cache     *cache.RedisClient
	publisher broker.Publisher
	logger    logger.ZapLogger

	// prorateRefunds switches the refund amount from the order total to the
	// sum of the returned lines.
	prorateRefunds bool
}

func NewReturnsUseCase(
	repo returns.Repository,
	orders order.Repository,
	inv inventory.Repository,
	payments payment.Repository,
	tm postgres.Transactor,
	redis *cache.RedisClient,
	publisher broker.Publisher,
	log logger.ZapLogger,
	prorateRefunds bool,
) returns.UseCase {
	return &returnsUseCase{
		repo:           repo,
		orders:         orders,
		inv:            inv,
		payments:       payments,
		tm:             tm,
		cache:          redis,
		publisher:      publisher,
		logger:         log,
		prorateRefunds: prorateRefunds,
	}
}

func (uc *returnsUseCase) withItems(ctx context.Context, ext sqlx.ExtContext, r *model.ReturnRequest) (*model.ReturnRequest, error) {
	items, err := uc.repo.ListItems(ctx, ext, r.ID)
	if err != nil {
		return nil, err
	}
	r.Items = items
	return r, nil
}

// returnableOrder checks ownership (ownerID nil skips the check) and that the
// order is in a state returns are accepted for.
func (uc *returnsUseCase) returnableOrder(ctx context.Context, ext sqlx.ExtContext, orderID int64, ownerID *int64) (*model.Order, error) {
	o, err := uc.orders.Get(ctx, ext, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, apperr.NotFound("Order not found")
	}
	if ownerID != nil && (o.UserID == nil || *o.UserID != *ownerID) {
		return nil, apperr.NotFound("Order not found")
	}
	if o.Status != model.OrderPaid && o.Status != model.OrderFulfilled {
		return nil, apperr.BadRequest("Only 'paid' or 'fulfilled' orders can be returned")
	}
	return o, nil
}

// validateLine caps the requested quantity at what was purchased minus what
// other live returns already claim for the same order item.
func (uc *returnsUseCase) validateLine(ctx context.Context, ext sqlx.ExtContext, orderID, excludeReturnID int64, line *dto.ReturnLineInput) (*model.OrderItem, error) {
	if line.Qty <= 0 {
		return nil, apperr.BadRequest("Return qty must be positive")
	}
	it, err := uc.orders.GetItem(ctx, ext, line.OrderItemID)
	if err != nil {
		return nil, err
	}
	if it == nil || it.OrderID != orderID {
		return nil, apperr.BadRequestf("Order item %d does not belong to the order", line.OrderItemID)
	}
	claimed, err := uc.repo.ReturnedQtyForOrderItem(ctx, ext, it.ID, excludeReturnID)
	if err != nil {
		return nil, err
	}
	if line.Qty+claimed > it.Qty {
		return nil, apperr.BadRequestf("Return qty for item %d exceeds purchased qty", line.OrderItemID)
	}
	return it, nil
}

func (uc *returnsUseCase) Create(ctx context.Context, userID int64, in *dto.CreateReturnInput) (*model.ReturnRequest, error) {
	if len(in.Items) == 0 {
		return nil, apperr.BadRequest("Return must contain at least one item")
	}

	var out *model.ReturnRequest
	err := uc.tm.WithinTx(ctx, func(ctx context.Context, tx sqlx.ExtContext) error {
		if _, err := uc.returnableOrder(ctx, tx, in.OrderID, &userID); err != nil {
			return err
		}

		r, err := uc.repo.Create(ctx, tx, &model.ReturnRequest{
			OrderID: in.OrderID,
			Status:  model.ReturnRequested,
			Reason:  in.Reason,
		})
		if err != nil {
			return err
		}

		for i := range in.Items {
			line := &in.Items[i]
			it, err := uc.validateLine(ctx, tx, in.OrderID, r.ID, line)
			if err != nil {
				return err
			}
			if _, err := uc.repo.AddItem(ctx, tx, &model.ReturnItem{
				ReturnID:    r.ID,
				OrderItemID: it.ID,
				Qty:         line.Qty,
			}); err != nil {
				if postgres.IsUniqueViolation(err) {
					return apperr.Conflict("Duplicate order item in return")
				}
				return err
			}
		}

		out, err = uc.withItems(ctx, tx, r)
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("return requested",
		zap.Int64("return_id", out.ID),
		zap.Int64("order_id", out.OrderID),
		zap.Int("items", len(out.Items)),
	)
	return out, nil
}

// getOwned resolves a return through its order's user_id.
func (uc *returnsUseCase) getOwned(ctx context.Context, ext sqlx.ExtContext, userID, returnID int64) (*model.ReturnRequest, error) {
	r, err := uc.repo.Get(ctx, ext, returnID)
	if err != nil {
		return nil, err
	}
	return uc.owned(ctx, ext, userID, r)
}

// lockOwned is getOwned under a row lock, for edits inside a transaction.
func (uc *returnsUseCase) lockOwned(ctx context.Context, tx sqlx.ExtContext, userID, returnID int64) (*model.ReturnRequest, error) {
	r, err := uc.repo.GetForUpdate(ctx, tx, returnID)
	if err != nil {
		return nil, err
	}
	return uc.owned(ctx, tx, userID, r)
}

func (uc *returnsUseCase) owned(ctx context.Context, ext sqlx.ExtContext, userID int64, r *model.ReturnRequest) (*model.ReturnRequest, error) {
	if r == nil {
		return nil, apperr.NotFound("Return not found")
	}
	o, err := uc.orders.Get(ctx, ext, r.OrderID)
	if err != nil {
		return nil, err
	}
	if o == nil || o.UserID == nil || *o.UserID != userID {
		return nil, apperr.NotFound("Return not found")
	}
	return r, nil
}

func (uc *returnsUseCase) GetForUser(ctx context.Context, userID, returnID int64) (*model.ReturnRequest, error) {
	r, err := uc.getOwned(ctx, nil, userID, returnID)
	if err != nil {
		return nil, err
	}
	return uc.withItems(ctx, nil, r)
}

func (uc *returnsUseCase) ListForUser(ctx context.Context, userID int64, f *dto.ReturnFilters) ([]model.ReturnRequest, int, error) {
	scoped := *f
	scoped.UserID = &userID
	return uc.repo.List(ctx, &scoped)
}

func (uc *returnsUseCase) AddItem(ctx context.Context, userID, returnID int64, line *dto.ReturnLineInput) (*model.ReturnRequest, error) {
	var out *model.ReturnRequest
	err := uc.tm.WithinTx(ctx, func(ctx context.Context, tx sqlx.ExtContext) error {
		r, err := uc.lockOwned(ctx, tx, userID, returnID)
		if err != nil {
			return err
		}
		if r.Status != model.ReturnRequested {
			return apperr.BadRequest("Return can no longer be modified")
		}
		it, err := uc.validateLine(ctx, tx, r.OrderID, r.ID, line)
		if err != nil {
			return err
		}

		// Adding the same order item again tops up the existing line.
		existing, err := uc.repo.ListItems(ctx, tx, r.ID)
		if err != nil {
			return err
		}
		var found *model.ReturnItem
		for i := range existing {
			if existing[i].OrderItemID == it.ID {
				found = &existing[i]
				break
			}
		}
		if found != nil {
			if found.Qty+line.Qty > it.Qty {
				return apperr.BadRequestf("Return qty for item %d exceeds purchased qty", line.OrderItemID)
			}
			found.Qty += line.Qty
			if _, err := uc.repo.SaveItem(ctx, tx, found); err != nil {
				return err
			}
		} else {
			if _, err := uc.repo.AddItem(ctx, tx, &model.ReturnItem{
				ReturnID:    r.ID,
				OrderItemID: it.ID,
				Qty:         line.Qty,
			}); err != nil {
				return err
			}
		}

		out, err = uc.withItems(ctx, tx, r)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (uc *returnsUseCase) RemoveItem(ctx context.Context, userID, returnID, itemID int64) (*model.ReturnRequest, error) {
	var out *model.ReturnRequest
	err := uc.tm.WithinTx(ctx, func(ctx context.Context, tx sqlx.ExtContext) error {
		r, err := uc.lockOwned(ctx, tx, userID, returnID)
		if err != nil {
			return err
		}
		if r.Status != model.ReturnRequested {
			return apperr.BadRequest("Return can no longer be modified")
		}
		it, err := uc.repo.GetItem(ctx, tx, itemID)
		if err != nil {
			return err
		}
		// Removing an absent or foreign line is a no-op.
		if it != nil && it.ReturnID == r.ID {
			if err := uc.repo.DeleteItem(ctx, tx, it.ID); err != nil {
				return err
			}
		}
		out, err = uc.withItems(ctx, tx, r)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ---- Admin ----

func (uc *returnsUseCase) Get(ctx context.Context, returnID int64) (*model.ReturnRequest, error) {
	r, err := uc.repo.Get(ctx, nil, returnID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, apperr.NotFound("Return not found")
	}
	return uc.withItems(ctx, nil, r)
}

func (uc *returnsUseCase) List(ctx context.Context, f *dto.ReturnFilters) ([]model.ReturnRequest, int, error) {
	return uc.repo.List(ctx, f)
}

func (uc *returnsUseCase) transition(ctx context.Context, ext sqlx.ExtContext, r *model.ReturnRequest, next model.ReturnStatus) error {
	if !r.Status.CanTransitionTo(next) {
		return apperr.BadRequestf("Cannot move return from '%s' to '%s'", r.Status, next)
	}
	r.Status = next
	return uc.repo.Save(ctx, ext, r)
}

// lockReturn loads the return under a row lock so the transition decision and
// the write that follows cannot interleave with a concurrent transition.
func (uc *returnsUseCase) lockReturn(ctx context.Context, tx sqlx.ExtContext, returnID int64) (*model.ReturnRequest, error) {
	r, err := uc.repo.GetForUpdate(ctx, tx, returnID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, apperr.NotFound("Return not found")
	}
	return r, nil
}

func (uc *returnsUseCase) Decide(ctx context.Context, returnID int64, approve bool, reason *string) (*model.ReturnRequest, error) {
	next := model.ReturnRejected
	if approve {
		next = model.ReturnApproved
	}

	var r *model.ReturnRequest
	err := uc.tm.WithinTx(ctx, func(ctx context.Context, tx sqlx.ExtContext) error {
		var err error
		if r, err = uc.lockReturn(ctx, tx, returnID); err != nil {
			return err
		}
		if reason != nil && *reason != "" {
			r.Reason = reason
		}
		return uc.transition(ctx, tx, r, next)
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("return decided",
		zap.Int64("return_id", r.ID),
		zap.String("status", string(r.Status)),
	)
	return uc.withItems(ctx, nil, r)
}

func (uc *returnsUseCase) MarkReceived(ctx context.Context, returnID int64, note *string) (*dto.ReceiveResult, error) {
	restockNote := "return received"
	if note != nil && *note != "" {
		restockNote = *note
	}

	skipped := 0
	var r *model.ReturnRequest
	err := uc.tm.WithinTx(ctx, func(ctx context.Context, tx sqlx.ExtContext) error {
		var err error
		if r, err = uc.lockReturn(ctx, tx, returnID); err != nil {
			return err
		}
		if err := uc.transition(ctx, tx, r, model.ReturnReceived); err != nil {
			return err
		}
		items, err := uc.repo.ListItems(ctx, tx, r.ID)
		if err != nil {
			return err
		}
		for _, ri := range items {
			oi, err := uc.orders.GetItem(ctx, tx, ri.OrderItemID)
			if err != nil {
				return err
			}
			if oi == nil || oi.VariantID == nil {
				skipped++
				continue
			}
			v, err := uc.inv.GetVariant(ctx, tx, *oi.VariantID)
			if err != nil {
				return err
			}
			if v == nil {
				skipped++
				continue
			}
			if _, err := uc.inv.ChangeStock(ctx, tx, &invdto.ChangeStockInput{
				VariantID: v.ID,
				QtyDelta:  ri.Qty,
				Reason:    model.MovementReturnIn,
				OrderID:   &r.OrderID,
				Note:      &restockNote,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if skipped > 0 {
		uc.logger.Warn("return received with unrestockable lines",
			zap.Int64("return_id", r.ID),
			zap.Int("skipped_items", skipped),
		)
	}
	out, err := uc.withItems(ctx, nil, r)
	if err != nil {
		return nil, err
	}
	return &dto.ReceiveResult{Return: out, SkippedItems: skipped}, nil
}

func (uc *returnsUseCase) Refund(ctx context.Context, returnID int64, method *model.PaymentMethod) (*model.ReturnRequest, error) {
	payMethod := model.PaymentMethodCOD
	if method != nil {
		if !method.Valid() {
			return nil, apperr.BadRequest("Invalid payment method")
		}
		payMethod = *method
	}

	var r *model.ReturnRequest
	var refunded *model.Order
	err := uc.tm.WithinTx(ctx, func(ctx context.Context, tx sqlx.ExtContext) error {
		var err error
		if r, err = uc.lockReturn(ctx, tx, returnID); err != nil {
			return err
		}
		o, err := uc.orders.GetForUpdate(ctx, tx, r.OrderID)
		if err != nil {
			return err
		}
		if o == nil {
			return apperr.NotFound("Order not found")
		}

		if err := uc.transition(ctx, tx, r, model.ReturnRefunded); err != nil {
			return err
		}

		amount, err := uc.refundAmount(ctx, tx, r, o)
		if err != nil {
			return err
		}
		if _, err := uc.payments.Create(ctx, tx, &model.Payment{
			OrderID:     o.ID,
			AmountCents: amount,
			Status:      model.PaymentRefunded,
			Method:      payMethod,
		}); err != nil {
			return err
		}

		if o.Status == model.OrderPaid || o.Status == model.OrderFulfilled {
			o.Status = model.OrderRefunded
			if err := uc.orders.Save(ctx, tx, o); err != nil {
				return err
			}
			refunded = o
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if refunded != nil {
		if err := uc.cache.Delete(ctx, order.CacheKey(refunded.ID)); err != nil {
			uc.logger.Warn("failed to invalidate order cache", zap.Int64("order_id", refunded.ID), zap.Error(err))
		}
		if uc.publisher != nil {
			if err := uc.publisher.Publish(ctx, "OrderRefunded", refunded.OrderNumber, orderdto.OrderEvent{
				OrderID:     refunded.ID,
				OrderNumber: refunded.OrderNumber,
				UserID:      refunded.UserID,
				Status:      string(refunded.Status),
				TotalCents:  refunded.TotalCents,
			}); err != nil {
				uc.logger.Warn("failed to publish order event", zap.Int64("order_id", refunded.ID), zap.Error(err))
			}
		}
	}
	return uc.withItems(ctx, nil, r)
}

// refundAmount is the full order total unless proration is enabled, in which
// case it is the sum of the returned lines at their purchase-time unit price.
func (uc *returnsUseCase) refundAmount(ctx context.Context, tx sqlx.ExtContext, r *model.ReturnRequest, o *model.Order) (int64, error) {
	if !uc.prorateRefunds {
		return o.TotalCents, nil
	}
	items, err := uc.repo.ListItems(ctx, tx, r.ID)
	if err != nil {
		return 0, err
	}
	var amount int64
	for _, ri := range items {
		oi, err := uc.orders.GetItem(ctx, tx, ri.OrderItemID)
		if err != nil {
			return 0, err
		}
		if oi == nil {
			continue
		}
		amount += oi.UnitPriceCents * int64(ri.Qty)
	}
	return amount, nil
}

func (uc *returnsUseCase) Close(ctx context.Context, returnID int64) (*model.ReturnRequest, error) {
	var r *model.ReturnRequest
	err := uc.tm.WithinTx(ctx, func(ctx context.Context, tx sqlx.ExtContext) error {
		var err error
		if r, err = uc.lockReturn(ctx, tx, returnID); err != nil {
			return err
		}
		return uc.transition(ctx, tx, r, model.ReturnClosed)
	})
	if err != nil {
		return nil, err
	}
	return uc.withItems(ctx, nil, r)
}
