package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/tuanvm/fashionstore-backend/internal/apperr"
	"github.com/tuanvm/fashionstore-backend/internal/cart"
	"github.com/tuanvm/fashionstore-backend/internal/inventory"
	invdto "github.com/tuanvm/fashionstore-backend/internal/inventory/dto"
	"github.com/tuanvm/fashionstore-backend/internal/model"
	"github.com/tuanvm/fashionstore-backend/internal/order"
	"github.com/tuanvm/fashionstore-backend/internal/order/dto"
	"github.com/tuanvm/fashionstore-backend/internal/payment"
	"github.com/tuanvm/fashionstore-backend/internal/shipment"
	"github.com/tuanvm/fashionstore-backend/pkg/broker"
	"github.com/tuanvm/fashionstore-backend/pkg/cache"
	"github.com/tuanvm/fashionstore-backend/pkg/logger"
	"github.com/tuanvm/fashionstore-backend/pkg/postgres"
	"go.uber.org/zap"
)

const (
	orderCacheTTL        = 5 * time.Minute
	checkoutNumberTries  = 3
	defaultOrderCurrency = "VND"
)

type orderUseCase struct {
	orders    order.Repository
	carts     cart.Repository
	inv       inventory.Repository
	payments  payment.Repository
	shipments shipment.Repository
	tm        postgres.Transactor
	cache     *cache.RedisClient
	publisher broker.Publisher
	logger    logger.ZapLogger
}

func NewOrderUseCase(
	orders order.Repository,
	carts cart.Repository,
	inv inventory.Repository,
	payments payment.Repository,
	shipments shipment.Repository,
	tm postgres.Transactor,
	redis *cache.RedisClient,
	publisher broker.Publisher,
	log logger.ZapLogger,
) order.UseCase {
	return &orderUseCase{
		orders:    orders,
		carts:     carts,
		inv:       inv,
		payments:  payments,
		shipments: shipments,
		tm:        tm,
		cache:     redis,
		publisher: publisher,
		logger:    log,
	}
}

// genOrderNumber yields numbers like FS-20260115-4821. The keyspace is small
// on purpose (human-readable); collisions surface as unique violations and
// checkout retries with a fresh number.
func genOrderNumber(t time.Time) string {
	return fmt.Sprintf("FS-%s-%04d", t.UTC().Format("20060102"), rand.Intn(9000)+1000)
}

func (uc *orderUseCase) invalidate(ctx context.Context, orderID int64) {
	if err := uc.cache.Delete(ctx, order.CacheKey(orderID)); err != nil {
		uc.logger.Warn("failed to invalidate order cache", zap.Int64("order_id", orderID), zap.Error(err))
	}
}

func (uc *orderUseCase) publish(ctx context.Context, eventType string, o *model.Order) {
	if uc.publisher == nil {
		return
	}
	err := uc.publisher.Publish(ctx, eventType, o.OrderNumber, dto.OrderEvent{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		UserID:      o.UserID,
		Status:      string(o.Status),
		TotalCents:  o.TotalCents,
	})
	if err != nil {
		// Events are best-effort; business state already committed.
		uc.logger.Warn("failed to publish order event",
			zap.String("event_type", eventType),
			zap.Int64("order_id", o.ID),
			zap.Error(err),
		)
	}
}

func (uc *orderUseCase) withItems(ctx context.Context, ext sqlx.ExtContext, o *model.Order) (*model.Order, error) {
	items, err := uc.orders.ListItems(ctx, ext, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

// ---- Checkout ----

func (uc *orderUseCase) Checkout(ctx context.Context, userID int64, in *dto.CheckoutInput) (*model.Order, error) {
	if !in.PaymentMethod.Valid() {
		return nil, apperr.BadRequest("Invalid payment method")
	}
	if in.ShippingFeeCents < 0 {
		return nil, apperr.BadRequest("Shipping fee cannot be negative")
	}
	if in.Shipping.FullName == "" || in.Shipping.MobileNum == "" || in.Shipping.DetailAddress == "" {
		return nil, apperr.BadRequest("Shipping address is incomplete")
	}

	var out *model.Order
	var err error
	for attempt := 0; attempt < checkoutNumberTries; attempt++ {
		out, err = uc.checkoutOnce(ctx, userID, in)
		if err != nil && postgres.IsUniqueViolation(err) {
			// Almost certainly an order_number collision; try a fresh one.
			continue
		}
		break
	}
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return nil, apperr.Conflict("Could not allocate order number, retry")
		}
		return nil, err
	}

	uc.publish(ctx, "OrderCreated", out)
	if out.Status == model.OrderPaid {
		uc.publish(ctx, "OrderPaid", out)
	}
	uc.logger.Info("checkout completed",
		zap.Int64("user_id", userID),
		zap.String("order_number", out.OrderNumber),
		zap.Int64("total_cents", out.TotalCents),
	)
	return out, nil
}

func (uc *orderUseCase) checkoutOnce(ctx context.Context, userID int64, in *dto.CheckoutInput) (*model.Order, error) {
	var out *model.Order
	err := uc.tm.WithinTx(ctx, func(ctx context.Context, tx sqlx.ExtContext) error {
		c, err := uc.carts.GetOpenForUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		if c == nil {
			return apperr.BadRequest("Cart is empty")
		}
		items, err := uc.carts.ListItems(ctx, tx, c.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return apperr.BadRequest("Cart is empty")
		}

		// Closing the cart first serializes concurrent checkouts of the same
		// cart on its row: the loser's guarded update sees it already closed.
		if err := uc.carts.SetCheckedOut(ctx, tx, c.ID); err != nil {
			if errors.Is(err, cart.ErrNotOpen) {
				return apperr.Conflict("Cart was already checked out")
			}
			return err
		}

		// Lock variants in id order so concurrent checkouts over the same
		// variants cannot deadlock, then recheck stock under the locks. This
		// is what prevents two carts from overselling the same unit.
		variantIDs := make([]int64, 0, len(items))
		for _, it := range items {
			variantIDs = append(variantIDs, it.VariantID)
		}
		slices.Sort(variantIDs)

		variants := make(map[int64]*model.ProductVariant, len(items))
		products := make(map[int64]*model.Product, len(items))
		for _, id := range variantIDs {
			v, err := uc.inv.GetVariantForUpdate(ctx, tx, id)
			if err != nil {
				return err
			}
			if v == nil {
				return apperr.BadRequestf("Variant %d unavailable", id)
			}
			p, err := uc.inv.GetProduct(ctx, tx, v.ProductID)
			if err != nil {
				return err
			}
			if p == nil || !p.IsActive {
				return apperr.BadRequestf("Variant %d unavailable", id)
			}
			variants[id] = v
			products[id] = p
		}

		// Subtotal uses the cart's stored price snapshots; checkout does not
		// re-price lines.
		var subtotal int64
		for _, it := range items {
			v := variants[it.VariantID]
			if it.Qty > v.StockQty {
				return apperr.BadRequestf("Insufficient stock for variant %d", it.VariantID)
			}
			subtotal += it.LineTotalCents
		}

		now := time.Now().UTC()
		o := &model.Order{
			ShippingAddress:  in.Shipping,
			OrderNumber:      genOrderNumber(now),
			UserID:           &userID,
			Status:           model.OrderPending,
			SubtotalCents:    subtotal,
			ShippingFeeCents: in.ShippingFeeCents,
			DiscountCents:    0,
			TotalCents:       subtotal + in.ShippingFeeCents,
			Currency:         defaultOrderCurrency,
		}
		o, err = uc.orders.Create(ctx, tx, o)
		if err != nil {
			return err
		}

		note := "checkout"
		for _, it := range items {
			v := variants[it.VariantID]
			p := products[it.VariantID]

			if _, err := uc.inv.ChangeStock(ctx, tx, &invdto.ChangeStockInput{
				VariantID: v.ID,
				QtyDelta:  -it.Qty,
				Reason:    model.MovementSold,
				OrderID:   &o.ID,
				Note:      &note,
			}); err != nil {
				return err
			}

			if _, err := uc.orders.AddItem(ctx, tx, &model.OrderItem{
				OrderID:        o.ID,
				ProductID:      &v.ProductID,
				VariantID:      &v.ID,
				Name:           p.Name,
				SKU:            v.SKU,
				Color:          v.Color,
				Size:           v.Size,
				Qty:            it.Qty,
				UnitPriceCents: it.UnitPriceCents,
				LineTotalCents: it.LineTotalCents,
			}); err != nil {
				return err
			}
		}

		payStatus := model.PaymentPending
		if in.PayNow {
			payStatus = model.PaymentPaid
		}
		if _, err := uc.payments.Create(ctx, tx, &model.Payment{
			OrderID:     o.ID,
			AmountCents: o.TotalCents,
			Status:      payStatus,
			Method:      in.PaymentMethod,
		}); err != nil {
			return err
		}

		if in.PayNow {
			o.Status = model.OrderPaid
			o.PaidAt = &now
			if err := uc.orders.Save(ctx, tx, o); err != nil {
				return err
			}
		}

		out, err = uc.withItems(ctx, tx, o)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ---- Reads ----

func (uc *orderUseCase) GetForUser(ctx context.Context, userID, orderID int64) (*model.Order, error) {
	var cached model.Order
	if hit, err := uc.cache.GetJSON(ctx, order.CacheKey(orderID), &cached); err == nil && hit {
		if cached.UserID == nil || *cached.UserID != userID {
			return nil, apperr.NotFound("Order not found")
		}
		return &cached, nil
	}

	o, err := uc.orders.Get(ctx, nil, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil || o.UserID == nil || *o.UserID != userID {
		return nil, apperr.NotFound("Order not found")
	}
	if o, err = uc.withItems(ctx, nil, o); err != nil {
		return nil, err
	}

	if err := uc.cache.SetJSON(ctx, order.CacheKey(orderID), o, orderCacheTTL); err != nil {
		uc.logger.Warn("failed to cache order", zap.Int64("order_id", orderID), zap.Error(err))
	}
	return o, nil
}

func (uc *orderUseCase) ListForUser(ctx context.Context, userID int64, f *dto.OrderFilters) ([]model.Order, int, error) {
	scoped := *f
	scoped.UserID = &userID
	return uc.orders.List(ctx, &scoped)
}

func (uc *orderUseCase) Get(ctx context.Context, orderID int64) (*model.Order, error) {
	o, err := uc.orders.Get(ctx, nil, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, apperr.NotFound("Order not found")
	}
	return uc.withItems(ctx, nil, o)
}

func (uc *orderUseCase) List(ctx context.Context, f *dto.OrderFilters) ([]model.Order, int, error) {
	return uc.orders.List(ctx, f)
}

// ---- Transitions ----

// lockOrder loads the order under a row lock so the status decision and the
// write that follows cannot interleave with a concurrent transition. A non-nil
// ownerID additionally scopes the lookup to that user.
func (uc *orderUseCase) lockOrder(ctx context.Context, tx sqlx.ExtContext, orderID int64, ownerID *int64) (*model.Order, error) {
	o, err := uc.orders.GetForUpdate(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, apperr.NotFound("Order not found")
	}
	if ownerID != nil && (o.UserID == nil || *o.UserID != *ownerID) {
		return nil, apperr.NotFound("Order not found")
	}
	return o, nil
}

func (uc *orderUseCase) Pay(ctx context.Context, userID, orderID int64, method model.PaymentMethod) (*model.Order, error) {
	return uc.markPaid(ctx, orderID, &userID, method)
}

func (uc *orderUseCase) MarkPaid(ctx context.Context, orderID int64, method model.PaymentMethod) (*model.Order, error) {
	return uc.markPaid(ctx, orderID, nil, method)
}

func (uc *orderUseCase) markPaid(ctx context.Context, orderID int64, ownerID *int64, method model.PaymentMethod) (*model.Order, error) {
	if !method.Valid() {
		return nil, apperr.BadRequest("Invalid payment method")
	}

	var o *model.Order
	err := uc.tm.WithinTx(ctx, func(ctx context.Context, tx sqlx.ExtContext) error {
		var err error
		if o, err = uc.lockOrder(ctx, tx, orderID, ownerID); err != nil {
			return err
		}
		if o.Status != model.OrderPending {
			return apperr.BadRequest("Order cannot be paid")
		}
		if _, err := uc.payments.Create(ctx, tx, &model.Payment{
			OrderID:     o.ID,
			AmountCents: o.TotalCents,
			Status:      model.PaymentPaid,
			Method:      method,
		}); err != nil {
			return err
		}
		now := time.Now().UTC()
		o.Status = model.OrderPaid
		o.PaidAt = &now
		return uc.orders.Save(ctx, tx, o)
	})
	if err != nil {
		return nil, err
	}

	uc.invalidate(ctx, o.ID)
	uc.publish(ctx, "OrderPaid", o)
	return uc.withItems(ctx, nil, o)
}

func (uc *orderUseCase) Cancel(ctx context.Context, userID, orderID int64) (*model.Order, error) {
	return uc.cancel(ctx, orderID, &userID, "cancel")
}

func (uc *orderUseCase) AdminCancel(ctx context.Context, orderID int64) (*model.Order, error) {
	return uc.cancel(ctx, orderID, nil, "admin cancel")
}

func (uc *orderUseCase) cancel(ctx context.Context, orderID int64, ownerID *int64, note string) (*model.Order, error) {
	var o *model.Order
	err := uc.tm.WithinTx(ctx, func(ctx context.Context, tx sqlx.ExtContext) error {
		var err error
		if o, err = uc.lockOrder(ctx, tx, orderID, ownerID); err != nil {
			return err
		}
		if o.Status != model.OrderPending {
			return apperr.BadRequest("Order cannot be cancelled at this stage")
		}
		if err := uc.restockItems(ctx, tx, o.ID, model.MovementCancelAdjust, note); err != nil {
			return err
		}
		now := time.Now().UTC()
		o.Status = model.OrderCancelled
		o.CancelledAt = &now
		return uc.orders.Save(ctx, tx, o)
	})
	if err != nil {
		return nil, err
	}

	uc.invalidate(ctx, o.ID)
	uc.publish(ctx, "OrderCancelled", o)
	return uc.withItems(ctx, nil, o)
}

// restockItems credits stock back for every order item that still resolves to
// a live variant. Items whose catalog rows are gone are skipped.
func (uc *orderUseCase) restockItems(ctx context.Context, tx sqlx.ExtContext, orderID int64, reason model.MovementReason, note string) error {
	items, err := uc.orders.ListItems(ctx, tx, orderID)
	if err != nil {
		return err
	}
	for _, it := range items {
		if it.VariantID == nil {
			continue
		}
		v, err := uc.inv.GetVariant(ctx, tx, *it.VariantID)
		if err != nil {
			return err
		}
		if v == nil {
			continue
		}
		if _, err := uc.inv.ChangeStock(ctx, tx, &invdto.ChangeStockInput{
			VariantID: v.ID,
			QtyDelta:  it.Qty,
			Reason:    reason,
			OrderID:   &orderID,
			Note:      &note,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (uc *orderUseCase) MarkFulfilled(ctx context.Context, orderID int64) (*model.Order, error) {
	var o *model.Order
	err := uc.tm.WithinTx(ctx, func(ctx context.Context, tx sqlx.ExtContext) error {
		var err error
		if o, err = uc.lockOrder(ctx, tx, orderID, nil); err != nil {
			return err
		}
		if o.Status != model.OrderPaid {
			return apperr.BadRequest("Only paid orders can be fulfilled")
		}
		now := time.Now().UTC()
		o.Status = model.OrderFulfilled
		o.FulfilledAt = &now
		return uc.orders.Save(ctx, tx, o)
	})
	if err != nil {
		return nil, err
	}

	uc.invalidate(ctx, o.ID)
	uc.publish(ctx, "OrderFulfilled", o)
	return uc.withItems(ctx, nil, o)
}

func (uc *orderUseCase) RefundOrder(ctx context.Context, orderID int64, reason *string) (*model.Order, error) {
	note := "refund"
	if reason != nil && *reason != "" {
		note = *reason
	}

	var o *model.Order
	err := uc.tm.WithinTx(ctx, func(ctx context.Context, tx sqlx.ExtContext) error {
		var err error
		if o, err = uc.lockOrder(ctx, tx, orderID, nil); err != nil {
			return err
		}
		if o.Status != model.OrderPaid && o.Status != model.OrderFulfilled {
			return apperr.BadRequest("Only 'paid' or 'fulfilled' orders can be refunded")
		}
		if err := uc.restockItems(ctx, tx, o.ID, model.MovementReturnIn, note); err != nil {
			return err
		}
		if _, err := uc.payments.Create(ctx, tx, &model.Payment{
			OrderID:     o.ID,
			AmountCents: o.TotalCents,
			Status:      model.PaymentRefunded,
			Method:      model.PaymentMethodCOD,
		}); err != nil {
			return err
		}
		o.Status = model.OrderRefunded
		return uc.orders.Save(ctx, tx, o)
	})
	if err != nil {
		return nil, err
	}

	uc.invalidate(ctx, o.ID)
	uc.publish(ctx, "OrderRefunded", o)
	return uc.withItems(ctx, nil, o)
}

// ---- Shipments ----

func (uc *orderUseCase) CreateShipment(ctx context.Context, orderID int64, in *dto.CreateShipmentInput) (*model.Shipment, error) {
	var out *model.Shipment
	err := uc.tm.WithinTx(ctx, func(ctx context.Context, tx sqlx.ExtContext) error {
		o, err := uc.lockOrder(ctx, tx, orderID, nil)
		if err != nil {
			return err
		}
		if o.Status != model.OrderPaid && o.Status != model.OrderFulfilled {
			return apperr.BadRequest("Shipment can be created only for paid/fulfilled orders")
		}

		s, err := uc.shipments.GetByOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if s == nil {
			out, err = uc.shipments.Create(ctx, tx, &model.Shipment{
				OrderID:        orderID,
				Carrier:        in.Carrier,
				TrackingNumber: in.TrackingNumber,
				Status:         model.ShipmentPacked,
			})
			return err
		}
		// Existing shipment is updated, never duplicated.
		if in.Carrier != nil {
			s.Carrier = in.Carrier
		}
		if in.TrackingNumber != nil {
			s.TrackingNumber = in.TrackingNumber
		}
		out, err = uc.shipments.Save(ctx, tx, s)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (uc *orderUseCase) UpdateShipment(ctx context.Context, orderID int64, patch *model.ShipmentPatch) (*model.Shipment, error) {
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, apperr.BadRequest("Invalid shipment status")
	}

	var o *model.Order
	var out *model.Shipment
	var fulfilled bool
	err := uc.tm.WithinTx(ctx, func(ctx context.Context, tx sqlx.ExtContext) error {
		var err error
		if o, err = uc.lockOrder(ctx, tx, orderID, nil); err != nil {
			return err
		}

		s, err := uc.shipments.GetByOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if s == nil {
			s = &model.Shipment{OrderID: orderID, Status: model.ShipmentPending}
			patch.Apply(s)
			if err := validateTimeline(s); err != nil {
				return err
			}
			if out, err = uc.shipments.Create(ctx, tx, s); err != nil {
				return err
			}
		} else {
			patch.Apply(s)
			if err := validateTimeline(s); err != nil {
				return err
			}
			if out, err = uc.shipments.Save(ctx, tx, s); err != nil {
				return err
			}
		}

		// Delivery completes the order lifecycle for paid orders.
		if out.Status == model.ShipmentDelivered && o.Status == model.OrderPaid {
			now := time.Now().UTC()
			o.Status = model.OrderFulfilled
			o.FulfilledAt = &now
			if err := uc.orders.Save(ctx, tx, o); err != nil {
				return err
			}
			fulfilled = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if fulfilled {
		uc.invalidate(ctx, o.ID)
		uc.publish(ctx, "OrderFulfilled", o)
	}
	return out, nil
}

func validateTimeline(s *model.Shipment) error {
	if s.ShippedAt != nil && s.DeliveredAt != nil && s.DeliveredAt.Before(*s.ShippedAt) {
		return apperr.BadRequest("delivered_at cannot precede shipped_at")
	}
	return nil
}
