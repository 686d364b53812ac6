package usecase

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/tuanvm/fashionstore-backend/internal/apperr"
	"github.com/tuanvm/fashionstore-backend/internal/model"
	"github.com/tuanvm/fashionstore-backend/internal/order"
	"github.com/tuanvm/fashionstore-backend/internal/order/dto"
	"github.com/tuanvm/fashionstore-backend/internal/testutil"
	"github.com/tuanvm/fashionstore-backend/pkg/logger"
)

type fixture struct {
	uc        order.UseCase
	orders    *testutil.OrderRepo
	carts     *testutil.CartRepo
	inv       *testutil.InventoryRepo
	payments  *testutil.PaymentRepo
	shipments *testutil.ShipmentRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		orders:    testutil.NewOrderRepo(),
		carts:     testutil.NewCartRepo(),
		inv:       testutil.NewInventoryRepo(),
		payments:  testutil.NewPaymentRepo(),
		shipments: testutil.NewShipmentRepo(),
	}
	f.inv.AddProduct(1, "Basic Tee", 15000, true)
	f.inv.AddVariant(10, 1, "TEE-BLK-M", 5, nil)
	override := int64(40000)
	f.inv.AddProduct(2, "Denim Jacket", 45000, true)
	f.inv.AddVariant(20, 2, "JKT-BLU-L", 3, &override)

	f.uc = NewOrderUseCase(f.orders, f.carts, f.inv, f.payments, f.shipments,
		testutil.StubTx{}, nil, nil, logger.NewNop())
	return f
}

// seedCart fills the user's open cart through the repository, with the price
// snapshot a real add would have taken.
func (f *fixture) seedCart(t *testing.T, userID int64, lines map[int64]int) {
	t.Helper()
	ctx := context.Background()
	c, err := f.carts.CreateForUser(ctx, nil, userID)
	require.NoError(t, err)
	for variantID, qty := range lines {
		v := f.inv.Variants[variantID]
		price := v.UnitPriceCents(f.inv.Products[v.ProductID])
		_, err := f.carts.InsertItem(ctx, nil, &model.CartItem{
			CartID:         c.ID,
			VariantID:      variantID,
			Qty:            qty,
			UnitPriceCents: price,
			LineTotalCents: int64(qty) * price,
		})
		require.NoError(t, err)
	}
}

func checkoutInput() *dto.CheckoutInput {
	return &dto.CheckoutInput{
		Shipping: model.ShippingAddress{
			FullName:      "Tran Thi B",
			MobileNum:     "0901234567",
			DetailAddress: "12 Nguyen Trai",
		},
		PaymentMethod:    model.PaymentMethodCOD,
		ShippingFeeCents: 2000,
	}
}

func TestCheckoutHappyPath(t *testing.T) {
	f := newFixture(t)
	f.seedCart(t, 7, map[int64]int{10: 2, 20: 1})

	o, err := f.uc.Checkout(context.Background(), 7, checkoutInput())
	require.NoError(t, err)

	require.Equal(t, model.OrderPending, o.Status)
	require.Regexp(t, regexp.MustCompile(`^FS-\d{8}-\d{4}$`), o.OrderNumber)
	require.Equal(t, "VND", o.Currency)
	require.Equal(t, int64(2*15000+40000), o.SubtotalCents)
	require.Equal(t, int64(2000), o.ShippingFeeCents)
	require.Equal(t, o.SubtotalCents+2000, o.TotalCents)
	require.Len(t, o.Items, 2)

	// Snapshots come from the catalog at checkout time.
	byVariant := map[int64]model.OrderItem{}
	for _, it := range o.Items {
		require.NotNil(t, it.VariantID)
		byVariant[*it.VariantID] = it
	}
	require.Equal(t, "Basic Tee", byVariant[10].Name)
	require.Equal(t, "TEE-BLK-M", byVariant[10].SKU)
	require.Equal(t, int64(40000), byVariant[20].UnitPriceCents)

	// Stock was debited and the ledger records one sold row per line.
	require.Equal(t, 3, f.inv.Variants[10].StockQty)
	require.Equal(t, 2, f.inv.Variants[20].StockQty)
	sold := f.inv.MovementsFor(10, model.MovementSold)
	require.Len(t, sold, 1)
	require.Equal(t, -2, sold[0].QtyDelta)
	require.NotNil(t, sold[0].OrderID)
	require.Equal(t, o.ID, *sold[0].OrderID)

	// Cart closed, pending payment row opened for the full total.
	for _, c := range f.carts.Carts {
		require.Equal(t, model.CartCheckedOut, c.Status)
	}
	require.Len(t, f.payments.Payments, 1)
	require.Equal(t, model.PaymentPending, f.payments.Payments[0].Status)
	require.Equal(t, o.TotalCents, f.payments.Payments[0].AmountCents)
}

func TestCheckoutPayNow(t *testing.T) {
	f := newFixture(t)
	f.seedCart(t, 7, map[int64]int{10: 1})

	in := checkoutInput()
	in.PayNow = true
	o, err := f.uc.Checkout(context.Background(), 7, in)
	require.NoError(t, err)

	require.Equal(t, model.OrderPaid, o.Status)
	require.NotNil(t, o.PaidAt)
	require.Len(t, f.payments.Payments, 1)
	require.Equal(t, model.PaymentPaid, f.payments.Payments[0].Status)
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newFixture(t)

	// No cart at all.
	_, err := f.uc.Checkout(context.Background(), 7, checkoutInput())
	require.True(t, apperr.IsBadRequest(err))
	require.Equal(t, "Cart is empty", apperr.DetailOf(err))

	// Open cart with zero lines.
	_, err = f.carts.CreateForUser(context.Background(), nil, 8)
	require.NoError(t, err)
	_, err = f.uc.Checkout(context.Background(), 8, checkoutInput())
	require.True(t, apperr.IsBadRequest(err))
}

func TestCheckoutInsufficientStock(t *testing.T) {
	f := newFixture(t)
	f.seedCart(t, 7, map[int64]int{10: 2})

	// Someone else drained the stock after the item was carted.
	f.inv.Variants[10].StockQty = 1

	_, err := f.uc.Checkout(context.Background(), 7, checkoutInput())
	require.True(t, apperr.IsBadRequest(err))

	// Nothing moved: no order, no ledger rows, stock untouched.
	require.Empty(t, f.orders.Orders)
	require.Empty(t, f.inv.Movements)
	require.Equal(t, 1, f.inv.Variants[10].StockQty)
	require.Empty(t, f.payments.Payments)
}

func TestCheckoutValidation(t *testing.T) {
	f := newFixture(t)
	f.seedCart(t, 7, map[int64]int{10: 1})

	in := checkoutInput()
	in.PaymentMethod = "bitcoin"
	_, err := f.uc.Checkout(context.Background(), 7, in)
	require.True(t, apperr.IsBadRequest(err))

	in = checkoutInput()
	in.Shipping.FullName = ""
	_, err = f.uc.Checkout(context.Background(), 7, in)
	require.True(t, apperr.IsBadRequest(err))

	in = checkoutInput()
	in.ShippingFeeCents = -1
	_, err = f.uc.Checkout(context.Background(), 7, in)
	require.True(t, apperr.IsBadRequest(err))
}

func TestPayTransitionsPendingOnly(t *testing.T) {
	f := newFixture(t)
	f.seedCart(t, 7, map[int64]int{10: 1})
	o, err := f.uc.Checkout(context.Background(), 7, checkoutInput())
	require.NoError(t, err)

	paid, err := f.uc.Pay(context.Background(), 7, o.ID, model.PaymentMethodMomo)
	require.NoError(t, err)
	require.Equal(t, model.OrderPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)
	require.Len(t, f.payments.Payments, 2) // pending from checkout + paid capture

	// Already paid.
	_, err = f.uc.Pay(context.Background(), 7, o.ID, model.PaymentMethodMomo)
	require.True(t, apperr.IsBadRequest(err))
	require.Equal(t, "Order cannot be paid", apperr.DetailOf(err))
}

func TestPayForeignOrder(t *testing.T) {
	f := newFixture(t)
	f.seedCart(t, 7, map[int64]int{10: 1})
	o, err := f.uc.Checkout(context.Background(), 7, checkoutInput())
	require.NoError(t, err)

	_, err = f.uc.Pay(context.Background(), 99, o.ID, model.PaymentMethodCOD)
	require.True(t, apperr.IsNotFound(err))
}

func TestCancelRestocks(t *testing.T) {
	f := newFixture(t)
	f.seedCart(t, 7, map[int64]int{10: 2, 20: 1})
	o, err := f.uc.Checkout(context.Background(), 7, checkoutInput())
	require.NoError(t, err)
	require.Equal(t, 3, f.inv.Variants[10].StockQty)

	cancelled, err := f.uc.Cancel(context.Background(), 7, o.ID)
	require.NoError(t, err)
	require.Equal(t, model.OrderCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)

	require.Equal(t, 5, f.inv.Variants[10].StockQty)
	require.Equal(t, 3, f.inv.Variants[20].StockQty)
	require.Len(t, f.inv.MovementsFor(10, model.MovementCancelAdjust), 1)

	// Only pending orders cancel.
	_, err = f.uc.Cancel(context.Background(), 7, o.ID)
	require.True(t, apperr.IsBadRequest(err))
}

func TestCancelSkipsVanishedVariants(t *testing.T) {
	f := newFixture(t)
	f.seedCart(t, 7, map[int64]int{10: 1, 20: 1})
	o, err := f.uc.Checkout(context.Background(), 7, checkoutInput())
	require.NoError(t, err)

	// The catalog row disappeared between checkout and cancel.
	delete(f.inv.Variants, 20)

	cancelled, err := f.uc.AdminCancel(context.Background(), o.ID)
	require.NoError(t, err)
	require.Equal(t, model.OrderCancelled, cancelled.Status)

	require.Equal(t, 5, f.inv.Variants[10].StockQty)
	require.Empty(t, f.inv.MovementsFor(20, model.MovementCancelAdjust))
}

func TestMarkFulfilledRequiresPaid(t *testing.T) {
	f := newFixture(t)
	f.seedCart(t, 7, map[int64]int{10: 1})
	o, err := f.uc.Checkout(context.Background(), 7, checkoutInput())
	require.NoError(t, err)

	_, err = f.uc.MarkFulfilled(context.Background(), o.ID)
	require.True(t, apperr.IsBadRequest(err))

	_, err = f.uc.MarkPaid(context.Background(), o.ID, model.PaymentMethodCard)
	require.NoError(t, err)

	fulfilled, err := f.uc.MarkFulfilled(context.Background(), o.ID)
	require.NoError(t, err)
	require.Equal(t, model.OrderFulfilled, fulfilled.Status)
	require.NotNil(t, fulfilled.FulfilledAt)
}

func TestRefundOrderRestocksAndRecords(t *testing.T) {
	f := newFixture(t)
	f.seedCart(t, 7, map[int64]int{10: 2})
	in := checkoutInput()
	in.PayNow = true
	o, err := f.uc.Checkout(context.Background(), 7, in)
	require.NoError(t, err)
	require.Equal(t, 3, f.inv.Variants[10].StockQty)

	reason := "damaged on arrival"
	refunded, err := f.uc.RefundOrder(context.Background(), o.ID, &reason)
	require.NoError(t, err)
	require.Equal(t, model.OrderRefunded, refunded.Status)

	require.Equal(t, 5, f.inv.Variants[10].StockQty)
	returned := f.inv.MovementsFor(10, model.MovementReturnIn)
	require.Len(t, returned, 1)
	require.Equal(t, 2, returned[0].QtyDelta)

	last := f.payments.Payments[len(f.payments.Payments)-1]
	require.Equal(t, model.PaymentRefunded, last.Status)
	require.Equal(t, o.TotalCents, last.AmountCents)

	// Refunded orders cannot be refunded twice.
	_, err = f.uc.RefundOrder(context.Background(), o.ID, nil)
	require.True(t, apperr.IsBadRequest(err))
}

func TestCreateShipmentLifecycle(t *testing.T) {
	f := newFixture(t)
	f.seedCart(t, 7, map[int64]int{10: 1})
	o, err := f.uc.Checkout(context.Background(), 7, checkoutInput())
	require.NoError(t, err)

	carrier := "GHN"
	_, err = f.uc.CreateShipment(context.Background(), o.ID, &dto.CreateShipmentInput{Carrier: &carrier})
	require.True(t, apperr.IsBadRequest(err))

	_, err = f.uc.MarkPaid(context.Background(), o.ID, model.PaymentMethodCOD)
	require.NoError(t, err)

	s, err := f.uc.CreateShipment(context.Background(), o.ID, &dto.CreateShipmentInput{Carrier: &carrier})
	require.NoError(t, err)
	require.Equal(t, model.ShipmentPacked, s.Status)
	require.Equal(t, "GHN", *s.Carrier)

	// A second create updates the existing shipment instead of duplicating.
	tracking := "GHN123456"
	s2, err := f.uc.CreateShipment(context.Background(), o.ID, &dto.CreateShipmentInput{TrackingNumber: &tracking})
	require.NoError(t, err)
	require.Equal(t, s.ID, s2.ID)
	require.Equal(t, "GHN", *s2.Carrier)
	require.Equal(t, "GHN123456", *s2.TrackingNumber)
	require.Len(t, f.shipments.ByOrder, 1)
}

func TestUpdateShipmentDeliveredFulfillsOrder(t *testing.T) {
	f := newFixture(t)
	f.seedCart(t, 7, map[int64]int{10: 1})
	in := checkoutInput()
	in.PayNow = true
	o, err := f.uc.Checkout(context.Background(), 7, in)
	require.NoError(t, err)

	shipped := time.Now().Add(-48 * time.Hour)
	deliveredAt := time.Now()
	status := model.ShipmentDelivered
	s, err := f.uc.UpdateShipment(context.Background(), o.ID, &model.ShipmentPatch{
		Status:      &status,
		ShippedAt:   &shipped,
		DeliveredAt: &deliveredAt,
	})
	require.NoError(t, err)
	require.Equal(t, model.ShipmentDelivered, s.Status)

	got, err := f.uc.Get(context.Background(), o.ID)
	require.NoError(t, err)
	require.Equal(t, model.OrderFulfilled, got.Status)
	require.NotNil(t, got.FulfilledAt)
}

func TestUpdateShipmentTimelineValidation(t *testing.T) {
	f := newFixture(t)
	f.seedCart(t, 7, map[int64]int{10: 1})
	in := checkoutInput()
	in.PayNow = true
	o, err := f.uc.Checkout(context.Background(), 7, in)
	require.NoError(t, err)

	shipped := time.Now()
	delivered := shipped.Add(-time.Hour)
	status := model.ShipmentDelivered
	_, err = f.uc.UpdateShipment(context.Background(), o.ID, &model.ShipmentPatch{
		Status:      &status,
		ShippedAt:   &shipped,
		DeliveredAt: &delivered,
	})
	require.True(t, apperr.IsBadRequest(err))

	badStatus := model.ShipmentStatus("lost_in_space")
	_, err = f.uc.UpdateShipment(context.Background(), o.ID, &model.ShipmentPatch{Status: &badStatus})
	require.True(t, apperr.IsBadRequest(err))
}

func TestGetForUserScopesOwnership(t *testing.T) {
	f := newFixture(t)
	f.seedCart(t, 7, map[int64]int{10: 1})
	o, err := f.uc.Checkout(context.Background(), 7, checkoutInput())
	require.NoError(t, err)

	got, err := f.uc.GetForUser(context.Background(), 7, o.ID)
	require.NoError(t, err)
	require.Equal(t, o.ID, got.ID)
	require.Len(t, got.Items, 1)

	_, err = f.uc.GetForUser(context.Background(), 8, o.ID)
	require.True(t, apperr.IsNotFound(err))
}

// lockedStatusOrderRepo reports a different status once the row lock is
// granted, the view a transition sees when a concurrent one committed first.
type lockedStatusOrderRepo struct {
	*testutil.OrderRepo
	status model.OrderStatus
}

func (r *lockedStatusOrderRepo) GetForUpdate(ctx context.Context, ext sqlx.ExtContext, orderID int64) (*model.Order, error) {
	o, err := r.OrderRepo.GetForUpdate(ctx, ext, orderID)
	if o != nil {
		o.Status = r.status
	}
	return o, err
}

func TestPayDecidesOnLockedRead(t *testing.T) {
	f := newFixture(t)
	f.seedCart(t, 7, map[int64]int{10: 1})
	o, err := f.uc.Checkout(context.Background(), 7, checkoutInput())
	require.NoError(t, err)

	// Another capture committed between the request and the lock grant.
	locked := &lockedStatusOrderRepo{OrderRepo: f.orders, status: model.OrderPaid}
	uc := NewOrderUseCase(locked, f.carts, f.inv, f.payments, f.shipments,
		testutil.StubTx{}, nil, nil, logger.NewNop())

	_, err = uc.Pay(context.Background(), 7, o.ID, model.PaymentMethodMomo)
	require.True(t, apperr.IsBadRequest(err))

	// No second capture: only the pending row from checkout exists.
	require.Len(t, f.payments.Payments, 1)
	require.Equal(t, model.PaymentPending, f.payments.Payments[0].Status)
}

func TestCancelDecidesOnLockedRead(t *testing.T) {
	f := newFixture(t)
	f.seedCart(t, 7, map[int64]int{10: 2})
	o, err := f.uc.Checkout(context.Background(), 7, checkoutInput())
	require.NoError(t, err)

	// Another cancel committed first; its restock must not be repeated.
	locked := &lockedStatusOrderRepo{OrderRepo: f.orders, status: model.OrderCancelled}
	uc := NewOrderUseCase(locked, f.carts, f.inv, f.payments, f.shipments,
		testutil.StubTx{}, nil, nil, logger.NewNop())

	_, err = uc.Cancel(context.Background(), 7, o.ID)
	require.True(t, apperr.IsBadRequest(err))
	require.Empty(t, f.inv.MovementsFor(10, model.MovementCancelAdjust))
	require.Equal(t, 3, f.inv.Variants[10].StockQty)
}

// staleOpenCartRepo serves the open-cart snapshot a concurrent checkout read
// before the winner closed the cart.
type staleOpenCartRepo struct {
	*testutil.CartRepo
}

func (r *staleOpenCartRepo) GetOpenForUser(_ context.Context, _ sqlx.ExtContext, userID int64) (*model.Cart, error) {
	for _, c := range r.Carts {
		if c.UserID == userID && !c.IsDeleted() {
			cp := *c
			cp.Status = model.CartOpen
			return &cp, nil
		}
	}
	return nil, nil
}

func TestCheckoutConflictsOnClosedCart(t *testing.T) {
	f := newFixture(t)
	f.seedCart(t, 7, map[int64]int{10: 1})
	_, err := f.uc.Checkout(context.Background(), 7, checkoutInput())
	require.NoError(t, err)

	stale := &staleOpenCartRepo{CartRepo: f.carts}
	uc := NewOrderUseCase(f.orders, stale, f.inv, f.payments, f.shipments,
		testutil.StubTx{}, nil, nil, logger.NewNop())

	// The loser read the cart as open; the guarded close must reject it
	// before any stock or order work happens.
	_, err = uc.Checkout(context.Background(), 7, checkoutInput())
	require.True(t, apperr.IsConflict(err))
	require.Len(t, f.orders.Orders, 1)
	require.Len(t, f.inv.MovementsFor(10, model.MovementSold), 1)
	require.Equal(t, 4, f.inv.Variants[10].StockQty)
	require.Len(t, f.payments.Payments, 1)
}

func TestGenOrderNumberFormat(t *testing.T) {
	re := regexp.MustCompile(`^FS-\d{8}-\d{4}$`)
	at := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 100; i++ {
		n := genOrderNumber(at)
		require.Regexp(t, re, n)
		require.Equal(t, "FS-20260115-", n[:12])
	}
}
