package usecase

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/tuanvm/fashionstore-backend/internal/apperr"
	"github.com/tuanvm/fashionstore-backend/internal/model"
	"github.com/tuanvm/fashionstore-backend/internal/returns"
	"github.com/tuanvm/fashionstore-backend/internal/returns/dto"
	"github.com/tuanvm/fashionstore-backend/internal/testutil"
	"github.com/tuanvm/fashionstore-backend/pkg/logger"
)

type fixture struct {
	uc       returns.UseCase
	repo     *testutil.ReturnsRepo
	orders   *testutil.OrderRepo
	inv      *testutil.InventoryRepo
	payments *testutil.PaymentRepo

	orderID   int64
	itemTee   int64 // order item for variant 10, qty 2
	itemJkt   int64 // order item for variant 20, qty 1
	userID    int64
	prorated  bool
	rebuildUC func()
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		orders:   testutil.NewOrderRepo(),
		inv:      testutil.NewInventoryRepo(),
		payments: testutil.NewPaymentRepo(),
		userID:   7,
	}
	f.repo = testutil.NewReturnsRepo(f.orders)
	f.inv.AddProduct(1, "Basic Tee", 15000, true)
	f.inv.AddVariant(10, 1, "TEE-BLK-M", 3, nil)
	f.inv.AddProduct(2, "Denim Jacket", 40000, true)
	f.inv.AddVariant(20, 2, "JKT-BLU-L", 2, nil)

	ctx := context.Background()
	userID := f.userID
	o, err := f.orders.Create(ctx, nil, &model.Order{
		OrderNumber:   "FS-20260115-1234",
		UserID:        &userID,
		Status:        model.OrderFulfilled,
		SubtotalCents: 70000,
		TotalCents:    72000,
		Currency:      "VND",
	})
	require.NoError(t, err)
	f.orderID = o.ID

	v10, v20 := int64(10), int64(20)
	tee, err := f.orders.AddItem(ctx, nil, &model.OrderItem{
		OrderID: o.ID, VariantID: &v10, Name: "Basic Tee", SKU: "TEE-BLK-M",
		Qty: 2, UnitPriceCents: 15000, LineTotalCents: 30000,
	})
	require.NoError(t, err)
	f.itemTee = tee.ID
	jkt, err := f.orders.AddItem(ctx, nil, &model.OrderItem{
		OrderID: o.ID, VariantID: &v20, Name: "Denim Jacket", SKU: "JKT-BLU-L",
		Qty: 1, UnitPriceCents: 40000, LineTotalCents: 40000,
	})
	require.NoError(t, err)
	f.itemJkt = jkt.ID

	f.rebuildUC = func() {
		f.uc = NewReturnsUseCase(f.repo, f.orders, f.inv, f.payments,
			testutil.StubTx{}, nil, nil, logger.NewNop(), f.prorated)
	}
	f.rebuildUC()
	return f
}

func (f *fixture) createReturn(t *testing.T, lines ...dto.ReturnLineInput) *model.ReturnRequest {
	t.Helper()
	r, err := f.uc.Create(context.Background(), f.userID, &dto.CreateReturnInput{
		OrderID: f.orderID,
		Items:   lines,
	})
	require.NoError(t, err)
	return r
}

func TestCreateReturn(t *testing.T) {
	f := newFixture(t)

	r := f.createReturn(t,
		dto.ReturnLineInput{OrderItemID: f.itemTee, Qty: 1},
		dto.ReturnLineInput{OrderItemID: f.itemJkt, Qty: 1},
	)
	require.Equal(t, model.ReturnRequested, r.Status)
	require.Len(t, r.Items, 2)
}

func TestCreateReturnValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// No lines.
	_, err := f.uc.Create(ctx, f.userID, &dto.CreateReturnInput{OrderID: f.orderID})
	require.True(t, apperr.IsBadRequest(err))

	// Qty above what was purchased.
	_, err = f.uc.Create(ctx, f.userID, &dto.CreateReturnInput{
		OrderID: f.orderID,
		Items:   []dto.ReturnLineInput{{OrderItemID: f.itemTee, Qty: 3}},
	})
	require.True(t, apperr.IsBadRequest(err))

	// Zero qty.
	_, err = f.uc.Create(ctx, f.userID, &dto.CreateReturnInput{
		OrderID: f.orderID,
		Items:   []dto.ReturnLineInput{{OrderItemID: f.itemTee, Qty: 0}},
	})
	require.True(t, apperr.IsBadRequest(err))

	// Line referencing an item from another order.
	_, err = f.uc.Create(ctx, f.userID, &dto.CreateReturnInput{
		OrderID: f.orderID,
		Items:   []dto.ReturnLineInput{{OrderItemID: 9999, Qty: 1}},
	})
	require.True(t, apperr.IsBadRequest(err))

	// Not the order's owner.
	_, err = f.uc.Create(ctx, 42, &dto.CreateReturnInput{
		OrderID: f.orderID,
		Items:   []dto.ReturnLineInput{{OrderItemID: f.itemTee, Qty: 1}},
	})
	require.True(t, apperr.IsNotFound(err))
}

func TestCreateReturnRequiresReturnableOrder(t *testing.T) {
	f := newFixture(t)
	f.orders.Orders[f.orderID].Status = model.OrderPending

	_, err := f.uc.Create(context.Background(), f.userID, &dto.CreateReturnInput{
		OrderID: f.orderID,
		Items:   []dto.ReturnLineInput{{OrderItemID: f.itemTee, Qty: 1}},
	})
	require.True(t, apperr.IsBadRequest(err))
}

func TestQtyCapAcrossReturns(t *testing.T) {
	f := newFixture(t)

	// First return claims 1 of 2 tees; a second may claim the other, not two.
	f.createReturn(t, dto.ReturnLineInput{OrderItemID: f.itemTee, Qty: 1})

	_, err := f.uc.Create(context.Background(), f.userID, &dto.CreateReturnInput{
		OrderID: f.orderID,
		Items:   []dto.ReturnLineInput{{OrderItemID: f.itemTee, Qty: 2}},
	})
	require.True(t, apperr.IsBadRequest(err))

	_, err = f.uc.Create(context.Background(), f.userID, &dto.CreateReturnInput{
		OrderID: f.orderID,
		Items:   []dto.ReturnLineInput{{OrderItemID: f.itemTee, Qty: 1}},
	})
	require.NoError(t, err)
}

func TestAddItemTopsUpExistingLine(t *testing.T) {
	f := newFixture(t)
	r := f.createReturn(t, dto.ReturnLineInput{OrderItemID: f.itemTee, Qty: 1})

	out, err := f.uc.AddItem(context.Background(), f.userID, r.ID, &dto.ReturnLineInput{OrderItemID: f.itemTee, Qty: 1})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	require.Equal(t, 2, out.Items[0].Qty)

	// The cap still holds on top-ups.
	_, err = f.uc.AddItem(context.Background(), f.userID, r.ID, &dto.ReturnLineInput{OrderItemID: f.itemTee, Qty: 1})
	require.True(t, apperr.IsBadRequest(err))
}

func TestRemoveItemIdempotent(t *testing.T) {
	f := newFixture(t)
	r := f.createReturn(t,
		dto.ReturnLineInput{OrderItemID: f.itemTee, Qty: 1},
		dto.ReturnLineInput{OrderItemID: f.itemJkt, Qty: 1},
	)

	out, err := f.uc.RemoveItem(context.Background(), f.userID, r.ID, r.Items[0].ID)
	require.NoError(t, err)
	require.Len(t, out.Items, 1)

	// Removing the same line again is a no-op.
	out, err = f.uc.RemoveItem(context.Background(), f.userID, r.ID, r.Items[0].ID)
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
}

func TestModifyLockedAfterDecision(t *testing.T) {
	f := newFixture(t)
	r := f.createReturn(t, dto.ReturnLineInput{OrderItemID: f.itemTee, Qty: 1})

	_, err := f.uc.Decide(context.Background(), r.ID, true, nil)
	require.NoError(t, err)

	_, err = f.uc.AddItem(context.Background(), f.userID, r.ID, &dto.ReturnLineInput{OrderItemID: f.itemJkt, Qty: 1})
	require.True(t, apperr.IsBadRequest(err))
	_, err = f.uc.RemoveItem(context.Background(), f.userID, r.ID, r.Items[0].ID)
	require.True(t, apperr.IsBadRequest(err))
}

func TestDecideTransitions(t *testing.T) {
	f := newFixture(t)
	r := f.createReturn(t, dto.ReturnLineInput{OrderItemID: f.itemTee, Qty: 1})

	approved, err := f.uc.Decide(context.Background(), r.ID, true, nil)
	require.NoError(t, err)
	require.Equal(t, model.ReturnApproved, approved.Status)

	// Deciding twice is an illegal transition.
	_, err = f.uc.Decide(context.Background(), r.ID, false, nil)
	require.True(t, apperr.IsBadRequest(err))
}

func TestMarkReceivedRestocks(t *testing.T) {
	f := newFixture(t)
	r := f.createReturn(t,
		dto.ReturnLineInput{OrderItemID: f.itemTee, Qty: 2},
		dto.ReturnLineInput{OrderItemID: f.itemJkt, Qty: 1},
	)
	_, err := f.uc.Decide(context.Background(), r.ID, true, nil)
	require.NoError(t, err)

	res, err := f.uc.MarkReceived(context.Background(), r.ID, nil)
	require.NoError(t, err)
	require.Equal(t, model.ReturnReceived, res.Return.Status)
	require.Zero(t, res.SkippedItems)

	require.Equal(t, 5, f.inv.Variants[10].StockQty)
	require.Equal(t, 3, f.inv.Variants[20].StockQty)
	require.Len(t, f.inv.MovementsFor(10, model.MovementReturnIn), 1)
}

func TestMarkReceivedCountsSkippedLines(t *testing.T) {
	f := newFixture(t)
	r := f.createReturn(t,
		dto.ReturnLineInput{OrderItemID: f.itemTee, Qty: 1},
		dto.ReturnLineInput{OrderItemID: f.itemJkt, Qty: 1},
	)
	_, err := f.uc.Decide(context.Background(), r.ID, true, nil)
	require.NoError(t, err)

	// The jacket variant is gone from the catalog.
	delete(f.inv.Variants, 20)

	res, err := f.uc.MarkReceived(context.Background(), r.ID, nil)
	require.NoError(t, err)
	require.Equal(t, 1, res.SkippedItems)
	require.Equal(t, 4, f.inv.Variants[10].StockQty)
}

func TestMarkReceivedRequiresApproved(t *testing.T) {
	f := newFixture(t)
	r := f.createReturn(t, dto.ReturnLineInput{OrderItemID: f.itemTee, Qty: 1})

	_, err := f.uc.MarkReceived(context.Background(), r.ID, nil)
	require.True(t, apperr.IsBadRequest(err))
}

func TestRefundFullTotal(t *testing.T) {
	f := newFixture(t)
	r := f.createReturn(t, dto.ReturnLineInput{OrderItemID: f.itemTee, Qty: 1})
	_, err := f.uc.Decide(context.Background(), r.ID, true, nil)
	require.NoError(t, err)

	out, err := f.uc.Refund(context.Background(), r.ID, nil)
	require.NoError(t, err)
	require.Equal(t, model.ReturnRefunded, out.Status)

	// Default policy refunds the whole order total, not just the lines.
	require.Len(t, f.payments.Payments, 1)
	require.Equal(t, model.PaymentRefunded, f.payments.Payments[0].Status)
	require.Equal(t, int64(72000), f.payments.Payments[0].AmountCents)

	require.Equal(t, model.OrderRefunded, f.orders.Orders[f.orderID].Status)
}

func TestRefundProrated(t *testing.T) {
	f := newFixture(t)
	f.prorated = true
	f.rebuildUC()

	r := f.createReturn(t, dto.ReturnLineInput{OrderItemID: f.itemTee, Qty: 1})
	_, err := f.uc.Decide(context.Background(), r.ID, true, nil)
	require.NoError(t, err)

	_, err = f.uc.Refund(context.Background(), r.ID, nil)
	require.NoError(t, err)
	require.Equal(t, int64(15000), f.payments.Payments[0].AmountCents)
}

func TestFullFlowThroughClose(t *testing.T) {
	f := newFixture(t)
	r := f.createReturn(t, dto.ReturnLineInput{OrderItemID: f.itemJkt, Qty: 1})

	_, err := f.uc.Decide(context.Background(), r.ID, true, nil)
	require.NoError(t, err)
	_, err = f.uc.MarkReceived(context.Background(), r.ID, nil)
	require.NoError(t, err)
	_, err = f.uc.Refund(context.Background(), r.ID, nil)
	require.NoError(t, err)

	closed, err := f.uc.Close(context.Background(), r.ID)
	require.NoError(t, err)
	require.Equal(t, model.ReturnClosed, closed.Status)

	// Closed is terminal.
	_, err = f.uc.Close(context.Background(), r.ID)
	require.True(t, apperr.IsBadRequest(err))
}

func TestRejectedCanOnlyClose(t *testing.T) {
	f := newFixture(t)
	r := f.createReturn(t, dto.ReturnLineInput{OrderItemID: f.itemTee, Qty: 1})

	_, err := f.uc.Decide(context.Background(), r.ID, false, nil)
	require.NoError(t, err)

	_, err = f.uc.MarkReceived(context.Background(), r.ID, nil)
	require.True(t, apperr.IsBadRequest(err))
	_, err = f.uc.Refund(context.Background(), r.ID, nil)
	require.True(t, apperr.IsBadRequest(err))

	closed, err := f.uc.Close(context.Background(), r.ID)
	require.NoError(t, err)
	require.Equal(t, model.ReturnClosed, closed.Status)
}

// lockedStatusReturnsRepo reports a different status once the row lock is
// granted, the view a transition sees when a concurrent one committed first.
type lockedStatusReturnsRepo struct {
	*testutil.ReturnsRepo
	status model.ReturnStatus
}

func (r *lockedStatusReturnsRepo) GetForUpdate(ctx context.Context, ext sqlx.ExtContext, returnID int64) (*model.ReturnRequest, error) {
	ret, err := r.ReturnsRepo.GetForUpdate(ctx, ext, returnID)
	if ret != nil {
		ret.Status = r.status
	}
	return ret, err
}

func TestTransitionsDecideOnLockedRead(t *testing.T) {
	f := newFixture(t)
	r := f.createReturn(t, dto.ReturnLineInput{OrderItemID: f.itemTee, Qty: 1})

	// A concurrent admin approved the return between the request and the
	// lock grant.
	locked := &lockedStatusReturnsRepo{ReturnsRepo: f.repo, status: model.ReturnApproved}
	uc := NewReturnsUseCase(locked, f.orders, f.inv, f.payments,
		testutil.StubTx{}, nil, nil, logger.NewNop(), false)

	_, err := uc.Decide(context.Background(), r.ID, true, nil)
	require.True(t, apperr.IsBadRequest(err))

	// And one already received: a second receive must not restock again.
	locked.status = model.ReturnReceived
	_, err = uc.MarkReceived(context.Background(), r.ID, nil)
	require.True(t, apperr.IsBadRequest(err))
	require.Empty(t, f.inv.MovementsFor(10, model.MovementReturnIn))

	// And one already refunded: no second refund row.
	locked.status = model.ReturnRefunded
	_, err = uc.Refund(context.Background(), r.ID, nil)
	require.True(t, apperr.IsBadRequest(err))
	require.Empty(t, f.payments.Payments)
}

func TestDecideRecordsReason(t *testing.T) {
	f := newFixture(t)
	r := f.createReturn(t, dto.ReturnLineInput{OrderItemID: f.itemTee, Qty: 1})

	reason := "photos show wear"
	rejected, err := f.uc.Decide(context.Background(), r.ID, false, &reason)
	require.NoError(t, err)
	require.Equal(t, model.ReturnRejected, rejected.Status)
	require.NotNil(t, f.repo.Returns[r.ID].Reason)
	require.Equal(t, reason, *f.repo.Returns[r.ID].Reason)
}

func TestMarkReceivedCustomNote(t *testing.T) {
	f := newFixture(t)
	r := f.createReturn(t, dto.ReturnLineInput{OrderItemID: f.itemTee, Qty: 1})
	_, err := f.uc.Decide(context.Background(), r.ID, true, nil)
	require.NoError(t, err)

	note := "box damaged, contents fine"
	_, err = f.uc.MarkReceived(context.Background(), r.ID, &note)
	require.NoError(t, err)

	moves := f.inv.MovementsFor(10, model.MovementReturnIn)
	require.Len(t, moves, 1)
	require.NotNil(t, moves[0].Note)
	require.Equal(t, note, *moves[0].Note)
}

func TestRefundMethodOverride(t *testing.T) {
	f := newFixture(t)
	r := f.createReturn(t, dto.ReturnLineInput{OrderItemID: f.itemTee, Qty: 1})
	_, err := f.uc.Decide(context.Background(), r.ID, true, nil)
	require.NoError(t, err)

	bad := model.PaymentMethod("barter")
	_, err = f.uc.Refund(context.Background(), r.ID, &bad)
	require.True(t, apperr.IsBadRequest(err))

	method := model.PaymentMethodMomo
	_, err = f.uc.Refund(context.Background(), r.ID, &method)
	require.NoError(t, err)
	require.Len(t, f.payments.Payments, 1)
	require.Equal(t, model.PaymentMethodMomo, f.payments.Payments[0].Method)
}

func TestListForUserScopesOwnership(t *testing.T) {
	f := newFixture(t)
	f.createReturn(t, dto.ReturnLineInput{OrderItemID: f.itemTee, Qty: 1})

	mine, total, err := f.uc.ListForUser(context.Background(), f.userID, &dto.ReturnFilters{})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, mine, 1)

	others, total, err := f.uc.ListForUser(context.Background(), 42, &dto.ReturnFilters{})
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, others)
}

func TestGetForUserOwnership(t *testing.T) {
	f := newFixture(t)
	r := f.createReturn(t, dto.ReturnLineInput{OrderItemID: f.itemTee, Qty: 1})

	got, err := f.uc.GetForUser(context.Background(), f.userID, r.ID)
	require.NoError(t, err)
	require.Equal(t, r.ID, got.ID)

	_, err = f.uc.GetForUser(context.Background(), 42, r.ID)
	require.True(t, apperr.IsNotFound(err))
}
