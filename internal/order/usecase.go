package order

import (
	"context"

	"github.com/tuanvm/fashionstore-backend/internal/model"
	"github.com/tuanvm/fashionstore-backend/internal/order/dto"
)

// UseCase owns the order state machine: pending -> paid -> fulfilled, with
// pending -> cancelled and {paid, fulfilled} -> refunded. Every transition
// runs in a single transaction.
type UseCase interface {
	// Checkout converts the user's open cart into an order: stock is
	// re-validated under row locks, debited via 'sold' movements, the cart is
	// closed and a payment row created. All-or-nothing.
	Checkout(ctx context.Context, userID int64, in *dto.CheckoutInput) (*model.Order, error)

	GetForUser(ctx context.Context, userID, orderID int64) (*model.Order, error)
	ListForUser(ctx context.Context, userID int64, f *dto.OrderFilters) ([]model.Order, int, error)

	Pay(ctx context.Context, userID, orderID int64, method model.PaymentMethod) (*model.Order, error)
	Cancel(ctx context.Context, userID, orderID int64) (*model.Order, error)

	// Admin operations.
	Get(ctx context.Context, orderID int64) (*model.Order, error)
	List(ctx context.Context, f *dto.OrderFilters) ([]model.Order, int, error)
	MarkPaid(ctx context.Context, orderID int64, method model.PaymentMethod) (*model.Order, error)
	AdminCancel(ctx context.Context, orderID int64) (*model.Order, error)
	MarkFulfilled(ctx context.Context, orderID int64) (*model.Order, error)
	RefundOrder(ctx context.Context, orderID int64, reason *string) (*model.Order, error)

	CreateShipment(ctx context.Context, orderID int64, in *dto.CreateShipmentInput) (*model.Shipment, error)
	UpdateShipment(ctx context.Context, orderID int64, patch *model.ShipmentPatch) (*model.Shipment, error)
}
