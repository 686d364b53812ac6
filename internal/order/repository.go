package order

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/tuanvm/fashionstore-backend/internal/model"
	"github.com/tuanvm/fashionstore-backend/internal/order/dto"
)

// Repository is role-agnostic persistence for orders and their items.
// Lookups return nil when the row is absent.
type Repository interface {
	Get(ctx context.Context, ext sqlx.ExtContext, orderID int64) (*model.Order, error)
	// GetForUpdate locks the order row for the remainder of the transaction.
	// Status transitions must decide on this read, not an earlier unlocked one.
	GetForUpdate(ctx context.Context, ext sqlx.ExtContext, orderID int64) (*model.Order, error)
	GetByNumber(ctx context.Context, ext sqlx.ExtContext, orderNumber string) (*model.Order, error)
	Create(ctx context.Context, ext sqlx.ExtContext, o *model.Order) (*model.Order, error)
	// Save writes the mutable lifecycle fields (status and timeline
	// timestamps); totals and the shipping snapshot are immutable.
	Save(ctx context.Context, ext sqlx.ExtContext, o *model.Order) error

	AddItem(ctx context.Context, ext sqlx.ExtContext, it *model.OrderItem) (*model.OrderItem, error)
	ListItems(ctx context.Context, ext sqlx.ExtContext, orderID int64) ([]model.OrderItem, error)
	GetItem(ctx context.Context, ext sqlx.ExtContext, itemID int64) (*model.OrderItem, error)

	List(ctx context.Context, f *dto.OrderFilters) ([]model.Order, int, error)
}
