package cart

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/tuanvm/fashionstore-backend/internal/model"
)

// ErrNotOpen reports that a cart left the open state before SetCheckedOut
// could close it, typically because a concurrent checkout won the race.
var ErrNotOpen = errors.New("cart is not open")

// Repository persists carts and their items. Lookups return nil when the row
// is absent. The store enforces one open, non-deleted cart per user and one
// item per (cart, variant); CreateForUser surfaces the unique violation so the
// caller can resolve the get-or-create race.
type Repository interface {
	GetOpenForUser(ctx context.Context, ext sqlx.ExtContext, userID int64) (*model.Cart, error)
	CreateForUser(ctx context.Context, ext sqlx.ExtContext, userID int64) (*model.Cart, error)
	// SetCheckedOut closes the cart only while it is still open and returns
	// ErrNotOpen otherwise, so two checkouts cannot both consume one cart.
	SetCheckedOut(ctx context.Context, ext sqlx.ExtContext, cartID int64) error

	ListItems(ctx context.Context, ext sqlx.ExtContext, cartID int64) ([]model.CartItem, error)
	GetItem(ctx context.Context, ext sqlx.ExtContext, itemID int64) (*model.CartItem, error)
	InsertItem(ctx context.Context, ext sqlx.ExtContext, item *model.CartItem) (*model.CartItem, error)
	SaveItem(ctx context.Context, ext sqlx.ExtContext, item *model.CartItem) (*model.CartItem, error)
	DeleteItem(ctx context.Context, ext sqlx.ExtContext, itemID int64) error
}
