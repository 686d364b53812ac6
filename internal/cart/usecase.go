package cart

import (
	"context"

	"github.com/tuanvm/fashionstore-backend/internal/model"
)

type UseCase interface {
	// GetCart returns the user's open cart with items and a computed
	// subtotal, creating the cart lazily on first access.
	GetCart(ctx context.Context, userID int64) (*model.Cart, error)
	AddItem(ctx context.Context, userID, variantID int64, qty int) (*model.CartItem, error)
	UpdateItem(ctx context.Context, userID, itemID int64, qty int) (*model.CartItem, error)
	// RemoveItem is an idempotent no-op when the item is absent or not owned.
	RemoveItem(ctx context.Context, userID, itemID int64) error
}
