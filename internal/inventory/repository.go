package inventory

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/tuanvm/fashionstore-backend/internal/inventory/dto"
	"github.com/tuanvm/fashionstore-backend/internal/model"
)

// Repository is the core's window into variant stock and the movement ledger.
// Methods taking ext run against the given transaction when non-nil, else
// against the pool. Lookups return nil (no error) when the row is absent.
type Repository interface {
	GetVariant(ctx context.Context, ext sqlx.ExtContext, variantID int64) (*model.ProductVariant, error)
	// GetVariantForUpdate row-locks the variant for the duration of the
	// enclosing transaction. Checkout uses this for its stock recheck.
	GetVariantForUpdate(ctx context.Context, ext sqlx.ExtContext, variantID int64) (*model.ProductVariant, error)
	GetProduct(ctx context.Context, ext sqlx.ExtContext, productID int64) (*model.Product, error)

	// ChangeStock atomically applies qty_delta to the variant and appends the
	// ledger row. The caller is responsible for quantity sufficiency; the
	// ledger itself does not block negative stock.
	ChangeStock(ctx context.Context, ext sqlx.ExtContext, in *dto.ChangeStockInput) (*model.InventoryMovement, error)

	ListMovements(ctx context.Context, f *dto.MovementFilters) ([]model.InventoryMovement, int, error)
}
