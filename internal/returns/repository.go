package returns

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/tuanvm/fashionstore-backend/internal/model"
	"github.com/tuanvm/fashionstore-backend/internal/returns/dto"
)

// Repository persists return requests and their lines. Lookups return nil
// when the row is absent.
type Repository interface {
	Get(ctx context.Context, ext sqlx.ExtContext, returnID int64) (*model.ReturnRequest, error)
	// GetForUpdate locks the return row for the remainder of the transaction.
	// Status transitions must decide on this read, not an earlier unlocked one.
	GetForUpdate(ctx context.Context, ext sqlx.ExtContext, returnID int64) (*model.ReturnRequest, error)
	Create(ctx context.Context, ext sqlx.ExtContext, r *model.ReturnRequest) (*model.ReturnRequest, error)
	Save(ctx context.Context, ext sqlx.ExtContext, r *model.ReturnRequest) error

	ListItems(ctx context.Context, ext sqlx.ExtContext, returnID int64) ([]model.ReturnItem, error)
	GetItem(ctx context.Context, ext sqlx.ExtContext, itemID int64) (*model.ReturnItem, error)
	AddItem(ctx context.Context, ext sqlx.ExtContext, it *model.ReturnItem) (*model.ReturnItem, error)
	SaveItem(ctx context.Context, ext sqlx.ExtContext, it *model.ReturnItem) (*model.ReturnItem, error)
	DeleteItem(ctx context.Context, ext sqlx.ExtContext, itemID int64) error

	// ReturnedQtyForOrderItem sums already-requested quantities for an order
	// item across every return that is not rejected or closed.
	ReturnedQtyForOrderItem(ctx context.Context, ext sqlx.ExtContext, orderItemID int64, excludeReturnID int64) (int, error)

	List(ctx context.Context, f *dto.ReturnFilters) ([]model.ReturnRequest, int, error)
}
