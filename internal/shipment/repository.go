package shipment

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/tuanvm/fashionstore-backend/internal/model"
)

// Repository persists shipments; the unique order_id constraint guarantees at
// most one per order. Lifecycle rules (who may create/update, the
// delivered -> fulfilled coupling) live in the order usecase.
type Repository interface {
	GetByOrder(ctx context.Context, ext sqlx.ExtContext, orderID int64) (*model.Shipment, error)
	Create(ctx context.Context, ext sqlx.ExtContext, s *model.Shipment) (*model.Shipment, error)
	Save(ctx context.Context, ext sqlx.ExtContext, s *model.Shipment) (*model.Shipment, error)
}
