package inventory

import (
	"context"

	"github.com/tuanvm/fashionstore-backend/internal/inventory/dto"
	"github.com/tuanvm/fashionstore-backend/internal/model"
)

type UseCase interface {
	// ManualAdjust records an admin stock correction as a manual_adjust
	// movement in its own transaction.
	ManualAdjust(ctx context.Context, in *dto.ManualAdjustInput) (*model.InventoryMovement, error)
	ListMovements(ctx context.Context, f *dto.MovementFilters) ([]model.InventoryMovement, int, error)
}
