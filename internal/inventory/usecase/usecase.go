package usecase

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/tuanvm/fashionstore-backend/internal/apperr"
	"github.com/tuanvm/fashionstore-backend/internal/inventory"
	"github.com/tuanvm/fashionstore-backend/internal/inventory/dto"
	"github.com/tuanvm/fashionstore-backend/internal/model"
	"github.com/tuanvm/fashionstore-backend/pkg/logger"
	"github.com/tuanvm/fashionstore-backend/pkg/postgres"
	"go.uber.org/zap"
)

type inventoryUseCase struct {
	repo   inventory.Repository
	tm     postgres.Transactor
	logger logger.ZapLogger
}

func NewInventoryUseCase(repo inventory.Repository, tm postgres.Transactor, log logger.ZapLogger) inventory.UseCase {
	return &inventoryUseCase{
		repo:   repo,
		tm:     tm,
		logger: log,
	}
}

func (uc *inventoryUseCase) ManualAdjust(ctx context.Context, in *dto.ManualAdjustInput) (*model.InventoryMovement, error) {
	if in.QtyDelta == 0 {
		return nil, apperr.BadRequest("qty_delta cannot be 0")
	}

	var mov *model.InventoryMovement
	err := uc.tm.WithinTx(ctx, func(ctx context.Context, tx sqlx.ExtContext) error {
		v, err := uc.repo.GetVariant(ctx, tx, in.VariantID)
		if err != nil {
			return err
		}
		if v == nil {
			return apperr.NotFound("Variant not found")
		}

		mov, err = uc.repo.ChangeStock(ctx, tx, &dto.ChangeStockInput{
			VariantID: in.VariantID,
			QtyDelta:  in.QtyDelta,
			Reason:    model.MovementManualAdjust,
			Note:      in.Note,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("manual stock adjustment",
		zap.Int64("variant_id", in.VariantID),
		zap.Int("qty_delta", in.QtyDelta),
	)
	return mov, nil
}

func (uc *inventoryUseCase) ListMovements(ctx context.Context, f *dto.MovementFilters) ([]model.InventoryMovement, int, error) {
	return uc.repo.ListMovements(ctx, f)
}
