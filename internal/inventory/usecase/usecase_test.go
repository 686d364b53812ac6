package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tuanvm/fashionstore-backend/internal/apperr"
	"github.com/tuanvm/fashionstore-backend/internal/inventory/dto"
	"github.com/tuanvm/fashionstore-backend/internal/model"
	"github.com/tuanvm/fashionstore-backend/internal/testutil"
	"github.com/tuanvm/fashionstore-backend/pkg/logger"
)

func TestManualAdjust(t *testing.T) {
	inv := testutil.NewInventoryRepo()
	inv.AddProduct(1, "Basic Tee", 15000, true)
	inv.AddVariant(10, 1, "TEE-BLK-M", 5, nil)

	uc := NewInventoryUseCase(inv, testutil.StubTx{}, logger.NewNop())

	note := "stocktake correction"
	mv, err := uc.ManualAdjust(context.Background(), &dto.ManualAdjustInput{
		VariantID: 10,
		QtyDelta:  -2,
		Note:      &note,
	})
	require.NoError(t, err)
	require.Equal(t, model.MovementManualAdjust, mv.Reason)
	require.Equal(t, -2, mv.QtyDelta)
	require.Equal(t, 3, inv.Variants[10].StockQty)
}

func TestManualAdjustRejectsZeroDelta(t *testing.T) {
	inv := testutil.NewInventoryRepo()
	uc := NewInventoryUseCase(inv, testutil.StubTx{}, logger.NewNop())

	_, err := uc.ManualAdjust(context.Background(), &dto.ManualAdjustInput{VariantID: 10, QtyDelta: 0})
	require.True(t, apperr.IsBadRequest(err))
}

func TestManualAdjustUnknownVariant(t *testing.T) {
	inv := testutil.NewInventoryRepo()
	uc := NewInventoryUseCase(inv, testutil.StubTx{}, logger.NewNop())

	_, err := uc.ManualAdjust(context.Background(), &dto.ManualAdjustInput{VariantID: 99, QtyDelta: 1})
	require.True(t, apperr.IsNotFound(err))
}

// The running sum of ledger deltas must always equal on-hand stock.
func TestLedgerSumMatchesStock(t *testing.T) {
	inv := testutil.NewInventoryRepo()
	inv.AddProduct(1, "Basic Tee", 15000, true)
	inv.AddVariant(10, 1, "TEE-BLK-M", 10, nil)
	uc := NewInventoryUseCase(inv, testutil.StubTx{}, logger.NewNop())

	for _, delta := range []int{-3, 5, -1, -4, 2} {
		_, err := uc.ManualAdjust(context.Background(), &dto.ManualAdjustInput{VariantID: 10, QtyDelta: delta})
		require.NoError(t, err)
	}

	sum := 0
	for _, m := range inv.Movements {
		sum += m.QtyDelta
	}
	require.Equal(t, 10+sum, inv.Variants[10].StockQty)
}
