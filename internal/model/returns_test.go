package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReturnStatusTransitions(t *testing.T) {
	cases := []struct {
		from    ReturnStatus
		to      ReturnStatus
		allowed bool
	}{
		{ReturnRequested, ReturnApproved, true},
		{ReturnRequested, ReturnRejected, true},
		{ReturnRequested, ReturnReceived, false},
		{ReturnRequested, ReturnRefunded, false},
		{ReturnApproved, ReturnReceived, true},
		{ReturnApproved, ReturnRefunded, true},
		{ReturnApproved, ReturnRejected, false},
		{ReturnReceived, ReturnRefunded, true},
		{ReturnReceived, ReturnClosed, false},
		{ReturnRefunded, ReturnClosed, true},
		{ReturnRejected, ReturnClosed, true},
		{ReturnClosed, ReturnRequested, false},
		{ReturnClosed, ReturnClosed, false},
	}

	for _, tc := range cases {
		require.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestMovementReasonValid(t *testing.T) {
	for _, r := range []MovementReason{
		MovementStockIn, MovementReserve, MovementUnreserve, MovementSold,
		MovementReturnIn, MovementCancelAdjust, MovementManualAdjust,
	} {
		require.True(t, r.Valid(), string(r))
	}
	require.False(t, MovementReason("teleported").Valid())
	require.False(t, MovementReason("").Valid())
}

func TestVariantUnitPrice(t *testing.T) {
	p := &Product{BasePriceCents: 15000}

	v := &ProductVariant{}
	require.Equal(t, int64(15000), v.UnitPriceCents(p))

	override := int64(12500)
	v.PriceCents = &override
	require.Equal(t, int64(12500), v.UnitPriceCents(p))
}
