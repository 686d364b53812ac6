package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindClassification(t *testing.T) {
	require.True(t, IsBadRequest(BadRequest("nope")))
	require.True(t, IsNotFound(NotFound("gone")))
	require.True(t, IsConflict(Conflict("dup")))
	require.True(t, IsUnauthorized(Unauthorized("who")))
	require.True(t, IsForbidden(Forbidden("no")))

	require.False(t, IsNotFound(BadRequest("nope")))
	require.Equal(t, Kind(0), KindOf(errors.New("plain")))
}

func TestDetailOf(t *testing.T) {
	require.Equal(t, "Cart is empty", DetailOf(BadRequest("Cart is empty")))
	require.Equal(t, "boom", DetailOf(errors.New("boom")))
}

func TestWrapPreservesChain(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(KindConflict, "duplicate order number", cause)

	require.True(t, IsConflict(err))
	require.ErrorIs(t, err, cause)
	require.Equal(t, "duplicate order number", DetailOf(err))
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("checkout: %w", NotFound("Order not found"))
	require.True(t, IsNotFound(err))
	require.Equal(t, "Order not found", DetailOf(err))
}
