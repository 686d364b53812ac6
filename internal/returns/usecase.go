package returns

import (
	"context"

	"github.com/tuanvm/fashionstore-backend/internal/model"
	"github.com/tuanvm/fashionstore-backend/internal/returns/dto"
)

// UseCase drives a return through requested -> approved/rejected ->
// received -> refunded -> closed. Line edits are allowed only while the
// return is still in 'requested'.
type UseCase interface {
	Create(ctx context.Context, userID int64, in *dto.CreateReturnInput) (*model.ReturnRequest, error)
	GetForUser(ctx context.Context, userID, returnID int64) (*model.ReturnRequest, error)
	ListForUser(ctx context.Context, userID int64, f *dto.ReturnFilters) ([]model.ReturnRequest, int, error)
	AddItem(ctx context.Context, userID, returnID int64, line *dto.ReturnLineInput) (*model.ReturnRequest, error)
	RemoveItem(ctx context.Context, userID, returnID, itemID int64) (*model.ReturnRequest, error)

	// Admin operations.
	Get(ctx context.Context, returnID int64) (*model.ReturnRequest, error)
	List(ctx context.Context, f *dto.ReturnFilters) ([]model.ReturnRequest, int, error)
	// Decide moves a requested return to approved or rejected. A non-empty
	// reason replaces the one recorded at creation.
	Decide(ctx context.Context, returnID int64, approve bool, reason *string) (*model.ReturnRequest, error)
	// MarkReceived restocks the returned lines; lines whose variant no longer
	// exists are counted in the result instead of failing the whole return.
	// The note, "return received" by default, is stamped on the ledger rows.
	MarkReceived(ctx context.Context, returnID int64, note *string) (*dto.ReceiveResult, error)
	// Refund records a refunded payment row, cod unless a method is given,
	// and moves the order to refunded.
	Refund(ctx context.Context, returnID int64, method *model.PaymentMethod) (*model.ReturnRequest, error)
	Close(ctx context.Context, returnID int64) (*model.ReturnRequest, error)
}
