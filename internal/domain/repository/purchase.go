package repository

import (
	"context"
	"time"

	"github.com/inkwell/coauthor/internal/domain/model"
)

// PurchaseRepository describes persistence operations with purchases.
type PurchaseRepository interface {
	Create(ctx context.Context, purchase *model.Purchase) (*model.Purchase, error)
	GetByTransactionID(ctx context.Context, transactionID string) (*model.Purchase, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Purchase, error)

	// Settle applies the terminal outcome for the purchase identified by the
	// merchant transaction id. The status transition, the clamped inventory
	// decrement (on success) and the reservation release happen in a single
	// database transaction. Returns applied=false without error when the
	// purchase is already settled (replayed callback), and ErrNotFound when
	// the transaction id is unknown.
	Settle(ctx context.Context, transactionID string, state model.PaymentState, providerRef string) (purchase *model.Purchase, applied bool, err error)

	// SelectStaleForCheck picks pending purchases older than the given age
	// that have not been checked recently, stamping them as checked so
	// concurrent sweeps skip them.
	SelectStaleForCheck(ctx context.Context, olderThan time.Duration, limit int) ([]model.Purchase, error)
}
