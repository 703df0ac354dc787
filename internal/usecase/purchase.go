package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	domainErrors "github.com/inkwell/coauthor/internal/domain/errors"
	"github.com/inkwell/coauthor/internal/domain/model"
	"github.com/inkwell/coauthor/internal/domain/repository"
	"github.com/inkwell/coauthor/internal/storage/rediscache"
)

// PurchaseUseCase encapsulates the order intake and settlement lifecycle.
type PurchaseUseCase struct {
	books     repository.BookRepository
	purchases repository.PurchaseRepository
	cache     rediscache.CatalogCache
	logger    *slog.Logger
}

// NewPurchaseUseCase constructs PurchaseUseCase.
func NewPurchaseUseCase(books repository.BookRepository, purchases repository.PurchaseRepository, cache rediscache.CatalogCache, logger *slog.Logger) *PurchaseUseCase {
	return &PurchaseUseCase{books: books, purchases: purchases, cache: cache, logger: logger}
}

// Intake validates a purchase request, places a reservation on the requested
// positions and records a pending purchase with a fresh transaction id. The
// total amount is captured here and never recomputed at settlement.
func (u *PurchaseUseCase) Intake(ctx context.Context, userID int64, slug string, positions int, contact model.BuyerContact) (*model.Purchase, *model.Book, error) {
	if positions <= 0 {
		return nil, nil, domainErrors.ErrInvalidInput
	}

	book, err := u.books.GetBySlug(ctx, slug)
	if err != nil {
		return nil, nil, err
	}
	if book.Status != model.BookStatusPublished {
		return nil, nil, domainErrors.ErrNotFound
	}

	// Reserve is the authoritative check; this read only produces a
	// friendlier early failure.
	if positions > book.Purchasable() {
		return nil, nil, domainErrors.ErrInsufficientInventory
	}

	if err := u.books.Reserve(ctx, book.ID, positions); err != nil {
		return nil, nil, err
	}

	purchase, err := u.purchases.Create(ctx, &model.Purchase{
		TransactionID: uuid.NewString(),
		UserID:        userID,
		BookID:        book.ID,
		Positions:     positions,
		TotalAmount:   int64(positions) * book.PricePerPosition,
		Status:        model.PaymentStatusPending,
		Contact:       contact,
	})
	if err != nil {
		if relErr := u.books.Release(ctx, book.ID, positions); relErr != nil {
			u.logger.Error("release reservation after failed intake",
				slog.Int64("book_id", book.ID),
				slog.String("error", relErr.Error()),
			)
		}
		return nil, nil, err
	}

	u.cache.Invalidate(ctx, book.Slug)
	return purchase, book, nil
}

// Abort fails a pending purchase whose payment initialization did not
// succeed, releasing its reservation.
func (u *PurchaseUseCase) Abort(ctx context.Context, transactionID string) error {
	_, _, err := u.purchases.Settle(ctx, transactionID, model.PaymentStateFailed, "")
	return err
}

// Settle applies a verified terminal payment outcome. Pending provider
// states are ignored; replays of an already-settled transaction are no-ops.
func (u *PurchaseUseCase) Settle(ctx context.Context, result *model.PaymentResult) (*model.Purchase, bool, error) {
	if result.State == model.PaymentStatePending {
		purchase, err := u.purchases.GetByTransactionID(ctx, result.TransactionID)
		if err != nil {
			return nil, false, err
		}
		return purchase, false, nil
	}

	purchase, applied, err := u.purchases.Settle(ctx, result.TransactionID, result.State, result.ProviderRef)
	if err != nil {
		return nil, false, err
	}
	if applied {
		u.invalidateBook(ctx, purchase.BookID)
		u.logger.Info("purchase settled",
			slog.String("transaction_id", purchase.TransactionID),
			slog.String("status", string(purchase.Status)),
			slog.Int("positions", purchase.Positions),
		)
	}
	return purchase, applied, nil
}

// Status looks up a purchase by its transaction id.
func (u *PurchaseUseCase) Status(ctx context.Context, transactionID string) (*model.Purchase, error) {
	return u.purchases.GetByTransactionID(ctx, transactionID)
}

// History returns the user's purchases, newest first.
func (u *PurchaseUseCase) History(ctx context.Context, userID int64) ([]model.Purchase, error) {
	return u.purchases.ListByUser(ctx, userID)
}

// StaleForCheck selects pending purchases due for reconciliation.
func (u *PurchaseUseCase) StaleForCheck(ctx context.Context, olderThan time.Duration, limit int) ([]model.Purchase, error) {
	return u.purchases.SelectStaleForCheck(ctx, olderThan, limit)
}

func (u *PurchaseUseCase) invalidateBook(ctx context.Context, bookID int64) {
	book, err := u.books.GetByID(ctx, bookID)
	if err != nil {
		u.cache.Invalidate(ctx)
		return
	}
	u.cache.Invalidate(ctx, book.Slug)
}
