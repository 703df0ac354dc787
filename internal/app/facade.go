package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/inkwell/coauthor/internal/adapter/phonepe"
	"github.com/inkwell/coauthor/internal/config"
	domainErrors "github.com/inkwell/coauthor/internal/domain/errors"
	"github.com/inkwell/coauthor/internal/domain/model"
	"github.com/inkwell/coauthor/internal/domain/repository"
	"github.com/inkwell/coauthor/internal/usecase"
)

// PaymentProvider is the gateway surface the facade depends on.
type PaymentProvider interface {
	CreatePayment(ctx context.Context, req phonepe.CreateRequest) (*model.CheckoutIntent, error)
	FetchStatus(ctx context.Context, transactionID string) (*model.PaymentResult, error)
	DecodeCallback(body []byte, xVerify string) (*model.PaymentResult, error)
}

// StoreFacade aggregates the storefront operations exposed to HTTP handlers
// and the reconciliation worker.
type StoreFacade struct {
	auth      *usecase.AuthUseCase
	catalog   *usecase.CatalogUseCase
	purchases *usecase.PurchaseUseCase
	payments  PaymentProvider
	cfg       *config.Config
	logger    *slog.Logger
}

func NewStoreFacade(auth *usecase.AuthUseCase, catalog *usecase.CatalogUseCase, purchases *usecase.PurchaseUseCase, payments PaymentProvider, cfg *config.Config, logger *slog.Logger) *StoreFacade {
	return &StoreFacade{auth: auth, catalog: catalog, purchases: purchases, payments: payments, cfg: cfg, logger: logger}
}

// --- auth ---

func (f *StoreFacade) Register(ctx context.Context, email, password string) (string, error) {
	_, token, err := f.auth.Register(ctx, email, password)
	return token, err
}

func (f *StoreFacade) Authenticate(ctx context.Context, email, password string) (string, error) {
	_, token, err := f.auth.Authenticate(ctx, email, password)
	return token, err
}

func (f *StoreFacade) ParseToken(token string) (int64, error) {
	return f.auth.ParseToken(token)
}

func (f *StoreFacade) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	return f.auth.IsAdmin(ctx, userID)
}

func (f *StoreFacade) BootstrapAdmin(ctx context.Context, userID int64) (bool, error) {
	return f.auth.BootstrapAdmin(ctx, userID)
}

func (f *StoreFacade) Profile(ctx context.Context, userID int64) (*model.Profile, error) {
	return f.auth.Profile(ctx, userID)
}

func (f *StoreFacade) SaveProfile(ctx context.Context, profile *model.Profile) (*model.Profile, error) {
	return f.auth.SaveProfile(ctx, profile)
}

// --- catalog ---

func (f *StoreFacade) PublishedBooks(ctx context.Context) ([]model.Book, error) {
	return f.catalog.ListPublished(ctx)
}

func (f *StoreFacade) PublishedBook(ctx context.Context, slug string) (*model.Book, error) {
	return f.catalog.GetPublished(ctx, slug)
}

func (f *StoreFacade) AllBooks(ctx context.Context) ([]model.Book, error) {
	return f.catalog.ListAll(ctx)
}

func (f *StoreFacade) CreateBook(ctx context.Context, in usecase.CreateBookInput) (*model.Book, error) {
	return f.catalog.Create(ctx, in)
}

func (f *StoreFacade) UpdateBook(ctx context.Context, id int64, upd repository.BookUpdate) (*model.Book, error) {
	return f.catalog.Update(ctx, id, upd)
}

// --- purchases ---

// BeginPurchase runs order intake and payment initialization. When the
// provider rejects or fails the request the pending purchase is aborted so
// its reservation does not linger until the reconciliation sweep.
func (f *StoreFacade) BeginPurchase(ctx context.Context, userID int64, slug string, positions int, contact model.BuyerContact) (*model.CheckoutIntent, error) {
	purchase, _, err := f.purchases.Intake(ctx, userID, slug, positions, contact)
	if err != nil {
		return nil, err
	}

	callbackURL := fmt.Sprintf("%s/api/payments/callback?mtid=%s", f.cfg.PublicBaseURL, purchase.TransactionID)
	intent, err := f.payments.CreatePayment(ctx, phonepe.CreateRequest{
		TransactionID: purchase.TransactionID,
		Amount:        purchase.TotalAmount,
		UserRef:       fmt.Sprintf("user-%d", userID),
		RedirectURL:   callbackURL,
		CallbackURL:   callbackURL,
	})
	if err != nil {
		f.logger.Error("payment initialization failed",
			slog.String("transaction_id", purchase.TransactionID),
			slog.String("error", err.Error()),
		)
		if abortErr := f.purchases.Abort(ctx, purchase.TransactionID); abortErr != nil {
			f.logger.Error("abort purchase after failed payment init",
				slog.String("transaction_id", purchase.TransactionID),
				slog.String("error", abortErr.Error()),
			)
		}
		return nil, fmt.Errorf("%w: %v", domainErrors.ErrPaymentProvider, err)
	}

	return intent, nil
}

func (f *StoreFacade) PurchaseStatus(ctx context.Context, transactionID string) (*model.Purchase, error) {
	return f.purchases.Status(ctx, transactionID)
}

func (f *StoreFacade) UserPurchases(ctx context.Context, userID int64) ([]model.Purchase, error) {
	return f.purchases.History(ctx, userID)
}

// SettleFromCallback verifies and applies a server-to-server callback. An
// unknown transaction id results in no mutation but is not an error towards
// the provider.
func (f *StoreFacade) SettleFromCallback(ctx context.Context, body []byte, xVerify string) (*model.PaymentResult, error) {
	result, err := f.payments.DecodeCallback(body, xVerify)
	if err != nil {
		switch {
		case errors.Is(err, phonepe.ErrSignatureMismatch):
			return nil, domainErrors.ErrInvalidSignature
		case errors.Is(err, phonepe.ErrMalformedCallback):
			return nil, domainErrors.ErrInvalidPayload
		}
		return nil, err
	}

	if _, _, err := f.purchases.Settle(ctx, result); err != nil && !errors.Is(err, domainErrors.ErrNotFound) {
		return nil, err
	}
	return result, nil
}

// ConfirmTransaction re-checks the transaction outcome with the provider
// status API and settles terminal outcomes. Used for browser redirects,
// which carry no verifiable signature of their own.
func (f *StoreFacade) ConfirmTransaction(ctx context.Context, transactionID string) (*model.PaymentResult, error) {
	result, err := f.payments.FetchStatus(ctx, transactionID)
	if err != nil {
		if errors.Is(err, phonepe.ErrTransactionUnknown) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", domainErrors.ErrPaymentProvider, err)
	}

	if _, _, err := f.purchases.Settle(ctx, result); err != nil && !errors.Is(err, domainErrors.ErrNotFound) {
		return nil, err
	}
	return result, nil
}

// --- reconciliation worker surface ---

func (f *StoreFacade) StalePurchases(ctx context.Context, limit int) ([]model.Purchase, error) {
	return f.purchases.StaleForCheck(ctx, f.cfg.PendingCheckAge, limit)
}

func (f *StoreFacade) CheckPayment(ctx context.Context, transactionID string) (*model.PaymentResult, error) {
	return f.payments.FetchStatus(ctx, transactionID)
}

func (f *StoreFacade) SettlePayment(ctx context.Context, result *model.PaymentResult) (*model.Purchase, bool, error) {
	return f.purchases.Settle(ctx, result)
}

// AbandonPurchase fails a pending purchase the provider never completed,
// releasing its reservation.
func (f *StoreFacade) AbandonPurchase(ctx context.Context, transactionID string) error {
	return f.purchases.Abort(ctx, transactionID)
}
