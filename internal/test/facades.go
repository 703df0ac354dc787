package test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/inkwell/coauthor/internal/domain/model"
	"github.com/inkwell/coauthor/internal/domain/repository"
	"github.com/inkwell/coauthor/internal/usecase"
)

// StorefrontFacadeStub provides controllable behaviour for HTTP handler tests.
type StorefrontFacadeStub struct {
	RegisterFn     func(context.Context, string, string) (string, error)
	AuthenticateFn func(context.Context, string, string) (string, error)
	ParseTokenFn   func(string) (int64, error)
	IsAdminFn      func(context.Context, int64) (bool, error)
	BootstrapFn    func(context.Context, int64) (bool, error)

	PublishedBooksFn func(context.Context) ([]model.Book, error)
	PublishedBookFn  func(context.Context, string) (*model.Book, error)
	AllBooksFn       func(context.Context) ([]model.Book, error)
	CreateBookFn     func(context.Context, usecase.CreateBookInput) (*model.Book, error)
	UpdateBookFn     func(context.Context, int64, repository.BookUpdate) (*model.Book, error)

	BeginPurchaseFn  func(context.Context, int64, string, int, model.BuyerContact) (*model.CheckoutIntent, error)
	PurchaseStatusFn func(context.Context, string) (*model.Purchase, error)
	UserPurchasesFn  func(context.Context, int64) ([]model.Purchase, error)

	SettleFromCallbackFn func(context.Context, []byte, string) (*model.PaymentResult, error)
	ConfirmFn            func(context.Context, string) (*model.PaymentResult, error)

	ProfileFn     func(context.Context, int64) (*model.Profile, error)
	SaveProfileFn func(context.Context, *model.Profile) (*model.Profile, error)
}

// Register delegates to the override or issues a fixed token.
func (s *StorefrontFacadeStub) Register(ctx context.Context, email, password string) (string, error) {
	if s.RegisterFn != nil {
		return s.RegisterFn(ctx, email, password)
	}
	return "token", nil
}

// Authenticate delegates to the override or issues a fixed token.
func (s *StorefrontFacadeStub) Authenticate(ctx context.Context, email, password string) (string, error) {
	if s.AuthenticateFn != nil {
		return s.AuthenticateFn(ctx, email, password)
	}
	return "token", nil
}

// ParseToken resolves tokens to user id 1 unless overridden.
func (s *StorefrontFacadeStub) ParseToken(token string) (int64, error) {
	if s.ParseTokenFn != nil {
		return s.ParseTokenFn(token)
	}
	return 1, nil
}

// IsAdmin reports admin membership, defaulting to true for tests.
func (s *StorefrontFacadeStub) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	if s.IsAdminFn != nil {
		return s.IsAdminFn(ctx, userID)
	}
	return true, nil
}

// BootstrapAdmin delegates to the override or grants the role.
func (s *StorefrontFacadeStub) BootstrapAdmin(ctx context.Context, userID int64) (bool, error) {
	if s.BootstrapFn != nil {
		return s.BootstrapFn(ctx, userID)
	}
	return true, nil
}

// PublishedBooks returns configured catalog entries.
func (s *StorefrontFacadeStub) PublishedBooks(ctx context.Context) ([]model.Book, error) {
	if s.PublishedBooksFn != nil {
		return s.PublishedBooksFn(ctx)
	}
	return []model.Book{{ID: 1, Slug: "first", Status: model.BookStatusPublished}}, nil
}

// PublishedBook returns a configured catalog entry.
func (s *StorefrontFacadeStub) PublishedBook(ctx context.Context, slug string) (*model.Book, error) {
	if s.PublishedBookFn != nil {
		return s.PublishedBookFn(ctx, slug)
	}
	return &model.Book{ID: 1, Slug: slug, Status: model.BookStatusPublished}, nil
}

// AllBooks returns the configured admin listing.
func (s *StorefrontFacadeStub) AllBooks(ctx context.Context) ([]model.Book, error) {
	if s.AllBooksFn != nil {
		return s.AllBooksFn(ctx)
	}
	return []model.Book{{ID: 1, Slug: "first"}}, nil
}

// CreateBook delegates to the override or echoes a created book.
func (s *StorefrontFacadeStub) CreateBook(ctx context.Context, in usecase.CreateBookInput) (*model.Book, error) {
	if s.CreateBookFn != nil {
		return s.CreateBookFn(ctx, in)
	}
	return &model.Book{ID: 1, Slug: in.Slug, Title: in.Title}, nil
}

// UpdateBook delegates to the override or echoes an updated book.
func (s *StorefrontFacadeStub) UpdateBook(ctx context.Context, id int64, upd repository.BookUpdate) (*model.Book, error) {
	if s.UpdateBookFn != nil {
		return s.UpdateBookFn(ctx, id, upd)
	}
	return &model.Book{ID: id}, nil
}

// BeginPurchase delegates to the override or returns a checkout intent.
func (s *StorefrontFacadeStub) BeginPurchase(ctx context.Context, userID int64, slug string, positions int, contact model.BuyerContact) (*model.CheckoutIntent, error) {
	if s.BeginPurchaseFn != nil {
		return s.BeginPurchaseFn(ctx, userID, slug, positions, contact)
	}
	return &model.CheckoutIntent{TransactionID: "tx-1", CheckoutURL: "https://pay.example/tx-1"}, nil
}

// PurchaseStatus delegates to the override or returns a pending purchase.
func (s *StorefrontFacadeStub) PurchaseStatus(ctx context.Context, transactionID string) (*model.Purchase, error) {
	if s.PurchaseStatusFn != nil {
		return s.PurchaseStatusFn(ctx, transactionID)
	}
	return &model.Purchase{TransactionID: transactionID, Status: model.PaymentStatusPending}, nil
}

// UserPurchases returns predefined purchases for given user.
func (s *StorefrontFacadeStub) UserPurchases(ctx context.Context, userID int64) ([]model.Purchase, error) {
	if s.UserPurchasesFn != nil {
		return s.UserPurchasesFn(ctx, userID)
	}
	return []model.Purchase{{TransactionID: "tx-1", UserID: userID}}, nil
}

// SettleFromCallback delegates to the override or reports success.
func (s *StorefrontFacadeStub) SettleFromCallback(ctx context.Context, body []byte, xVerify string) (*model.PaymentResult, error) {
	if s.SettleFromCallbackFn != nil {
		return s.SettleFromCallbackFn(ctx, body, xVerify)
	}
	return &model.PaymentResult{TransactionID: "tx-1", State: model.PaymentStateCompleted}, nil
}

// ConfirmTransaction delegates to the override or reports success.
func (s *StorefrontFacadeStub) ConfirmTransaction(ctx context.Context, transactionID string) (*model.PaymentResult, error) {
	if s.ConfirmFn != nil {
		return s.ConfirmFn(ctx, transactionID)
	}
	return &model.PaymentResult{TransactionID: transactionID, State: model.PaymentStateCompleted}, nil
}

// Profile returns the configured profile.
func (s *StorefrontFacadeStub) Profile(ctx context.Context, userID int64) (*model.Profile, error) {
	if s.ProfileFn != nil {
		return s.ProfileFn(ctx, userID)
	}
	return &model.Profile{UserID: userID}, nil
}

// SaveProfile delegates to the override or echoes the profile.
func (s *StorefrontFacadeStub) SaveProfile(ctx context.Context, profile *model.Profile) (*model.Profile, error) {
	if s.SaveProfileFn != nil {
		return s.SaveProfileFn(ctx, profile)
	}
	return profile, nil
}

// SettlementCall stores information about SettlePayment invocations.
type SettlementCall struct {
	Result *model.PaymentResult
}

// WorkerFacadeStub mimics worker interactions with the store facade.
type WorkerFacadeStub struct {
	Batches   [][]model.Purchase
	StaleFn   func(context.Context, int) ([]model.Purchase, error)
	CheckFn   func(context.Context, string) (*model.PaymentResult, error)
	SettleFn  func(context.Context, *model.PaymentResult) (*model.Purchase, bool, error)
	AbandonFn func(context.Context, string) error

	Settlements []SettlementCall
	Abandoned   []string

	mu             sync.Mutex
	staleCallCount int32
}

// Lock exposes internal mutex for external synchronization.
func (s *WorkerFacadeStub) Lock() { s.mu.Lock() }

// Unlock releases previously acquired lock.
func (s *WorkerFacadeStub) Unlock() { s.mu.Unlock() }

// StalePurchases returns batches from configured queue.
func (s *WorkerFacadeStub) StalePurchases(ctx context.Context, limit int) ([]model.Purchase, error) {
	if s.StaleFn != nil {
		return s.StaleFn(ctx, limit)
	}
	call := atomic.AddInt32(&s.staleCallCount, 1)
	if int(call) <= len(s.Batches) {
		return s.Batches[call-1], nil
	}
	time.Sleep(10 * time.Millisecond)
	return nil, nil
}

// CheckPayment returns configured status data.
func (s *WorkerFacadeStub) CheckPayment(ctx context.Context, transactionID string) (*model.PaymentResult, error) {
	if s.CheckFn != nil {
		return s.CheckFn(ctx, transactionID)
	}
	return &model.PaymentResult{TransactionID: transactionID, State: model.PaymentStateCompleted}, nil
}

// SettlePayment records settlement requests.
func (s *WorkerFacadeStub) SettlePayment(ctx context.Context, result *model.PaymentResult) (*model.Purchase, bool, error) {
	if s.SettleFn != nil {
		return s.SettleFn(ctx, result)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Settlements = append(s.Settlements, SettlementCall{Result: result})
	return &model.Purchase{TransactionID: result.TransactionID}, true, nil
}

// AbandonPurchase records abandon requests.
func (s *WorkerFacadeStub) AbandonPurchase(ctx context.Context, transactionID string) error {
	if s.AbandonFn != nil {
		return s.AbandonFn(ctx, transactionID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Abandoned = append(s.Abandoned, transactionID)
	return nil
}
