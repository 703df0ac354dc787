package handlers

import (
	"context"

	"github.com/inkwell/coauthor/internal/domain/model"
	"github.com/inkwell/coauthor/internal/domain/repository"
	"github.com/inkwell/coauthor/internal/usecase"
)

// AuthFacade describes authentication capabilities required by handlers.
type AuthFacade interface {
	Register(ctx context.Context, email, password string) (string, error)
	Authenticate(ctx context.Context, email, password string) (string, error)
	ParseToken(token string) (int64, error)
	IsAdmin(ctx context.Context, userID int64) (bool, error)
	BootstrapAdmin(ctx context.Context, userID int64) (bool, error)
}

// CatalogFacade exposes the public book catalog.
type CatalogFacade interface {
	PublishedBooks(ctx context.Context) ([]model.Book, error)
	PublishedBook(ctx context.Context, slug string) (*model.Book, error)
}

// AdminCatalogFacade exposes catalog management operations.
type AdminCatalogFacade interface {
	AllBooks(ctx context.Context) ([]model.Book, error)
	CreateBook(ctx context.Context, in usecase.CreateBookInput) (*model.Book, error)
	UpdateBook(ctx context.Context, id int64, upd repository.BookUpdate) (*model.Book, error)
}

// PurchaseFacade encapsulates checkout and purchase history operations.
type PurchaseFacade interface {
	BeginPurchase(ctx context.Context, userID int64, slug string, positions int, contact model.BuyerContact) (*model.CheckoutIntent, error)
	PurchaseStatus(ctx context.Context, transactionID string) (*model.Purchase, error)
	UserPurchases(ctx context.Context, userID int64) ([]model.Purchase, error)
}

// CallbackFacade settles payment outcomes delivered by the provider.
type CallbackFacade interface {
	SettleFromCallback(ctx context.Context, body []byte, xVerify string) (*model.PaymentResult, error)
	ConfirmTransaction(ctx context.Context, transactionID string) (*model.PaymentResult, error)
}

// ProfileFacade provides buyer profile operations.
type ProfileFacade interface {
	Profile(ctx context.Context, userID int64) (*model.Profile, error)
	SaveProfile(ctx context.Context, profile *model.Profile) (*model.Profile, error)
}

// StorefrontFacade aggregates the full set of operations used across handlers.
type StorefrontFacade interface {
	AuthFacade
	CatalogFacade
	AdminCatalogFacade
	PurchaseFacade
	CallbackFacade
	ProfileFacade
}
