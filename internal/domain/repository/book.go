package repository

import (
	"context"

	"github.com/inkwell/coauthor/internal/domain/model"
)

// BookUpdate carries optional admin-editable fields. Nil means "leave as is".
type BookUpdate struct {
	AvailablePositions *int
	PricePerPosition   *int64
	Status             *model.BookStatus
}

// BookRepository describes persistence operations with book listings.
//
// Reserve and Release are the only mutations of the reservation counter and
// must be atomic with respect to concurrent intake requests; the settlement
// decrement lives in PurchaseRepository.Settle so it shares a transaction
// with the purchase status transition.
type BookRepository interface {
	Create(ctx context.Context, book *model.Book) (*model.Book, error)
	GetBySlug(ctx context.Context, slug string) (*model.Book, error)
	GetByID(ctx context.Context, id int64) (*model.Book, error)
	ListPublished(ctx context.Context) ([]model.Book, error)
	ListAll(ctx context.Context) ([]model.Book, error)
	Update(ctx context.Context, id int64, upd BookUpdate) (*model.Book, error)
	Reserve(ctx context.Context, bookID int64, positions int) error
	Release(ctx context.Context, bookID int64, positions int) error
}
