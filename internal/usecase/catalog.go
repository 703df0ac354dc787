package usecase

import (
	"context"
	"time"

	domainErrors "github.com/inkwell/coauthor/internal/domain/errors"
	"github.com/inkwell/coauthor/internal/domain/model"
	"github.com/inkwell/coauthor/internal/domain/repository"
	"github.com/inkwell/coauthor/internal/storage/rediscache"
)

// CreateBookInput carries admin-supplied fields for a new listing.
type CreateBookInput struct {
	Slug               string
	Title              string
	Description        string
	Genre              string
	CoverImageURL      string
	PublicationDate    *time.Time
	TotalPositions     int
	AvailablePositions *int
	PricePerPosition   int64
	Status             model.BookStatus
}

// CatalogUseCase manages book listings with a read-through cache in front of
// the published views.
type CatalogUseCase struct {
	books repository.BookRepository
	cache rediscache.CatalogCache
}

// NewCatalogUseCase constructs CatalogUseCase.
func NewCatalogUseCase(books repository.BookRepository, cache rediscache.CatalogCache) *CatalogUseCase {
	return &CatalogUseCase{books: books, cache: cache}
}

// ListPublished returns published listings, newest first.
func (u *CatalogUseCase) ListPublished(ctx context.Context) ([]model.Book, error) {
	if books, ok := u.cache.GetPublished(ctx); ok {
		return books, nil
	}
	books, err := u.books.ListPublished(ctx)
	if err != nil {
		return nil, err
	}
	u.cache.SetPublished(ctx, books)
	return books, nil
}

// GetPublished returns one published listing by slug. Draft listings are not
// visible through this path.
func (u *CatalogUseCase) GetPublished(ctx context.Context, slug string) (*model.Book, error) {
	if book, ok := u.cache.GetBook(ctx, slug); ok {
		return book, nil
	}
	book, err := u.books.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if book.Status != model.BookStatusPublished {
		return nil, domainErrors.ErrNotFound
	}
	u.cache.SetBook(ctx, book)
	return book, nil
}

// ListAll returns every listing regardless of status.
func (u *CatalogUseCase) ListAll(ctx context.Context) ([]model.Book, error) {
	return u.books.ListAll(ctx)
}

// Create validates and persists a new listing.
func (u *CatalogUseCase) Create(ctx context.Context, in CreateBookInput) (*model.Book, error) {
	if in.Title == "" || !ValidateSlug(in.Slug) {
		return nil, domainErrors.ErrInvalidInput
	}
	if in.TotalPositions <= 0 || in.PricePerPosition <= 0 {
		return nil, domainErrors.ErrInvalidInput
	}

	available := in.TotalPositions
	if in.AvailablePositions != nil {
		available = *in.AvailablePositions
	}
	if available < 0 || available > in.TotalPositions {
		return nil, domainErrors.ErrInvalidInput
	}

	status := in.Status
	if status == "" {
		status = model.BookStatusDraft
	}
	if status != model.BookStatusDraft && status != model.BookStatusPublished {
		return nil, domainErrors.ErrInvalidInput
	}

	book, err := u.books.Create(ctx, &model.Book{
		Slug:               in.Slug,
		Title:              in.Title,
		Description:        in.Description,
		Genre:              in.Genre,
		CoverImageURL:      in.CoverImageURL,
		PublicationDate:    in.PublicationDate,
		TotalPositions:     in.TotalPositions,
		AvailablePositions: available,
		PricePerPosition:   in.PricePerPosition,
		Status:             status,
	})
	if err != nil {
		return nil, err
	}

	u.cache.Invalidate(ctx, book.Slug)
	return book, nil
}

// Update applies admin changes to a listing. Available positions may never
// exceed the fixed total.
func (u *CatalogUseCase) Update(ctx context.Context, id int64, upd repository.BookUpdate) (*model.Book, error) {
	current, err := u.books.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.AvailablePositions != nil {
		if *upd.AvailablePositions < 0 || *upd.AvailablePositions > current.TotalPositions {
			return nil, domainErrors.ErrInvalidInput
		}
	}
	if upd.PricePerPosition != nil && *upd.PricePerPosition <= 0 {
		return nil, domainErrors.ErrInvalidInput
	}
	if upd.Status != nil && *upd.Status != model.BookStatusDraft && *upd.Status != model.BookStatusPublished {
		return nil, domainErrors.ErrInvalidInput
	}

	book, err := u.books.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}

	u.cache.Invalidate(ctx, book.Slug)
	return book, nil
}
