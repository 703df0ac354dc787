package test

import (
	"context"

	"github.com/inkwell/coauthor/internal/domain/model"
)

// CatalogCacheStub records cache interactions and serves configured entries.
type CatalogCacheStub struct {
	Published   []model.Book
	HasList     bool
	Books       map[string]*model.Book
	Invalidated [][]string

	ListSets int
	BookSets int
}

// NewCatalogCacheStub constructs stub cache with initialized maps.
func NewCatalogCacheStub() *CatalogCacheStub {
	return &CatalogCacheStub{Books: make(map[string]*model.Book)}
}

// GetPublished returns the configured listing when present.
func (s *CatalogCacheStub) GetPublished(ctx context.Context) ([]model.Book, bool) {
	if !s.HasList {
		return nil, false
	}
	return s.Published, true
}

// SetPublished stores the listing and counts the write.
func (s *CatalogCacheStub) SetPublished(ctx context.Context, books []model.Book) {
	s.Published = books
	s.HasList = true
	s.ListSets++
}

// GetBook returns the configured entry when present.
func (s *CatalogCacheStub) GetBook(ctx context.Context, slug string) (*model.Book, bool) {
	book, ok := s.Books[slug]
	return book, ok
}

// SetBook stores the entry and counts the write.
func (s *CatalogCacheStub) SetBook(ctx context.Context, book *model.Book) {
	if s.Books == nil {
		s.Books = make(map[string]*model.Book)
	}
	s.Books[book.Slug] = book
	s.BookSets++
}

// Invalidate records which keys were dropped and drops them.
func (s *CatalogCacheStub) Invalidate(ctx context.Context, slugs ...string) {
	s.Invalidated = append(s.Invalidated, slugs)
	s.HasList = false
	s.Published = nil
	for _, slug := range slugs {
		delete(s.Books, slug)
	}
}
