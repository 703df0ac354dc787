package dto

import (
	"time"

	"github.com/inkwell/coauthor/internal/domain/model"
)

// BookResponse represents a catalog entry.
type BookResponse struct {
	ID                 int64   `json:"id"`
	Slug               string  `json:"slug"`
	Title              string  `json:"title"`
	Description        string  `json:"description,omitempty"`
	Genre              string  `json:"genre,omitempty"`
	CoverImageURL      string  `json:"coverImageUrl,omitempty"`
	PublicationDate    *string `json:"publicationDate,omitempty"`
	TotalPositions     int     `json:"totalPositions"`
	AvailablePositions int     `json:"availablePositions"`
	PricePerPosition   int64   `json:"pricePerPosition"`
	Status             string  `json:"status"`
}

// NewBookResponse maps a book to its API representation. Available positions
// are reported net of active reservations so buyers see what they can
// actually purchase.
func NewBookResponse(book model.Book) BookResponse {
	resp := BookResponse{
		ID:                 book.ID,
		Slug:               book.Slug,
		Title:              book.Title,
		Description:        book.Description,
		Genre:              book.Genre,
		CoverImageURL:      book.CoverImageURL,
		TotalPositions:     book.TotalPositions,
		AvailablePositions: book.Purchasable(),
		PricePerPosition:   book.PricePerPosition,
		Status:             string(book.Status),
	}
	if book.PublicationDate != nil {
		date := book.PublicationDate.Format(time.DateOnly)
		resp.PublicationDate = &date
	}
	return resp
}

// NewBookResponses maps a list of books.
func NewBookResponses(books []model.Book) []BookResponse {
	out := make([]BookResponse, 0, len(books))
	for _, book := range books {
		out = append(out, NewBookResponse(book))
	}
	return out
}

// CreateBookRequest is the admin payload for a new book.
type CreateBookRequest struct {
	Slug               string `json:"slug"`
	Title              string `json:"title"`
	Description        string `json:"description"`
	Genre              string `json:"genre"`
	CoverImageURL      string `json:"coverImageUrl"`
	PublicationDate    string `json:"publicationDate"`
	TotalPositions     int    `json:"totalPositions"`
	AvailablePositions *int   `json:"availablePositions"`
	PricePerPosition   int64  `json:"pricePerPosition"`
	Status             string `json:"status"`
}

// UpdateBookRequest carries partial book updates; nil fields stay untouched.
type UpdateBookRequest struct {
	AvailablePositions *int    `json:"availablePositions"`
	PricePerPosition   *int64  `json:"pricePerPosition"`
	Status             *string `json:"status"`
}
