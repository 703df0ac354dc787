package model

import "time"

// BookStatus describes listing visibility.
type BookStatus string

const (
	BookStatusDraft     BookStatus = "draft"
	BookStatusPublished BookStatus = "published"
)

// Book describes an upcoming book listing with a limited number of
// purchasable co-authorship positions. PricePerPosition is stored in minor
// currency units (paise).
type Book struct {
	ID                 int64
	Slug               string
	Title              string
	Description        string
	Genre              string
	CoverImageURL      string
	PublicationDate    *time.Time
	TotalPositions     int
	AvailablePositions int
	ReservedPositions  int
	PricePerPosition   int64
	Status             BookStatus
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Purchasable reports how many positions can still be reserved right now.
func (b *Book) Purchasable() int {
	free := b.AvailablePositions - b.ReservedPositions
	if free < 0 {
		return 0
	}
	return free
}
