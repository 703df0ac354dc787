package model

import "time"

// PaymentStatus describes purchase settlement lifecycle. A purchase starts
// pending and transitions exactly once to success or failed.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// BuyerContact carries optional buyer metadata captured at intake.
type BuyerContact struct {
	Phone           string
	Bio             string
	ProfileImageURL string
}

// Purchase describes a co-authorship order. TotalAmount is captured at
// creation time as Positions * Book.PricePerPosition and never recomputed.
type Purchase struct {
	ID                  int64
	TransactionID       string
	UserID              int64
	BookID              int64
	Positions           int
	TotalAmount         int64
	Status              PaymentStatus
	ProviderRef         string
	Contact             BuyerContact
	NeedsReconciliation bool
	CreatedAt           time.Time
	SettledAt           *time.Time
}

// Settled reports whether the purchase reached a terminal state.
func (p *Purchase) Settled() bool {
	return p.Status == PaymentStatusSuccess || p.Status == PaymentStatusFailed
}
