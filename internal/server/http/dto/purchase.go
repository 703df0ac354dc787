package dto

import (
	"time"

	"github.com/inkwell/coauthor/internal/domain/model"
)

// PurchaseRequest starts a checkout for a number of co-authorship positions.
type PurchaseRequest struct {
	Positions     int    `json:"positions"`
	Phone         string `json:"phone"`
	Bio           string `json:"bio"`
	ProfileImgURL string `json:"profileImageUrl"`
}

// CheckoutResponse points the buyer at the provider payment page.
type CheckoutResponse struct {
	TransactionID string `json:"transactionId"`
	CheckoutURL   string `json:"checkoutUrl"`
}

// PurchaseResponse represents a purchase record.
type PurchaseResponse struct {
	TransactionID string     `json:"transactionId"`
	BookID        int64      `json:"bookId"`
	Positions     int        `json:"positions"`
	TotalAmount   int64      `json:"totalAmount"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"createdAt"`
	SettledAt     *time.Time `json:"settledAt,omitempty"`
}

// NewPurchaseResponse maps a purchase to its API representation.
func NewPurchaseResponse(p model.Purchase) PurchaseResponse {
	return PurchaseResponse{
		TransactionID: p.TransactionID,
		BookID:        p.BookID,
		Positions:     p.Positions,
		TotalAmount:   p.TotalAmount,
		Status:        string(p.Status),
		CreatedAt:     p.CreatedAt,
		SettledAt:     p.SettledAt,
	}
}

// NewPurchaseResponses maps a list of purchases.
func NewPurchaseResponses(purchases []model.Purchase) []PurchaseResponse {
	out := make([]PurchaseResponse, 0, len(purchases))
	for _, p := range purchases {
		out = append(out, NewPurchaseResponse(p))
	}
	return out
}
