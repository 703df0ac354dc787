package model

// PaymentState describes the provider-side state of a transaction as reported
// by the gateway status API or a callback.
type PaymentState string

const (
	PaymentStateCompleted PaymentState = "COMPLETED"
	PaymentStateFailed    PaymentState = "FAILED"
	PaymentStatePending   PaymentState = "PENDING"
)

// CheckoutIntent is the result of a successful payment initialization: the
// URL the buyer must be redirected to.
type CheckoutIntent struct {
	TransactionID string
	CheckoutURL   string
}

// PaymentResult is the verified outcome of a transaction reported by the
// provider, either through a callback or a status poll.
type PaymentResult struct {
	TransactionID string
	ProviderRef   string
	State         PaymentState
}
