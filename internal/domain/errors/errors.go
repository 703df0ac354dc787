package errors

import "errors"

var (
	ErrAlreadyExists         = errors.New("already exists")
	ErrNotFound              = errors.New("not found")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrInvalidInput          = errors.New("invalid input")
	ErrInsufficientInventory = errors.New("insufficient positions available")
	ErrForbidden             = errors.New("forbidden")
	ErrPaymentProvider       = errors.New("payment provider error")
	ErrInvalidSignature      = errors.New("invalid callback signature")
	ErrInvalidPayload        = errors.New("invalid callback payload")
)
