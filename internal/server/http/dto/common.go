package dto

// ErrorResponse carries a human readable error message.
type ErrorResponse struct {
	Error string `json:"error"`
}
