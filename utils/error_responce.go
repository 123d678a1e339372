package utils

// ErrorResponse is the body of every failed request. Error is a stable,
// machine-readable code; Message is for humans.
type ErrorResponse struct {
	Message   string `json:"message"`
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}
