package types

// StatusResponse acknowledges a processed webhook delivery.
type StatusResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the flat wire shape for failures.
type ErrorResponse struct {
	Error string `json:"error"`
}
