package dto

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	Error string            `json:"error"`
	Field string            `json:"field,omitempty"`
	Items []UnavailableItem `json:"items,omitempty"`
}
