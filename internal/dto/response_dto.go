package dto

// ErrorResponse is the uniform error payload returned by every controller.
type ErrorResponse struct {
	Message string   `json:"message"`
	Code    string   `json:"code,omitempty"`
	Details []string `json:"details,omitempty"`
}
