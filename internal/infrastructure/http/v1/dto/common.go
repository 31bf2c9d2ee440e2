// Package dto provides Data Transfer Objects for API requests/responses.
package dto

// ErrorResponse is the failure envelope of every /api endpoint.
// It is sent with HTTP 200; callers check Success, not the status code.
type ErrorResponse struct {
	Success bool           `json:"success"`
	Error   string         `json:"error"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}

// NewErrorResponse builds a failure envelope.
func NewErrorResponse(code, message string, details map[string]any) ErrorResponse {
	return ErrorResponse{
		Success: false,
		Error:   message,
		Code:    code,
		Details: details,
	}
}
