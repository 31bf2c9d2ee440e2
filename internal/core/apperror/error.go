// Package apperror provides structured error handling for the API.
// All business errors must use AppError for consistent API responses.
package apperror

import (
	"errors"
	"fmt"
)

// Error codes
const (
	// Infrastructure errors
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"

	// Validation errors
	CodeValidation = "VALIDATION_ERROR"

	// Authorization errors
	CodeUnauthorized = "UNAUTHORIZED"

	// Conflict
	CodeSnapshotExists = "SNAPSHOT_EXISTS"
)

// AppError is the standard error type for the service.
// It implements error interface and provides structured details for API responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description, safe to show to clients
	Message string `json:"message"`

	// Details contains additional context (field names, dates, etc.)
	Details map[string]any `json:"details,omitempty"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions ---

// NewValidation creates a validation error (missing or malformed input).
func NewValidation(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

// NewUnauthorized creates an authentication error.
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

// NewDatabase wraps a store failure. The cause is logged, never sent to clients.
func NewDatabase(err error) *AppError {
	return &AppError{
		Code:    CodeDatabase,
		Message: "database error",
		Err:     err,
	}
}

// NewSnapshotExists is returned when a checkpoint for the date is already stored.
func NewSnapshotExists(date string) *AppError {
	return &AppError{
		Code:    CodeSnapshotExists,
		Message: fmt.Sprintf("snapshot for %s already exists", date),
		Details: map[string]any{"snap_date": date},
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// --- Helper functions ---

// IsAppError checks if error is AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsCode reports whether err carries an AppError with the given code.
func IsCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}
