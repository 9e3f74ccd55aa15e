// Package errors defines the structured API error envelope returned by
// every HTTP endpoint.
package errors

import (
	"net/http"

	"github.com/go-chi/render"
)

// APIError is the JSON error body sent to clients.
type APIError struct {
	StatusCode int    `json:"status_code"`
	ErrorCode  string `json:"error_code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// Render implements render.Renderer for chi/render.
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// New creates an APIError.
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// NewWithDetails creates an APIError carrying structured details.
func NewWithDetails(statusCode int, errorCode, message string, details any) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

// Predefined errors for common scenarios.
var (
	ErrInvalidRequest    = New(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format")
	ErrValidationFailed  = New(http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed")
	ErrJobNotFound       = New(http.StatusNotFound, "JOB_NOT_FOUND", "Job not found")
	ErrFileNotFound      = New(http.StatusNotFound, "FILE_NOT_FOUND", "File not found")
	ErrResultNotReady    = New(http.StatusConflict, "RESULT_NOT_READY", "Job has not completed yet")
	ErrJobNotCancellable = New(http.StatusConflict, "JOB_NOT_CANCELLABLE", "Job is already in a terminal state")
	ErrUnsupportedFormat = New(http.StatusUnprocessableEntity, "UNSUPPORTED_FORMAT", "Unsupported file format")
	ErrRateLimitExceeded = New(http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Rate limit exceeded")
	ErrInternalServer    = New(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error")
	ErrQueueFull         = New(http.StatusServiceUnavailable, "QUEUE_FULL", "Job queue is full, try again later")
)

// InvalidRequestWithError wraps a decoding error in the standard envelope.
func InvalidRequestWithError(err error) *APIError {
	return NewWithDetails(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format", err.Error())
}

// InternalWithError wraps an unexpected failure in the standard envelope.
func InternalWithError(err error) *APIError {
	return NewWithDetails(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error", err.Error())
}
