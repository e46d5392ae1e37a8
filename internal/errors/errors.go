// Package errors defines structured error types for the API.
package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/maruel/wcstore/internal/models"
)

// ErrorCode defines specific error types for the API.
type ErrorCode string

const (
	// ErrValidationFailed is returned when input data fails validation
	ErrValidationFailed ErrorCode = "VALIDATION_FAILED"
	// ErrInvalidCollection is returned for an unknown collection name
	ErrInvalidCollection ErrorCode = "INVALID_COLLECTION"
	// ErrRejected is returned when an upload or a publish is refused
	ErrRejected ErrorCode = "REJECTED"
	// ErrNotFound is returned when a resource is not found
	ErrNotFound ErrorCode = "NOT_FOUND"
	// ErrUnauthorized is returned when authentication is missing or invalid
	ErrUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrTooLarge is returned when a request body exceeds its limit
	ErrTooLarge ErrorCode = "TOO_LARGE"
	// ErrRateLimited is returned when a client exceeds its request budget
	ErrRateLimited ErrorCode = "RATE_LIMITED"
	// ErrStorageError is returned when a storage operation fails
	ErrStorageError ErrorCode = "STORAGE_ERROR"
	// ErrInternal is returned when an unexpected server error occurs
	ErrInternal ErrorCode = "INTERNAL_ERROR"
)

// ErrorWithStatus is an error that includes an HTTP status code and error code.
type ErrorWithStatus interface {
	Error() string
	StatusCode() int
	Code() ErrorCode
	Message() string
	Details() map[string]any
}

// APIError is a concrete error type with status code, code, and optional details.
//
// Message is what the client sees; Error also includes the wrapped cause and
// is meant for logs.
type APIError struct {
	statusCode int
	code       ErrorCode
	message    string
	details    map[string]any
	wrappedErr error
}

// NewAPIError creates a new APIError with the given status code and message.
func NewAPIError(statusCode int, code ErrorCode, message string) *APIError {
	return &APIError{
		statusCode: statusCode,
		code:       code,
		message:    message,
		details:    make(map[string]any),
	}
}

// WithDetail adds a single detail to the error.
func (e *APIError) WithDetail(key string, value any) *APIError {
	if e.details == nil {
		e.details = make(map[string]any)
	}
	e.details[key] = value
	return e
}

// Wrap wraps an underlying error.
func (e *APIError) Wrap(err error) *APIError {
	e.wrappedErr = err
	return e
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.wrappedErr != nil {
		return fmt.Sprintf("%s: %v", e.message, e.wrappedErr)
	}
	return e.message
}

// Message returns the client facing message.
func (e *APIError) Message() string {
	return e.message
}

// StatusCode returns the HTTP status code.
func (e *APIError) StatusCode() int {
	return e.statusCode
}

// Code returns the error code.
func (e *APIError) Code() ErrorCode {
	return e.code
}

// Details returns additional error details.
func (e *APIError) Details() map[string]any {
	return e.details
}

// Unwrap returns the wrapped error if any.
func (e *APIError) Unwrap() error {
	return e.wrappedErr
}

// domainErrors lists the status and code of each domain sentinel, in match
// order.
var domainErrors = []struct {
	err    error
	status int
	code   ErrorCode
}{
	{models.ErrInvalidCollection, http.StatusBadRequest, ErrInvalidCollection},
	{models.ErrInvalidDocument, http.StatusBadRequest, ErrValidationFailed},
	{models.ErrNotFound, http.StatusNotFound, ErrNotFound},
	{models.ErrUnauthorized, http.StatusUnauthorized, ErrUnauthorized},
	{models.ErrRejected, http.StatusBadRequest, ErrRejected},
}

// FromError maps a domain error to an API error.
//
// An ErrorWithStatus is returned as is. Storage failures keep only their
// operation name in the message so file system paths never reach a client.
func FromError(err error) ErrorWithStatus {
	var ews ErrorWithStatus
	if errors.As(err, &ews) {
		return ews
	}
	for _, d := range domainErrors {
		if errors.Is(err, d.err) {
			return NewAPIError(d.status, d.code, err.Error()).Wrap(err)
		}
	}
	if errors.Is(err, models.ErrStorage) {
		return NewAPIError(http.StatusInternalServerError, ErrStorageError, models.PublicMessage(err)).Wrap(err)
	}
	return Internal("internal error").Wrap(err)
}

// Predefined error constructors for common cases

// NotFound creates a 404 Not Found error.
func NotFound(resource string) *APIError {
	return NewAPIError(http.StatusNotFound, ErrNotFound, fmt.Sprintf("%s not found", resource))
}

// BadRequest creates a 400 Bad Request error.
func BadRequest(message string) *APIError {
	return NewAPIError(http.StatusBadRequest, ErrValidationFailed, message)
}

// Unauthorized returns a 401 Unauthorized error.
func Unauthorized() *APIError {
	return NewAPIError(http.StatusUnauthorized, ErrUnauthorized, "Unauthorized")
}

// TooLarge returns a 413 error for a body over limit bytes.
func TooLarge(limit int64) *APIError {
	return NewAPIError(http.StatusRequestEntityTooLarge, ErrTooLarge, fmt.Sprintf("request body exceeds %d bytes", limit))
}

// TooManyRequests returns a 429 error.
func TooManyRequests() *APIError {
	return NewAPIError(http.StatusTooManyRequests, ErrRateLimited, "too many requests")
}

// Internal returns a 500 Internal Server Error.
func Internal(message string) *APIError {
	return NewAPIError(http.StatusInternalServerError, ErrInternal, message)
}
