// Package dto defines API request/response types and error handling.
//
// Every failure reaches the client as an ErrorResponse whose code is one of
// the ErrorCode values below. Handlers return *APIError built by the
// constructors in this file; the server wrapper turns it into JSON.
package dto

import (
	"net/http"
)

// ErrorCode defines specific error types for the API.
type ErrorCode string

const (
	// ErrorCodeValidationFailed is returned for malformed request bodies.
	ErrorCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	// ErrorCodeMissingField is returned when path or body is absent.
	ErrorCodeMissingField ErrorCode = "MISSING_FIELD"
	// ErrorCodeInvalidIdentifier is returned in strict mode for a rejected
	// page identifier.
	ErrorCodeInvalidIdentifier ErrorCode = "INVALID_IDENTIFIER"
	// ErrorCodePageNotFound is returned when deleting a page that is not
	// stored.
	ErrorCodePageNotFound ErrorCode = "PAGE_NOT_FOUND"
	// ErrorCodeStorageError is returned when the filesystem refused an
	// operation.
	ErrorCodeStorageError ErrorCode = "STORAGE_ERROR"
	// ErrorCodePartialArtifact is returned when a page source was stored but
	// its rendering was not.
	ErrorCodePartialArtifact ErrorCode = "PARTIAL_ARTIFACT_FAILURE"
	// ErrorCodeInternal is returned for failures not produced by storage.
	ErrorCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrorCodePayloadTooLarge is returned when the request body exceeds
	// max_request_body_bytes.
	ErrorCodePayloadTooLarge ErrorCode = "PAYLOAD_TOO_LARGE"
	// ErrorCodeRateLimitExceeded is returned when a client exhausted its
	// bucket.
	ErrorCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
)

// ErrorDetails defines the structured error information in a response.
type ErrorDetails struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// ErrorResponse is the standard API error response.
type ErrorResponse struct {
	Error   ErrorDetails   `json:"error"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorWithStatus is an error that includes an HTTP status code and error code.
type ErrorWithStatus interface {
	Error() string
	StatusCode() int
	Code() ErrorCode
	Details() map[string]any
}

// APIError is an error reported to the client.
//
// The message is sent as is; it must never hold filesystem paths.
type APIError struct {
	statusCode int
	code       ErrorCode
	message    string
	details    map[string]any
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

func (e *APIError) Error() string {
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

// BadRequest creates a 400 error for a body that cannot be read or decoded.
func BadRequest(message string) *APIError {
	return NewAPIError(http.StatusBadRequest, ErrorCodeValidationFailed, message)
}

// MissingField creates a 400 Bad Request error for a missing field.
func MissingField(fieldName string) *APIError {
	return NewAPIError(http.StatusBadRequest, ErrorCodeMissingField, "Missing required field: "+fieldName).
		WithDetail("field", fieldName)
}

// Internal creates a 500 error for failures that carry no status of their own.
func Internal(message string) *APIError {
	return NewAPIError(http.StatusInternalServerError, ErrorCodeInternal, message)
}

// PageNotFound creates a 404 error for the page id.
func PageNotFound(id string) *APIError {
	return NewAPIError(http.StatusNotFound, ErrorCodePageNotFound, "page not found").WithDetail("path", id)
}

// InvalidIdentifier creates a 400 error for a page id rejected in strict mode.
func InvalidIdentifier(id string) *APIError {
	return NewAPIError(http.StatusBadRequest, ErrorCodeInvalidIdentifier, "invalid page identifier").WithDetail("path", id)
}

// PartialArtifact creates a 500 error for a page whose source was stored but
// whose rendering was not.
func PartialArtifact(id string) *APIError {
	return NewAPIError(http.StatusInternalServerError, ErrorCodePartialArtifact, "page source saved but rendering failed").WithDetail("path", id)
}

// StorageError creates a 500 error for any other filesystem failure on id.
func StorageError(id string) *APIError {
	return NewAPIError(http.StatusInternalServerError, ErrorCodeStorageError, "storage error").WithDetail("path", id)
}

// PayloadTooLarge creates a 413 error for request bodies over limit bytes.
func PayloadTooLarge(limit int64) *APIError {
	return NewAPIError(http.StatusRequestEntityTooLarge, ErrorCodePayloadTooLarge, "Request body too large").
		WithDetail("limit_bytes", limit)
}

// RateLimitExceeded creates a 429 error.
func RateLimitExceeded(retryAfterSeconds int) *APIError {
	return NewAPIError(http.StatusTooManyRequests, ErrorCodeRateLimitExceeded, "Rate limit exceeded").
		WithDetail("retry_after", retryAfterSeconds)
}
