package apperrors

import (
	"errors"
	"strings"
)

// Common errors
var (
	// Resource errors
	ErrResourceNotFound = errors.New("resource not found")
	ErrExamNotFound     = errors.New("exam not found")
	// ErrExamFileNotFound means the exam row exists but the referenced
	// local file is missing from disk. Kept distinct from ErrExamNotFound
	// so clients can tell which lookup failed.
	ErrExamFileNotFound = errors.New("exam file not found in storage")

	// Authentication errors
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("invalid token")

	// Authorization errors
	ErrPermissionDenied = errors.New("permission denied")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")

	// Storage errors
	ErrMalformedReference = errors.New("malformed remote file reference")
	ErrStorageBackend     = errors.New("storage backend failure")
)

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Details map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// NewValidationError creates a validation error naming the offending fields.
func NewValidationError(fields ...string) error {
	return &CustomError{
		Err:     ErrValidationFailed,
		Message: "missing or empty required fields: " + strings.Join(fields, ", "),
		Details: map[string]interface{}{"fields": fields},
	}
}

// NewStorageBackendError wraps a blob store or signing failure.
func NewStorageBackendError(cause error, message string) error {
	return &CustomError{
		Err:     ErrStorageBackend,
		Message: message,
		Details: map[string]interface{}{"cause": cause.Error()},
	}
}
