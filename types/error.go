package types

import "fmt"

// ErrorCode represents a unified error code across the memory subsystem.
type ErrorCode string

// Validation error codes. These indicate a programming or data-integrity
// bug and are always surfaced synchronously to the caller.
const (
	ErrMalformedObservation ErrorCode = "MALFORMED_OBSERVATION"
	ErrInvalidSourceConfig  ErrorCode = "INVALID_SOURCE_CONFIG"
	ErrDanglingRelation     ErrorCode = "DANGLING_RELATION"
)

// Lookup error codes. Batch operations collect these per item and return a
// partial-success report instead of aborting.
const (
	ErrEntityNotFound  ErrorCode = "ENTITY_NOT_FOUND"
	ErrEntityArchived  ErrorCode = "ENTITY_ARCHIVED"
	ErrEntityExists    ErrorCode = "ENTITY_EXISTS"
	ErrArchiveNotFound ErrorCode = "ARCHIVE_NOT_FOUND"
)

// Concurrency and I/O error codes. I/O errors additionally guarantee the
// store was not mutated by the failed call.
const (
	ErrArchiveInProgress ErrorCode = "ARCHIVE_IN_PROGRESS"
	ErrSyncIO            ErrorCode = "SYNC_IO"
	ErrSyncTimeout       ErrorCode = "SYNC_TIMEOUT"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Entity    string    `json:"entity,omitempty"`
	Retryable bool      `json:"retryable"`
	Cause     error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Cause != nil && e.Entity != "":
		return fmt.Sprintf("[%s] %s (entity %q): %v", e.Code, e.Message, e.Entity, e.Cause)
	case e.Cause != nil:
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	case e.Entity != "":
		return fmt.Sprintf("[%s] %s (entity %q)", e.Code, e.Message, e.Entity)
	default:
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Errorf creates a new Error with a formatted message.
func Errorf(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithEntity records the entity name the error relates to.
func (e *Error) WithEntity(name string) *Error {
	e.Entity = name
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return GetErrorCode(err) == code
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Retryable
	}
	return false
}
