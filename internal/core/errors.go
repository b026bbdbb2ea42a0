// internal/core/errors.go
package core

import "fmt"

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// Predefined errors
var (
	// Identifier errors
	ErrGenerationExhausted = &Error{Code: "GENERATION_EXHAUSTED", Message: "could not allocate a free paste id"}
	ErrInvalidIdentifier   = &Error{Code: "INVALID_IDENTIFIER", Message: "invalid paste id format"}

	// Storage errors
	ErrNotFound  = &Error{Code: "NOT_FOUND", Message: "paste not found"}
	ErrStorageIO = &Error{Code: "STORAGE_IO", Message: "paste storage failure"}
	ErrStartup   = &Error{Code: "STARTUP_FAILED", Message: "paste storage unavailable"}

	// Request errors
	ErrEmptyPaste    = &Error{Code: "EMPTY_PASTE", Message: "paste content cannot be empty"}
	ErrMissingField  = &Error{Code: "MISSING_FIELD", Message: "missing paste form field"}
	ErrPasteTooLarge = &Error{Code: "PASTE_TOO_LARGE", Message: "paste exceeds the upload limit"}
	ErrBadRequest    = &Error{Code: "BAD_REQUEST", Message: "malformed request"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
)
