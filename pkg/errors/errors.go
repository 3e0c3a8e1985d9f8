// Package errors provides structured error types for the seqgen application.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and library surfaces
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages naming the offending argument
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Generation failures map one-to-one onto the validation performed at the
// compositor/augmenter entry points:
//   - INVALID_*: input validation failures (label, range, width, style)
//   - BACKGROUND_EXHAUSTED: the background dataset cannot supply a crop
//   - DATASET_*: glyph/background dataset loading failures
//   - INTERNAL_ERROR: unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidWidth, "target width must be positive, got %d", w)
//	if errors.Is(err, errors.ErrCodeInvalidWidth) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeDatasetCorrupt, origErr, "decode %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeInvalidLabel Code = "INVALID_LABEL"
	ErrCodeInvalidRange Code = "INVALID_RANGE"
	ErrCodeInvalidWidth Code = "INVALID_WIDTH"

	// Augmentation errors
	ErrCodeUnsupportedStyle      Code = "UNSUPPORTED_STYLE"
	ErrCodeBackgroundExhausted   Code = "BACKGROUND_EXHAUSTED"
	ErrCodeBackgroundUnavailable Code = "BACKGROUND_UNAVAILABLE"

	// Dataset errors
	ErrCodeDatasetNotFound Code = "DATASET_NOT_FOUND"
	ErrCodeDatasetCorrupt  Code = "DATASET_CORRUPT"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
