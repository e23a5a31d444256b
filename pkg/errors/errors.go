// Package errors provides structured error types for nodecanvas.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the HTTP API and the library
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages for host notices
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - VALIDATION_FAILED: Malformed import payloads (see [ValidationError])
//   - UNSUPPORTED_*: Unknown export or import format tags
//   - RESOURCE_*: Host resources that could not be acquired
//   - NOT_FOUND_*: Resource not found
//   - INTERNAL_*: Unexpected internal errors
//
// Graph store mutators never return NOT_FOUND for stale ids; they report
// a boolean instead. The code exists for the host vaults and the HTTP API.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeUnsupportedFormat, "unknown format %q", tag)
//	if errors.Is(err, errors.ErrCodeUnsupportedFormat) {
//	    // Handle unknown format
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeResourceAcquisition, origErr, "acquire drawing context")
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
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidPath   Code = "INVALID_PATH"
	ErrCodeValidation    Code = "VALIDATION_FAILED"

	// Unsupported operations
	ErrCodeUnsupportedFormat Code = "UNSUPPORTED_FORMAT"
	ErrCodeUnsupported       Code = "UNSUPPORTED"

	// Host resources
	ErrCodeResourceAcquisition Code = "RESOURCE_ACQUISITION"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

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

// UnsupportedFormat returns an UNSUPPORTED_FORMAT error for the given tag.
// The operation is "import" or "export".
func UnsupportedFormat(op, tag string) *Error {
	return New(ErrCodeUnsupportedFormat, "%s format %q is not supported", op, tag)
}

// ResourceAcquisition wraps a failure to acquire a host resource such as
// a drawing context.
func ResourceAcquisition(cause error, resource string) *Error {
	return Wrap(ErrCodeResourceAcquisition, cause, "acquire %s", resource)
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error or *ValidationError
// with a matching code.
func Is(err error, code Code) bool {
	return GetCode(err) == code && code != ""
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error carries no code.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ErrCodeValidation
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
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Reason()
	}
	return err.Error()
}
