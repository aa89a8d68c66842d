// Package errors provides structured error types for the Gantry engine.
//
// Errors carry a machine-readable [Code] alongside the human-readable
// message, so the CLI, the repository server, and request summaries can
// branch on failure category without string matching. Wrapping preserves
// the cause chain for errors.Is and errors.As.
//
// # Error Codes
//
// Codes follow the engine's failure taxonomy:
//   - RESOLUTION_* / PACKAGE_NOT_FOUND: descriptor lookup and closure failures
//   - UNORDERABLE: ordering could not place every package
//   - ATTACH_* / ACTIVATION_*: per-package install step failures
//   - TRANSFER_* / RATE_LIMITED: transport failures
//
// None of these codes is fatal to the engine: resolution failures skip the
// entry, ordering failures report a residual, install failures settle the
// package's task, and transfer failures abort a single asset batch.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeResolution, "cannot resolve %q", name)
//	if errors.Is(err, errors.ErrCodeResolution) {
//	    // Handle resolution failure
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeRepoUnreachable, origErr, "failed to fetch %s", url)
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
	ErrCodeInvalidInput      Code = "INVALID_INPUT"
	ErrCodeInvalidRef        Code = "INVALID_REF"
	ErrCodeInvalidDescriptor Code = "MALFORMED_DESCRIPTOR"
	ErrCodeInvalidManifest   Code = "INVALID_MANIFEST"

	// Resolution errors (skip the entry, keep resolving)
	ErrCodeResolution      Code = "RESOLUTION_FAILED"
	ErrCodePackageNotFound Code = "PACKAGE_NOT_FOUND"
	ErrCodeRepoUnreachable Code = "REPOSITORY_UNREACHABLE"

	// Ordering errors (residual reported, ordered prefix proceeds)
	ErrCodeUnorderable Code = "UNORDERABLE"

	// Install errors (contained within one package's task)
	ErrCodeInstall    Code = "INSTALL_FAILED"
	ErrCodeAttach     Code = "ATTACH_FAILED"
	ErrCodeActivation Code = "ACTIVATION_FAILED"

	// Transport errors
	ErrCodeTransfer    Code = "TRANSFER_FAILED"
	ErrCodeRateLimited Code = "RATE_LIMITED"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Authentication errors
	ErrCodeUnauthorized Code = "UNAUTHORIZED"
	ErrCodeForbidden    Code = "FORBIDDEN"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error renders "CODE: message" with the cause appended when present.
func (e *Error) Error() string {
	s := string(e.Code) + ": " + e.Message
	if e.Cause != nil {
		s += ": " + e.Cause.Error()
	}
	return s
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error { return e.Cause }

// New creates an Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error that records cause and carries a formatted message.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Coder is implemented by error types outside this package that carry a
// stable code.
type Coder interface {
	Code() Code
}

// GetCode extracts the code carried by err: the Code field of the first
// *Error in the chain, or the [Coder] result of the first implementor.
// Returns the empty string when the chain carries no code.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var c Coder
	if errors.As(err, &c) {
		return c.Code()
	}
	return ""
}

// Is reports whether some error in the chain carries code.
func Is(err error, code Code) bool {
	if code == "" {
		return false
	}
	return GetCode(err) == code
}

// UserMessage returns the message of the first *Error in the chain, without
// the code prefix. For other errors it returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// RateLimitedError reports a rate-limited response and how long the server
// asked the client to back off.
type RateLimitedError struct {
	RetryAfter int // Seconds to wait before retrying
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter <= 0 {
		return "rate limited"
	}
	return fmt.Sprintf("rate limited: retry after %d seconds", e.RetryAfter)
}

// Code marks the error as RATE_LIMITED for [GetCode].
func (e *RateLimitedError) Code() Code { return ErrCodeRateLimited }
