// Package errs provides the error type shared by every layer of schemadrift.
//
// The database driver, the reference sources and the HTTP server wrap their
// native errors into *errs.Error. Callers branch on the kind through the Is*
// predicates and never import pgx or minio to do so.
//
// Usage:
//
//	// In a driver:
//	return errs.Wrap(errs.ErrKindTimeout, "columns query timed out", pgErr)
//
//	// In the CLI:
//	if errs.IsNotFound(err) {
//	    fmt.Fprintf(stdout, "Error: %s\n", errs.MessageOf(err))
//	}
package errs

import (
	"errors"
	"fmt"
)

// ErrKind categorises an error without exposing backend-specific codes.
type ErrKind int

const (
	ErrKindUnknown          ErrKind = iota
	ErrKindNotFound                 // no reference file, no object, no bucket
	ErrKindConnectionFailed         // cannot reach or authenticate to the backend
	ErrKindTimeout                  // context deadline / cancellation
	ErrKindQueryFailed              // catalog query or storage read failed
	ErrKindInvalidInput             // bad arguments from the caller (e.g. unknown table)
	ErrKindPermissionDenied         // access denied
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindNotFound:
		return "not_found"
	case ErrKindConnectionFailed:
		return "connection_failed"
	case ErrKindTimeout:
		return "timeout"
	case ErrKindQueryFailed:
		return "query_failed"
	case ErrKindInvalidInput:
		return "invalid_input"
	case ErrKindPermissionDenied:
		return "permission_denied"
	default:
		return "unknown"
	}
}

// Error is the single error type returned across schemadrift.
type Error struct {
	Kind    ErrKind
	Message string
	Cause   error // original driver-level error, preserved for logging
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is / errors.As to traverse the cause chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an *Error with the given kind and message and no cause.
func New(kind ErrKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap creates an *Error with the given kind, message, and an underlying cause.
func Wrap(kind ErrKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// IsNotFound reports whether err represents a missing reference file or object.
func IsNotFound(err error) bool {
	return KindOf(err) == ErrKindNotFound
}

// IsTimeout reports whether err was caused by a deadline or context cancellation.
func IsTimeout(err error) bool {
	return KindOf(err) == ErrKindTimeout
}

// IsConnectionFailed reports whether err is a connectivity or auth failure.
func IsConnectionFailed(err error) bool {
	return KindOf(err) == ErrKindConnectionFailed
}

// IsInvalidInput reports whether err was caused by bad input from the caller.
func IsInvalidInput(err error) bool {
	return KindOf(err) == ErrKindInvalidInput
}

// IsPermissionDenied reports whether err is an access control failure.
func IsPermissionDenied(err error) bool {
	return KindOf(err) == ErrKindPermissionDenied
}

// KindOf extracts the ErrKind from the first *Error in the chain.
func KindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindUnknown
}

// MessageOf returns the human-readable message of the first *Error in the
// chain, without the kind prefix or cause. Other errors return err.Error().
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
