// Package apperrors defines the error taxonomy returned by the invitation orchestrators.
package apperrors

import (
	"errors"
	"net/http"
)

// Kind is a machine-readable failure category.
type Kind string

const (
	// KindNotFound means a referenced entity is absent upstream or locally.
	KindNotFound Kind = "NOT_FOUND"
	// KindForbidden means an authorization or permission check failed.
	KindForbidden Kind = "FORBIDDEN"
	// KindInvalidInput means a malformed role, action or request shape.
	KindInvalidInput Kind = "INVALID_INPUT"
	// KindConflict means a uniqueness or already-active-membership violation.
	KindConflict Kind = "CONFLICT"
	// KindUpstreamUnavailable means a gateway was unreachable, timed out or answered non-2xx.
	KindUpstreamUnavailable Kind = "UPSTREAM_UNAVAILABLE"
	// KindInternal means a local mutation or invariant failure after validation passed.
	KindInternal Kind = "INTERNAL"
)

// HTTPStatus maps a kind to the status code of the inbound API.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindUpstreamUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error is a typed failure carrying a user-facing message and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an error of the given kind with an underlying cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the kind from any error. Unknown errors are KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the user-facing message of err, or a generic one for unknown errors.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}
