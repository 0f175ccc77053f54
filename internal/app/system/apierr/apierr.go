// Package apierr defines the request-level error taxonomy.
//
// Stores and features return these instead of raw mongo errors so the HTTP
// boundary can map every failure to a status code and envelope in one place.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a request failure.
type Kind int

const (
	// KindServer is an unexpected datastore or internal failure.
	KindServer Kind = iota
	// KindNotFound means a referenced entity does not exist.
	KindNotFound
	// KindInvalidTransition means a status precondition was violated.
	KindInvalidTransition
	// KindUnauthorized means the actor may not perform this action.
	KindUnauthorized
	// KindDuplicate means the action was already performed (repeat feedback,
	// report, or volunteer registration).
	KindDuplicate
	// KindValidation means required input was missing or malformed.
	KindValidation
)

// Error carries a kind plus a human-readable message for the envelope.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// NotFound builds a KindNotFound error.
func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// InvalidTransition builds a KindInvalidTransition error.
func InvalidTransition(msg string) *Error {
	return &Error{Kind: KindInvalidTransition, Message: msg}
}

// Unauthorized builds a KindUnauthorized error.
func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

// Duplicate builds a KindDuplicate error.
func Duplicate(msg string) *Error {
	return &Error{Kind: KindDuplicate, Message: msg}
}

// Invalid builds a KindValidation error.
func Invalid(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// Server wraps an unexpected failure with a caller-facing message.
func Server(msg string, err error) *Error {
	return &Error{Kind: KindServer, Message: msg, Err: err}
}

// KindOf extracts the kind from err, defaulting to KindServer.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindServer
}

// MessageOf extracts the caller-facing message from err. Unexpected errors
// get a generic message so internals never leak into the envelope.
func MessageOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return "an unexpected error occurred"
}

// HTTPStatus maps an error to the response status code. Precondition,
// duplicate, and validation failures all surface as 400 to match the
// original API contract.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusForbidden
	case KindInvalidTransition, KindDuplicate, KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
