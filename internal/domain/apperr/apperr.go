// Package apperr classifies failures so the HTTP boundary can map them to a
// status code and a message that is safe to show the caller.
package apperr

import (
	"errors"
	"net/http"
)

// Kind is the category of an Error.
type Kind int

const (
	// Internal covers anything not classified below. It is also the zero value.
	Internal Kind = iota
	Validation
	NotFound
	Unauthorized
	Forbidden
	Conflict
	Upstream
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case NotFound:
		return "not_found"
	case Unauthorized:
		return "unauthorized"
	case Forbidden:
		return "forbidden"
	case Conflict:
		return "conflict"
	case Upstream:
		return "upstream"
	}
	return "internal"
}

// Status returns the HTTP status code for k.
func (k Kind) Status() int {
	switch k {
	case Validation:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case Conflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// Error carries a Kind, a client-safe message and an optional cause.
// The cause is never shown to the client.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Kind.String() + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Kind.String() + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an Error of kind k with msg and no cause.
func New(k Kind, msg string) *Error {
	return &Error{Kind: k, Message: msg}
}

// Wrap returns an Error of kind k with msg wrapping cause.
func Wrap(k Kind, msg string, cause error) *Error {
	return &Error{Kind: k, Message: msg, Err: cause}
}

// Invalid is shorthand for a Validation error.
func Invalid(msg string) *Error { return New(Validation, msg) }

// Missing is shorthand for a NotFound error.
func Missing(msg string) *Error { return New(NotFound, msg) }

// KindOf returns the Kind of the first *Error in err's chain, or Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err is an *Error of kind k.
func Is(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

// PublicMessage is the text a client may see for err. Internal and Upstream
// errors always collapse to a generic message.
func PublicMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return "internal error"
	}
	switch e.Kind {
	case Internal, Upstream:
		return "internal error"
	}
	return e.Message
}
