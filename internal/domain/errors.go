package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a domain error into the closed set of failures the API
// can surface. Store-specific errors are mapped to a Kind at the repository
// boundary and never travel further up.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindConflict
	KindUnauthorized
	KindBadRequest
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindBadRequest:
		return "bad_request"
	default:
		return "internal"
	}
}

// HTTPStatus maps an error kind to its response status code.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error is a tagged domain error. Wrapped causes are kept for logging but
// only Kind and Message are exposed at the HTTP boundary.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

func E(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// KindOf extracts the kind from err, defaulting to internal for anything
// that is not a domain error.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// MessageOf returns the safe, user-facing message for err. Non-domain
// errors degrade to a generic message so store internals never leak.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal server error"
}

var (
	ErrUserNotFound       = E(KindNotFound, "user not found")
	ErrBoardGameNotFound  = E(KindNotFound, "board game not found")
	ErrDuplicateUser      = E(KindConflict, "a user with this email already exists")
	ErrDuplicateBoardGame = E(KindConflict, "a board game with this name already exists")
	ErrInvalidCredentials = E(KindUnauthorized, "invalid credentials")
	ErrInvalidAPIKey      = E(KindUnauthorized, "invalid api key")
)
