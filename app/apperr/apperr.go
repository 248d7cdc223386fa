// Package apperr defines the domain error taxonomy shared by services and
// controllers. Errors carry a Kind; callers match with errors.Is against the
// exported sentinels and translate to transport codes with Status.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies a domain failure.
type Kind uint8

const (
	KindInternal Kind = iota
	KindNotFound
	KindInsufficientStock
	KindInvalidInput
	KindConflict
	KindUnauthorized
	KindForbidden
	KindDuplicate
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInsufficientStock:
		return "insufficient_stock"
	case KindInvalidInput:
		return "invalid_input"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindDuplicate:
		return "duplicate"
	default:
		return "internal"
	}
}

// Error is a classified domain error. Message is safe to show to clients;
// Err is the underlying cause and is never rendered.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		if e.Message == "" {
			return e.Err.Error()
		}
		return e.Message + ": " + e.Err.Error()
	}
	if e.Message == "" {
		return e.Kind.String()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind, so errors.Is(err, apperr.ErrNotFound)
// holds for every not-found error regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrInsufficientStock = &Error{Kind: KindInsufficientStock}
	ErrInvalidInput      = &Error{Kind: KindInvalidInput}
	ErrConflict          = &Error{Kind: KindConflict}
	ErrUnauthorized      = &Error{Kind: KindUnauthorized}
	ErrForbidden         = &Error{Kind: KindForbidden}
	ErrDuplicate         = &Error{Kind: KindDuplicate}
	ErrInternal          = &Error{Kind: KindInternal}
)

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a kind and client message to cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

func NotFound(message string) *Error          { return New(KindNotFound, message) }
func InsufficientStock(message string) *Error { return New(KindInsufficientStock, message) }
func InvalidInput(message string) *Error      { return New(KindInvalidInput, message) }
func Conflict(message string) *Error          { return New(KindConflict, message) }
func Unauthorized(message string) *Error      { return New(KindUnauthorized, message) }
func Duplicate(message string) *Error         { return New(KindDuplicate, message) }

// Internal wraps an unexpected infrastructure failure.
func Internal(cause error) *Error {
	return Wrap(KindInternal, "Internal Server Error", cause)
}

// KindOf returns the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message returns the client-facing message for err. Unclassified errors
// never leak their text.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return http.StatusText(Status(err))
}

// Status maps err to an HTTP status code.
func Status(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindInsufficientStock, KindInvalidInput, KindDuplicate:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
