// Package apierr defines the error taxonomy surfaced to API callers.
//
// Every failure carries a Kind (which decides the HTTP status), a stable
// machine-checkable Code, and one human-readable Message. Validation
// failures that involve several fields also carry every field message.
//
// Errors compare by Code, so a handler or test can write
//
//	errors.Is(err, apierr.ErrMemberAlreadyGrouped)
//
// even when the message was customized with WithMessage.
package apierr

import (
	"errors"
	"net/http"
)

// Kind is the broad category of a failure.
type Kind string

const (
	KindValidation     Kind = "validation"
	KindNotFound       Kind = "not_found"
	KindConflict       Kind = "conflict"
	KindForbidden      Kind = "forbidden"
	KindAuthentication Kind = "authentication"
	KindRateLimited    Kind = "rate_limited"
	KindInternal       Kind = "internal"
)

// Status maps a Kind to its HTTP status code.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindRateLimited:
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

// Error is a caller-facing failure.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Fields  []string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Code + ": " + e.Message + ": " + e.cause.Error()
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches any *Error with the same Code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithMessage returns a copy with a different human-readable message.
func (e *Error) WithMessage(msg string) *Error {
	cp := *e
	cp.Message = msg
	return &cp
}

// WithFields returns a copy carrying per-field messages.
func (e *Error) WithFields(fields []string) *Error {
	cp := *e
	cp.Fields = append([]string(nil), fields...)
	return &cp
}

// Wrap returns a copy that records cause for logging. The cause is never
// shown to the caller.
func (e *Error) Wrap(cause error) *Error {
	cp := *e
	cp.cause = cause
	return &cp
}

func New(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

func Validation(code, msg string) *Error { return New(KindValidation, code, msg) }
func NotFound(code, msg string) *Error   { return New(KindNotFound, code, msg) }
func Conflict(code, msg string) *Error   { return New(KindConflict, code, msg) }
func Forbidden(code, msg string) *Error  { return New(KindForbidden, code, msg) }

// Internal wraps an unexpected infrastructure failure.
func Internal(cause error) *Error {
	return ErrInternal.Wrap(cause)
}

// As extracts an *Error from err. Anything that is not already an *Error is
// reported as an internal failure; it is never guessed to be a not-found or
// a conflict.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}

// KindOf returns the Kind of err (KindInternal for foreign errors).
func KindOf(err error) Kind {
	return As(err).Kind
}
