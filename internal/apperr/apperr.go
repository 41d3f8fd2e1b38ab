// Package apperr defines the error taxonomy shared by all entry points.
// Callers classify failures with errors.As / the Is* helpers and decide
// how to surface them (exit code, HTTP status, bot reply).
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for caller-side handling.
type Kind int

const (
	// Validation marks malformed or out-of-vocabulary input. Never retried.
	Validation Kind = iota
	// NotFound marks an unknown or ambiguous entity reference.
	NotFound
	// Conflict marks an operation rejected by exclusive-custody rules,
	// e.g. claiming a task that already has an open claim.
	Conflict
	// Internal marks store or infrastructure failures.
	Internal
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error carries a kind, a short user-facing message, and an optional
// underlying cause for logs.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("[%s] %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Kind, e.Msg, e.Err.Error())
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf creates an Error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error of the given kind wrapping an underlying cause.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the kind from err, defaulting to Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return is(err, Validation) }

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return is(err, NotFound) }

// IsConflict reports whether err is a conflict error.
func IsConflict(err error) bool { return is(err, Conflict) }

func is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
