package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for callers and for the HTTP status mapping.
type Kind int

const (
	Internal Kind = iota
	Validation
	Unauthorized
	Forbidden
	NotFound
	Conflict
	Inconsistency
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Unauthorized:
		return "unauthorized"
	case Forbidden:
		return "forbidden"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case Inconsistency:
		return "inconsistency"
	default:
		return "internal"
	}
}

// Error is the typed error returned by services.
type Error struct {
	Kind Kind
	// Op is the operation that failed, e.g. "posts.delete".
	Op string
	// Step names the sub-step of a cascading operation that failed.
	Step string
	// Msg is safe to show to end users for user-fixable kinds.
	Msg string
	Err error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	switch {
	case e.Step != "" && e.Err != nil && e.Msg != "":
		return fmt.Sprintf("%s [%s]: %s: %v", e.Op, e.Step, msg, e.Err)
	case e.Step != "":
		return fmt.Sprintf("%s [%s]: %s", e.Op, e.Step, msg)
	case e.Err != nil && e.Msg != "":
		return fmt.Sprintf("%s: %s: %v", e.Op, msg, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Op, msg)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an error of the given kind with a user-facing message.
func New(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

// Wrap attaches a kind and operation to err.
func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// AtStep returns a copy of e that names the failed sub-step.
func (e *Error) AtStep(step string) *Error {
	c := *e
	c.Step = step
	return &c
}

// KindOf reports the kind of err. Untyped errors are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// StepOf reports the failed sub-step recorded on err, if any.
func StepOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Step
	}
	return ""
}

// Status maps a kind to an HTTP status code.
func Status(kind Kind) int {
	switch kind {
	case Validation:
		return http.StatusBadRequest
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Public returns the message that may be shown to the requester. Storage and
// blob-store details never leave the process.
func Public(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return "Internal Server Error"
	}
	switch e.Kind {
	case Validation, Unauthorized, Forbidden, NotFound, Conflict:
		if e.Msg != "" {
			return e.Msg
		}
		return e.Kind.String()
	default:
		return "Internal Server Error"
	}
}
