package services

import (
	"errors"
	"fmt"
)

// Error kinds reported by board operations. Handlers map them to HTTP statuses.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInternal     = errors.New("internal error")
)

// Error carries a kind, a message that is safe to show to clients and the underlying cause.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Is(target error) bool { return target == e.Kind }

func (e *Error) Unwrap() error { return e.Err }

// Message returns the client-facing text of err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return "internal error"
}

func notFound(msg string) error { return &Error{Kind: ErrNotFound, Msg: msg} }

func forbidden(msg string) error { return &Error{Kind: ErrForbidden, Msg: msg} }

func invalid(format string, args ...interface{}) error {
	return &Error{Kind: ErrValidation, Msg: fmt.Sprintf(format, args...)}
}

func internal(msg string, cause error) error {
	return &Error{Kind: ErrInternal, Msg: msg, Err: cause}
}
