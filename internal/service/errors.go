package service

import "fmt"

// ErrorKind classifies a service failure for the transport layer. Every
// public operation returns either a payload or exactly one of these kinds.
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindAuth
	KindNotFound
	KindConflict
	KindExpired
	KindPayment
	KindInternal
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindExpired:
		return "expired"
	case KindPayment:
		return "payment"
	default:
		return "internal"
	}
}

type Error struct {
	Kind    ErrorKind
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

func newError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func wrapError(kind ErrorKind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func ErrValidation(msg string) *Error { return newError(KindValidation, msg) }
func ErrAuth(msg string) *Error       { return newError(KindAuth, msg) }
func ErrNotFound(msg string) *Error   { return newError(KindNotFound, msg) }
func ErrConflict(msg string) *Error   { return newError(KindConflict, msg) }
func ErrExpired(msg string) *Error    { return newError(KindExpired, msg) }

func ErrPayment(err error) *Error {
	return wrapError(KindPayment, "failed to create payment intent", err)
}

func ErrInternal(err error) *Error {
	return wrapError(KindInternal, "internal error", err)
}
