package model

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by stores when a referenced row does not exist.
var ErrNotFound = errors.New("not found")

// ErrorKind classifies failures that are reported back to the caller.
type ErrorKind int

const (
	KindNotFound ErrorKind = iota + 1
	KindConflict
	KindUnauthorized
	KindValidation
	KindForbidden
	KindTooManyRequests
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindValidation:
		return "validation"
	case KindForbidden:
		return "forbidden"
	case KindTooManyRequests:
		return "too_many_requests"
	default:
		return "unknown"
	}
}

// Error is a user-visible failure with a human-readable message.
type Error struct {
	Kind    ErrorKind
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

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NewNotFound(format string, args ...any) *Error {
	return newError(KindNotFound, format, args...)
}

func NewConflict(format string, args ...any) *Error {
	return newError(KindConflict, format, args...)
}

func NewUnauthorized(format string, args ...any) *Error {
	return newError(KindUnauthorized, format, args...)
}

func NewValidation(format string, args ...any) *Error {
	return newError(KindValidation, format, args...)
}

func NewForbidden(format string, args ...any) *Error {
	return newError(KindForbidden, format, args...)
}

func NewTooManyRequests(format string, args ...any) *Error {
	return newError(KindTooManyRequests, format, args...)
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// UserNotFound is the canonical error for an unknown user id.
func UserNotFound(userID int64) *Error {
	return NewNotFound("User with id %d not found", userID)
}

// MyListNotFound is the canonical error for an unknown list id.
func MyListNotFound(listID int64) *Error {
	return NewNotFound("Mylist with id %d not found", listID)
}
