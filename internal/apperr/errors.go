package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the caller.
type Kind string

const (
	KindValidation Kind = "validation"
	KindPermission Kind = "permission"
	KindConflict   Kind = "conflict"
	KindNotFound   Kind = "not_found"
)

// Error is a domain error with a kind the transport layer maps to a status.
type Error struct {
	Kind    Kind
	Message string
	// Count is the number of conflicting records, set on some conflicts.
	Count int
}

func (e *Error) Error() string {
	return e.Message
}

// Validation returns a validation error.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Permission returns a permission-denied error for module.action.
func Permission(module, action string) *Error {
	return &Error{
		Kind:    KindPermission,
		Message: fmt.Sprintf("permission denied: %s.%s", module, action),
	}
}

// Denied returns a permission error with a custom message.
func Denied(format string, args ...any) *Error {
	return &Error{Kind: KindPermission, Message: fmt.Sprintf(format, args...)}
}

// Conflict returns a conflict error; count identifies how many records conflict.
func Conflict(count int, format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...), Count: count}
}

// NotFound returns a not-found error for the named entity.
func NotFound(entity string) *Error {
	return &Error{Kind: KindNotFound, Message: entity + " not found"}
}

// KindOf reports the kind of err, or "" when err is not a domain error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err is a domain error of kind k.
func Is(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}
