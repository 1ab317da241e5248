package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies a failed operation. Every validation and lookup in the
// registry core fails with exactly one of these kinds; handlers translate
// the kind to an HTTP status.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindInvalidArgument
	KindForbidden
	KindConflict
)

// Error is a classified, user-presentable error
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// NotFound reports a missing entity or a failed existence predicate
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// InvalidArgument reports a violated structural or cross-entity invariant
func InvalidArgument(message string) *Error {
	return &Error{Kind: KindInvalidArgument, Message: message}
}

// Forbidden reports a missing root grant or administrative privilege
func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

// Conflict reports a uniqueness or deletion-dependency violation
func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// KindOf returns the kind of err, or KindUnknown for unclassified errors
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

// HTTPStatus maps an error kind to the HTTP status the API exposes
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidArgument:
		return http.StatusUnprocessableEntity
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
