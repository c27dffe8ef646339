package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for API consumers
type Kind string

const (
	KindValidation    Kind = "validation"
	KindStateConflict Kind = "state_conflict"
	KindNotFound      Kind = "not_found"
	KindForbidden     Kind = "forbidden"
	KindInternal      Kind = "internal"
)

// Error is a domain error carrying a machine-readable kind and the offending field, if any.
type Error struct {
	Kind    Kind
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation reports malformed or semantically invalid input
func Validation(field, format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: fmt.Sprintf(format, args...)}
}

// Conflict reports an entity that is not in the state the operation requires
func Conflict(format string, args ...interface{}) *Error {
	return &Error{Kind: KindStateConflict, Field: "estado", Message: fmt.Sprintf(format, args...)}
}

// NotFound reports a referenced entity that does not exist
func NotFound(entity string, id interface{}) *Error {
	return &Error{Kind: KindNotFound, Field: "id", Message: fmt.Sprintf("%s %v no existe", entity, id)}
}

// Forbidden reports an actor lacking the role or relationship for an operation
func Forbidden(format string, args ...interface{}) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first *Error in the chain, KindInternal otherwise
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps an error kind to its HTTP status code
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindStateConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
