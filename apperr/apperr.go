// Package apperr defines the error taxonomy every handler maps its failures
// onto before responding. One type carries a classification tag and a
// human-readable message; the tag alone decides the HTTP status.
package apperr

import "net/http"

type Kind string

const (
	KindInvalidInput    Kind = "invalid_input"
	KindNotFound        Kind = "not_found"
	KindForbidden       Kind = "forbidden"
	KindUnauthenticated Kind = "unauthenticated"
	KindConflict        Kind = "conflict"
	KindInternal        Kind = "internal"
)

var statusByKind = map[Kind]int{
	KindInvalidInput:    http.StatusBadRequest,
	KindNotFound:        http.StatusNotFound,
	KindForbidden:       http.StatusForbidden,
	KindUnauthenticated: http.StatusUnauthorized,
	KindConflict:        http.StatusConflict,
	KindInternal:        http.StatusInternalServerError,
}

// Error is the one classified error shape crossing operation boundaries.
type Error struct {
	Kind    Kind   `json:"code"`
	Message string `json:"error"`
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// Status returns the HTTP status for the error's classification.
func (e *Error) Status() int {
	if s, ok := statusByKind[e.Kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

func Invalid(msg string) *Error {
	return &Error{Kind: KindInvalidInput, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func Unauthenticated(msg string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: msg}
}

func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

func Internal(msg string) *Error {
	return &Error{Kind: KindInternal, Message: msg}
}
