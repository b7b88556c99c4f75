// Package apperr is the error taxonomy shared by every layer. The HTTP
// boundary maps a Kind to a status code and never inspects messages.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindBadRequest
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
)

var kindNames = map[Kind]string{
	KindInternal:     "internal",
	KindBadRequest:   "bad_request",
	KindValidation:   "validation",
	KindUnauthorized: "unauthorized",
	KindForbidden:    "forbidden",
	KindNotFound:     "not_found",
	KindConflict:     "conflict",
}

var kindStatus = map[Kind]int{
	KindInternal:     http.StatusInternalServerError,
	KindBadRequest:   http.StatusBadRequest,
	KindValidation:   http.StatusUnprocessableEntity,
	KindUnauthorized: http.StatusUnauthorized,
	KindForbidden:    http.StatusForbidden,
	KindNotFound:     http.StatusNotFound,
	KindConflict:     http.StatusConflict,
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "internal"
}

func (k Kind) HTTPStatus() int {
	if s, ok := kindStatus[k]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Kinded is implemented by domain errors that carry their own classification.
type Kinded interface {
	error
	Kind() Kind
}

type Error struct {
	kind   Kind
	Detail string
	Cause  error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (cause: %v)", e.Detail, e.Cause)
	}
	return e.Detail
}

func (e *Error) Unwrap() error { return e.Cause }

func (e *Error) Kind() Kind { return e.kind }

func New(kind Kind, detail string) *Error {
	return &Error{kind: kind, Detail: detail}
}

func Wrap(kind Kind, detail string, cause error) *Error {
	return &Error{kind: kind, Detail: detail, Cause: cause}
}

func BadRequest(detail string) *Error   { return New(KindBadRequest, detail) }
func Validation(detail string) *Error   { return New(KindValidation, detail) }
func Unauthorized(detail string) *Error { return New(KindUnauthorized, detail) }
func Forbidden(detail string) *Error    { return New(KindForbidden, detail) }
func NotFound(detail string) *Error     { return New(KindNotFound, detail) }
func Conflict(detail string) *Error     { return New(KindConflict, detail) }

func Internal(detail string, cause error) *Error {
	return Wrap(KindInternal, detail, cause)
}

// KindOf returns the classification of the first Kinded error in the chain.
// Unclassified errors are internal.
func KindOf(err error) Kind {
	var k Kinded
	if errors.As(err, &k) {
		return k.Kind()
	}
	return KindInternal
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// PublicDetail is the message safe to return to a client. Internal errors
// never expose the underlying failure.
func PublicDetail(err error) string {
	var k Kinded
	if !errors.As(err, &k) || k.Kind() == KindInternal {
		return "internal server error"
	}
	var ae *Error
	if errors.As(err, &ae) && ae.Kind() == k.Kind() {
		return ae.Detail
	}
	return k.Error()
}
