// Package apperr is the error taxonomy shared by the server and the sync
// client. An Error carries both a Kind for programmatic checks and the HTTP
// status/code pair it travels as.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation     Kind = "validation"
	KindAuthentication Kind = "authentication"
	KindNotFound       Kind = "not_found"
	KindNetwork        Kind = "network"
	KindPermission     Kind = "permission"
	KindConflict       Kind = "conflict"
	KindUnavailable    Kind = "unavailable"
	KindInternal       Kind = "internal"
)

type Error struct {
	Kind    Kind
	Status  int
	Code    string
	Message string
	Details any
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind, so errors.Is(err, apperr.ErrNotFound) works.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Code == "" && t.Message == ""
}

// Kind markers for errors.Is.
var (
	ErrValidation     = &Error{Kind: KindValidation}
	ErrAuthentication = &Error{Kind: KindAuthentication}
	ErrNotFound       = &Error{Kind: KindNotFound}
	ErrNetwork        = &Error{Kind: KindNetwork}
	ErrPermission     = &Error{Kind: KindPermission}
)

func newError(kind Kind, status int, code, message string, details any) *Error {
	return &Error{Kind: kind, Status: status, Code: code, Message: message, Details: details}
}

func Validation(message string, details any) *Error {
	return newError(KindValidation, http.StatusBadRequest, "VALIDATION_ERROR", message, details)
}

func Authentication(message string) *Error {
	if message == "" {
		message = "Unauthorized"
	}
	return newError(KindAuthentication, http.StatusUnauthorized, "UNAUTHORIZED", message, nil)
}

func NotFound(message string) *Error {
	if message == "" {
		message = "Not found"
	}
	return newError(KindNotFound, http.StatusNotFound, "NOT_FOUND", message, nil)
}

func Permission(message string) *Error {
	if message == "" {
		message = "Forbidden"
	}
	return newError(KindPermission, http.StatusForbidden, "FORBIDDEN", message, nil)
}

func Conflict(message string) *Error {
	return newError(KindConflict, http.StatusConflict, "CONFLICT", message, nil)
}

func Unavailable(message string, err error) *Error {
	e := newError(KindUnavailable, http.StatusNotImplemented, "NOT_IMPLEMENTED", message, nil)
	e.Err = err
	return e
}

// Network wraps a transport failure.
func Network(err error) *Error {
	e := newError(KindNetwork, 0, "NETWORK_ERROR", "Network error", nil)
	e.Err = err
	return e
}

func Internal(err error) *Error {
	e := newError(KindInternal, http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil)
	e.Err = err
	return e
}

// FromStatus builds an Error from an HTTP response the client could not
// treat as success.
func FromStatus(status int, message string) *Error {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return Validation(message, nil)
	case http.StatusUnauthorized:
		return Authentication(message)
	case http.StatusForbidden:
		return Permission(message)
	case http.StatusNotFound:
		return NotFound(message)
	case http.StatusConflict:
		return Conflict(message)
	case http.StatusNotImplemented:
		return Unavailable(message, nil)
	}
	e := newError(KindInternal, status, "SERVER_ERROR", message, nil)
	if status >= 500 || status == 0 {
		e.Kind = KindNetwork
	}
	return e
}

// KindOf returns the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// As returns err as an *Error, wrapping unknown errors as Internal.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}
