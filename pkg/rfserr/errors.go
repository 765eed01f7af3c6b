// Package rfserr is the uniform result/error type used across the core.
// Every operation that can fail returns an *Error carrying one identifier
// from the taxonomy instead of raising a language exception.
package rfserr

import (
	"fmt"
	"net/http"
)

// Code identifies the class of failure, independent of transport.
type Code string

const (
	EINVAL    Code = "EINVAL"
	EACCES    Code = "EACCES"
	ENOENT    Code = "ENOENT"
	ENOTDIR   Code = "ENOTDIR"
	EISDIR    Code = "EISDIR"
	EEXIST    Code = "EEXIST"
	ENOTEMPTY Code = "ENOTEMPTY"
	EIO       Code = "EIO"
)

// Error is the failure variant of the core's result type.
type Error struct {
	Code    Code
	Message string
	Details string
	cause   error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds an Error with the given code and message.
func New(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a taxonomy code to an underlying host error, keeping the
// original error reachable via errors.Unwrap and recorded as free-form
// details per the §7 propagation policy for unmapped host failures.
func Wrap(code Code, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: err.Error(), Details: err.Error(), cause: err}
}

// As extracts an *Error from err, reporting ok=false for anything that
// did not originate from this package.
func As(err error) (*Error, bool) {
	e, ok := err.(*Error)
	return e, ok
}

// StatusOf maps a taxonomy identifier to its HTTP status per §7.
func StatusOf(code Code) int {
	switch code {
	case EINVAL, ENOTDIR, EISDIR:
		return http.StatusBadRequest
	case EACCES:
		return http.StatusForbidden
	case ENOENT:
		return http.StatusNotFound
	case EEXIST, ENOTEMPTY:
		return http.StatusConflict
	case EIO:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// HTTPStatus reports the status code for this error's taxonomy identifier.
func (e *Error) HTTPStatus() int {
	return StatusOf(e.Code)
}
