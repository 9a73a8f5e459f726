// Package apperr provides the structured error type shared by the store,
// services and handlers, plus the mapping from error codes to HTTP status.
package apperr

import (
	stderrs "errors"
	"fmt"
	"net/http"
)

// Code classifies an error for callers and for the wire.
type Code uint16

const (
	CodeUnknown Code = iota
	CodeValidation
	CodeNotFound
	CodeUnauthorized
	CodeForbidden
	CodeConflict
	CodeUnavailable
	CodeDB
)

// HTTPStatusCode turns a Code into an http status code
func HTTPStatusCode(c Code) int {
	switch c {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeConflict:
		return http.StatusConflict
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error carries a code, a caller-facing message, an optional offending
// field and the wrapped cause.
type Error struct {
	orig  error
	msg   string
	code  Code
	field string
}

// Wire is the JSON body returned by the API for failed requests.
type Wire struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.orig != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.orig)
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.orig }

// Code returns the error code
func (e *Error) Code() Code { return e.code }

// Field returns the offending input field, if any
func (e *Error) Field() string { return e.field }

// ToWire converts the error to its JSON payload. The wrapped cause is
// never exposed.
func (e *Error) ToWire() Wire { return Wire{Code: e.code, Message: e.msg, Field: e.field} }

// New returns an *Error with the given code and message
func New(code Code, msg string) error { return &Error{code: code, msg: msg} }

// Newf returns an *Error with a formatted message
func Newf(code Code, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...)}
}

// Wrap returns an *Error that wraps orig
func Wrap(orig error, code Code, msg string) error {
	return &Error{code: code, msg: msg, orig: orig}
}

// WithField returns a copy of err tagged with field. Foreign errors are
// returned unchanged.
func WithField(err error, field string) error {
	if e, ok := As(err); ok {
		c := *e
		c.field = field
		return &c
	}
	return err
}

// As unwraps err and returns the first *Error in its chain
func As(err error) (*Error, bool) {
	var e *Error
	if stderrs.As(err, &e) {
		return e, true
	}
	return nil, false
}

// CodeOf extracts the Code of err, defaulting to CodeUnknown
func CodeOf(err error) Code {
	if e, ok := As(err); ok {
		return e.code
	}
	return CodeUnknown
}

// IsCode reports whether err carries code
func IsCode(err error, code Code) bool { return CodeOf(err) == code }

// HTTP bundles status and wire payload for handlers. Errors that are not
// ours are reported as a generic internal failure.
func HTTP(err error) (int, Wire) {
	if err == nil {
		return http.StatusOK, Wire{}
	}
	if e, ok := As(err); ok {
		return HTTPStatusCode(e.code), e.ToWire()
	}
	return http.StatusInternalServerError, Wire{Code: CodeUnknown, Message: "internal error"}
}
