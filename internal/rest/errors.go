package rest

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrMethodNotAllowed    = errors.New("method not allowed")
	ErrUnsupportedLocale   = errors.New("unsupported locale")
	ErrNotImplemented      = errors.New("not implemented")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrEncodingFailure     = errors.New("encoding failure")
)

// Error is a request failure that is reported to the client as an
// ErrorPayload with Code as the HTTP status.
type Error struct {
	Kind    error
	Code    int
	Message string
	Fields  string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func methodNotAllowed(method string) *Error {
	return &Error{
		Kind:    ErrMethodNotAllowed,
		Code:    http.StatusMethodNotAllowed,
		Message: fmt.Sprintf("%s not allowed", method),
		Fields:  "Only GET is allowed",
	}
}

func unsupportedLocale(requested string, supported []string) *Error {
	return &Error{
		Kind:    ErrUnsupportedLocale,
		Code:    http.StatusBadRequest,
		Message: fmt.Sprintf("Language '%s' not supported", requested),
		Fields:  "Supported languages: [" + strings.Join(supported, ", ") + "]",
	}
}

func notImplemented() *Error {
	return &Error{
		Kind:    ErrNotImplemented,
		Code:    http.StatusNotImplemented,
		Message: "Not implemented on the server side",
	}
}

func encodingFailure() *Error {
	return &Error{
		Kind:    ErrEncodingFailure,
		Code:    http.StatusServiceUnavailable,
		Message: "Could not encode the response",
	}
}

// asError maps a resolver failure onto the error reported to the client.
// Anything that is not already an *Error is treated as an unavailable
// upstream and reported without details.
func asError(err error) *Error {
	var re *Error
	if errors.As(err, &re) {
		return re
	}
	if errors.Is(err, ErrNotImplemented) {
		return notImplemented()
	}
	return &Error{
		Kind:    ErrUpstreamUnavailable,
		Code:    http.StatusNotImplemented,
		Message: "Not implemented on the server side",
	}
}
