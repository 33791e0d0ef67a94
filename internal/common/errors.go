package common

import (
	"errors"
	"net/http"
)

type Code string

const (
	CodeValidation  Code = "validation"
	CodeConflict    Code = "conflict"
	CodeNotFound    Code = "not_found"
	CodeInternal    Code = "internal"
	CodeRateLimited Code = "rate_limited"
)

// Error is the error type returned by the service layer. Message is safe to
// show to clients; Err carries the underlying cause for logs.
type Error struct {
	Code    Code
	Message string
	Fields  map[string]string
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

func NewError(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

func NewValidationError(message string, fields map[string]string) *Error {
	return &Error{Code: CodeValidation, Message: message, Fields: fields}
}

// Is reports whether err is (or wraps) an *Error with the given code.
func Is(err error, code Code) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// CodeOf returns the code of err, treating unknown errors as internal.
func CodeOf(err error) Code {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeConflict:
		return http.StatusConflict
	case CodeNotFound:
		return http.StatusNotFound
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
