// Package apperr defines the error taxonomy shared by the history cache, the
// forecaster and the API layer.
package apperr

import (
	"errors"
	"fmt"
)

// Code classifies an Error.
type Code string

const (
	CodeInvalidInput        Code = "INVALID_INPUT"
	CodeProviderUnavailable Code = "PROVIDER_UNAVAILABLE"
	CodeNoData              Code = "NO_DATA"
	CodeInsufficientData    Code = "INSUFFICIENT_DATA"
	CodeInternal            Code = "INTERNAL"
)

// Error carries a Code, a message suitable for display and an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

// Sentinels for errors.Is; matching is by Code only.
var (
	ErrInvalidInput        = &Error{Code: CodeInvalidInput}
	ErrProviderUnavailable = &Error{Code: CodeProviderUnavailable}
	ErrNoData              = &Error{Code: CodeNoData}
	ErrInsufficientData    = &Error{Code: CodeInsufficientData}
	ErrInternal            = &Error{Code: CodeInternal}
)

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func InvalidInput(format string, args ...interface{}) *Error {
	return New(CodeInvalidInput, fmt.Sprintf(format, args...))
}

// CodeOf returns the Code of the first *Error in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// MessageOf returns the display message of err. Errors outside the taxonomy
// get a generic message so internals never leak to callers.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Code != CodeInternal && e.Message != "" {
		return e.Message
	}
	return "Internal server error"
}
