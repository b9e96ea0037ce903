package domainerrors

import "errors"

// Code represents an error category independent of the transport layer.
// These codes describe what went wrong in business terms, not HTTP terms.
type Code string

const (
	CodeBadRequest   Code = "bad_request"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeNotFound     Code = "not_found"
	CodeLocked       Code = "locked"
	CodeUnavailable  Code = "unavailable"
	CodeInternal     Code = "internal_error"

	// Session token failures. All three surface as 401 but stay distinct so
	// callers and tests can tell an expired token from a forged one.
	CodeTokenExpired          Code = "token_expired"
	CodeTokenInvalidSignature Code = "token_invalid_signature"
	CodeTokenMalformed        Code = "token_malformed"
)

// Error wraps domain or infrastructure failures with a stable code.
// It is transport-agnostic and can be used across service and store layers.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

// Unwrap implements error unwrapping for error chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is enables errors.Is() to match errors by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a domain error with the given code and message.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap creates a domain error wrapping an existing error.
// If the wrapped error is already a domain error, the original code is preserved.
func Wrap(err error, code Code, msg string) error {
	var existing *Error
	if errors.As(err, &existing) {
		return &Error{Code: existing.Code, Message: msg, Err: err}
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode checks if an error is a domain error with the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
