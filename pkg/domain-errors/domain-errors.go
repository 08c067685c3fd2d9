package domainerrors

import "errors"

// Code represents a failure category independent of how it is reported.
// Every error that ends a run carries exactly one of these.
type Code string

const (
	CodeConfiguration Code = "configuration"  // required setting missing or unparseable
	CodeTransport     Code = "transport"      // DNS, connection, TLS or context failure before a response arrived
	CodeClientError   Code = "client_error"   // remote answered 4xx
	CodeServerError   Code = "server_error"   // remote answered 5xx
	CodeUnknownStatus Code = "unknown_status" // remote answered outside 2xx/4xx/5xx
	CodePayloadShape  Code = "payload_shape"  // 2xx body missing an expected field
	CodeImageRead     Code = "image_read"     // photo could not be read from disk
	CodeInternal      Code = "internal_error"
)

// Error wraps a failure with a stable code.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// Error implements the error interface.
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

// New creates a new domain error with the given code and message.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap creates a new domain error wrapping an existing error.
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

// CodeOf returns the code of the first domain error in the chain,
// or CodeInternal when there is none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
