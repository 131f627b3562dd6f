// Package domainerrors carries client-facing error codes across layers.
// Transport code maps a Code to a status; services choose the Code.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code is the stable machine-readable error category returned to callers.
type Code string

const (
	CodeBadRequest   Code = "bad_request"
	CodeInvalidInput Code = "invalid_input"
	CodeUnauthorized Code = "unauthorized"
	CodeNotFound     Code = "not_found"
	CodeTimeout      Code = "timeout"
	CodeInternal     Code = "internal_error"
)

type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Err == nil:
		return e.Message
	case e.Message == "":
		return e.Err.Error()
	default:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
}

// Description is the client-facing text: the message, or the cause's text
// when the error was wrapped without one.
func (e *Error) Description() string {
	if e.Message == "" && e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error with the same code, so errors.Is works with
// a bare New(code, "") target.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches code and msg to err. An empty msg reuses err's text.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

// CodeOf returns the outermost code in err's chain, or "" when none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// HasCode reports whether the outermost coded error in err carries code.
func HasCode(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// Is reports whether err is a coded error.
func Is(err error) bool {
	var e *Error
	return errors.As(err, &e)
}
