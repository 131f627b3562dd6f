package models

import (
	"errors"
	"fmt"
)

// Kind classifies core obfuscation failures.
type Kind string

const (
	// KindInvalidRequest means the request envelope is malformed.
	KindInvalidRequest Kind = "invalid_request"

	// KindInvalidLocator means a locator is not scheme://container/path.
	KindInvalidLocator Kind = "invalid_locator"

	// KindUnsupportedFormat means the file suffix is not csv, json or parquet.
	KindUnsupportedFormat Kind = "unsupported_format"

	// KindDecode means the bytes are not a well-formed instance of the format.
	KindDecode Kind = "decode"
)

// Error is a core failure tagged with its Kind.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a core error with no underlying cause.
func NewError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError tags err with kind.
func WrapError(err error, kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the core error kind anywhere in err's chain.
// The empty Kind is returned when err is not a core error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
