package bdoc

import (
	"errors"
	"fmt"
)

// Codec errors. Decode failures are reported as *DecodeError values that
// unwrap to one of these, so callers can use errors.Is.
var (
	ErrUnsupportedKind = errors.New("bdoc: unsupported value kind")
	ErrMalformed       = errors.New("bdoc: malformed document")
	ErrTruncated       = errors.New("bdoc: truncated input")
	ErrDepthExceeded   = errors.New("bdoc: nesting depth exceeded")
	ErrNotFound        = errors.New("bdoc: field not found")
)

// DecodeError describes where decoding failed.
type DecodeError struct {
	Reason string
	Offset int
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%v: %s at offset %d", e.Err, e.Reason, e.Offset)
	}
	return fmt.Sprintf("%v: %s", e.Err, e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// EncodeError names the field path at which encoding failed.
type EncodeError struct {
	Path string
	Err  error
}

func (e *EncodeError) Error() string {
	if e.Path == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%v at %s", e.Err, e.Path)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// FieldError is returned by Document.Lookup.
type FieldError struct {
	Name string
	Err  error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%v: %q", e.Err, e.Name)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
