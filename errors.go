package grib2jma

import (
	"errors"
	"fmt"
)

// Error kinds. Every format error returned by the decoder wraps exactly one
// of these, so callers can classify failures with errors.Is. I/O failures
// from the underlying reader are wrapped as they are.
var (
	ErrOutOfRange        = errors.New("byte range out of stream")
	ErrInvalidEncoding   = errors.New("invalid text encoding")
	ErrInvalidTimestamp  = errors.New("invalid timestamp")
	ErrSectionMismatch   = errors.New("section number mismatch")
	ErrGridSizeMismatch  = errors.New("grid size mismatch")
	ErrMissingTerminator = errors.New("missing 7777 end marker")
	ErrInvalidSymbol     = errors.New("invalid run-length symbol")
	ErrInvalidTemplate   = errors.New("unsupported template parameter")
)

// DecodeError reports where in the message a decode failed.
// Offset is the absolute 0-based byte offset from the start of the message.
type DecodeError struct {
	Kind    error
	Section int    // section number being decoded, -1 when not inside a section
	Field   string // field name, empty when not field specific
	Offset  int64
	Detail  string
}

func (e *DecodeError) Error() string {
	msg := e.Kind.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	switch {
	case e.Section >= 0 && e.Field != "":
		return fmt.Sprintf("section %d %s at %d: %s", e.Section, e.Field, e.Offset, msg)
	case e.Section >= 0:
		return fmt.Sprintf("section %d at %d: %s", e.Section, e.Offset, msg)
	default:
		return fmt.Sprintf("at %d: %s", e.Offset, msg)
	}
}

func (e *DecodeError) Unwrap() error { return e.Kind }

func newError(kind error, section int, field string, off int64, format string, args ...any) *DecodeError {
	return &DecodeError{
		Kind:    kind,
		Section: section,
		Field:   field,
		Offset:  off,
		Detail:  fmt.Sprintf(format, args...),
	}
}
