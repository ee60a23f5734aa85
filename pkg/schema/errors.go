package schema

import (
	"errors"
	"fmt"
)

// ErrorKind distinguishes decode failures.
type ErrorKind int

const (
	// MissingField means a required field was absent from the wire.
	MissingField ErrorKind = iota + 1
	// TypeMismatch means a wire value had the wrong shape for its field.
	TypeMismatch
)

func (k ErrorKind) String() string {
	switch k {
	case MissingField:
		return "missing field"
	case TypeMismatch:
		return "type mismatch"
	default:
		return "decode error"
	}
}

// Sentinels for errors.Is matching against a *DecodeError.
var (
	ErrMissingField = errors.New("missing required field")
	ErrTypeMismatch = errors.New("type mismatch")
)

// DecodeError reports why a wire tree could not be decoded into a model.
type DecodeError struct {
	Kind ErrorKind
	// Field is the dotted path of the failing field, e.g. "owner.login"
	// or "[2].id".
	Field    string
	Expected string
	Actual   string
	Err      error
}

func (e *DecodeError) Error() string {
	switch e.Kind {
	case MissingField:
		return fmt.Sprintf("missing required field %q", e.Field)
	case TypeMismatch:
		if e.Err != nil {
			return fmt.Sprintf("field %q: expected %s, got %s: %v", e.Field, e.Expected, e.Actual, e.Err)
		}

		return fmt.Sprintf("field %q: expected %s, got %s", e.Field, e.Expected, e.Actual)
	default:
		return fmt.Sprintf("decoding field %q", e.Field)
	}
}

// Is matches ErrMissingField and ErrTypeMismatch by kind.
func (e *DecodeError) Is(target error) bool {
	switch {
	case errors.Is(target, ErrMissingField):
		return e.Kind == MissingField
	case errors.Is(target, ErrTypeMismatch):
		return e.Kind == TypeMismatch
	default:
		return false
	}
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func missingField(path string) *DecodeError {
	return &DecodeError{Kind: MissingField, Field: path}
}

func typeMismatch(path, expected string, actual any) *DecodeError {
	return &DecodeError{Kind: TypeMismatch, Field: path, Expected: expected, Actual: describe(actual)}
}
