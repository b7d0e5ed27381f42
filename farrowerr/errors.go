// Package farrowerr defines FrozenArrow's flat, non-hierarchical error kinds.
package farrowerr

import (
	"errors"
	"fmt"
)

// Kind identifies a class of engine failure. Kinds are flat: there is no
// parent/child relationship between them.
type Kind int

const (
	// SchemaMismatch means a predicate or projection referenced an unknown column.
	SchemaMismatch Kind = iota
	// TypeMismatch means an operator is not valid for a column's type.
	TypeMismatch
	// UnsupportedPattern means the translator could not reduce a lambda/SQL fragment.
	UnsupportedPattern
	// Overflow means integer accumulation exceeded its widened type.
	Overflow
	// EmptyAggregate means Min/Max was requested over an empty selection.
	EmptyAggregate
	// BoundsError indicates internal bitmap/range misuse — a bug, not user error.
	BoundsError
	// Cancelled means a cancellation token tripped mid-execution.
	Cancelled
)

func (k Kind) String() string {
	switch k {
	case SchemaMismatch:
		return "SchemaMismatch"
	case TypeMismatch:
		return "TypeMismatch"
	case UnsupportedPattern:
		return "UnsupportedPattern"
	case Overflow:
		return "Overflow"
	case EmptyAggregate:
		return "EmptyAggregate"
	case BoundsError:
		return "BoundsError"
	case Cancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type raised across the engine. It carries a
// Kind plus a human message and, optionally, the cause it wraps.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is a *Error with the same Kind, so callers can
// use errors.Is(err, farrowerr.New(farrowerr.Cancelled, "")) as a sentinel check.
func (e *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return te.Kind == e.Kind
}

// New creates an Error of the given kind.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error of the given kind wrapping cause.
func Wrap(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf returns the Kind of err if it is (or wraps) a *Error, and ok=true.
func KindOf(err error) (Kind, bool) {
	var fe *Error
	if !errors.As(err, &fe) {
		return 0, false
	}
	return fe.Kind, true
}
