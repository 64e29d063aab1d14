// Package errs defines the error taxonomy of the coordinator (configuration,
// validation, mutation-conflict, subprocess, transient-io, scheduler-adapter)
// and wraps underlying causes with github.com/pkg/errors so callers can
// recover the original error via errors.Cause while still branching on Kind.
package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

type Kind int

const (
	Configuration Kind = iota
	Validation
	MutationConflict
	Subprocess
	TransientIO
	SchedulerAdapter
)

func (k Kind) String() string {
	switch k {
	case Configuration:
		return "configuration"
	case Validation:
		return "validation"
	case MutationConflict:
		return "mutation-conflict"
	case Subprocess:
		return "subprocess"
	case TransientIO:
		return "transient-io"
	case SchedulerAdapter:
		return "scheduler-adapter"
	default:
		return "unknown"
	}
}

// ExitCode maps a Kind onto the process's exit codes.
func (k Kind) ExitCode() int {
	switch k {
	case Configuration:
		return 3
	case Validation:
		return 2
	default:
		return 1
	}
}

type Error struct {
	Kind  Kind
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.cause)
}

func (e *Error) Unwrap() error { return e.cause }

// Cause lets pkg/errors.Cause walk through an *Error to the wrapped cause.
func (e *Error) Cause() error { return e.cause }

func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, cause: errors.Errorf(format, args...)}
}

func Wrap(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, cause: errors.Wrapf(cause, format, args...)}
}

// Cause unwraps to the innermost error, same contract as pkg/errors.Cause.
func Cause(err error) error { return errors.Cause(err) }

// Is reports whether err is (or wraps) a madats *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if me, ok := err.(*Error); ok {
			e = me
			break
		}
		err = errors.Unwrap(err)
	}
	return e != nil && e.Kind == kind
}
