package errors

import "github.com/cockroachdb/errors"

// Re-exports of the cockroachdb/errors primitives used throughout the
// codebase, so callers need only import this package.

// New creates an error with the given message.
func New(msg string) error { return errors.New(msg) }

// Newf creates an error from a format string.
func Newf(format string, args ...interface{}) error { return errors.Newf(format, args...) }

// Wrap annotates err with a message, preserving the chain.
func Wrap(err error, msg string) error { return errors.Wrap(err, msg) }

// Wrapf annotates err with a formatted message, preserving the chain.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// Mark attaches reference as an errors.Is target of err.
func Mark(err, reference error) error { return errors.Mark(err, reference) }

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's chain matching target's type.
func As(err error, target interface{}) bool { return errors.As(err, target) }
