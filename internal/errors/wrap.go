/**
 * Error Wrapping Utilities for StepWatch
 *
 * Provides convenience functions for error wrapping and creation
 *
 * Author: StepWatch Team
 * Created: 2026-10-15
 */

package errors

import (
	stderrors "errors"
	"fmt"
)

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// NewSimple creates a simple error without the full Error struct.
func NewSimple(message string) error {
	return stderrors.New(message)
}

// Errorf creates a formatted error.
func Errorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

// WrapTyped wraps an error with a specific error type.
func WrapTyped(errorType ErrorType, op string, err error) error {
	if err == nil {
		return nil
	}
	return New(errorType, op, err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// AsError checks if an error is of type *Error and assigns it.
func AsError(err error, target **Error) bool {
	return stderrors.As(err, target)
}

// Precondition builds the panic value used for estimator misuse.
func Precondition(op string, err error) *Error {
	return New(ErrorTypePrecondition, op, err)
}
