/**
 * Error Types for StepWatch
 *
 * Defines structured error types with metadata so callers can tell
 * programmer errors (precondition violations) apart from recoverable
 * configuration, storage and output failures.
 *
 * Author: StepWatch Team
 * Created: 2026-10-15
 */

package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the category of error.
type ErrorType int

const (
	// ErrorTypeUnknown represents an unknown error.
	ErrorTypeUnknown ErrorType = iota

	// ErrorTypePrecondition represents API misuse by the caller.
	ErrorTypePrecondition

	// ErrorTypeConfiguration represents configuration errors.
	ErrorTypeConfiguration

	// ErrorTypeStorage represents journal/database errors.
	ErrorTypeStorage

	// ErrorTypeOutput represents failures writing to an output sink.
	ErrorTypeOutput

	// ErrorTypeContext represents context cancellation or timeout.
	ErrorTypeContext
)

// Sentinel errors for estimator precondition violations.
var (
	ErrStepNotStarted = stderrors.New("no step has been started")
	ErrNotPaused      = stderrors.New("resume called without a matching pause")
	ErrNilSubscriber  = stderrors.New("subscriber callback is nil")
)

// String returns the string representation of ErrorType.
func (et ErrorType) String() string {
	switch et {
	case ErrorTypePrecondition:
		return "Precondition"
	case ErrorTypeConfiguration:
		return "Configuration"
	case ErrorTypeStorage:
		return "Storage"
	case ErrorTypeOutput:
		return "Output"
	case ErrorTypeContext:
		return "Context"
	default:
		return "Unknown"
	}
}

// Error represents a structured error with metadata.
type Error struct {
	// Timestamp when the error occurred
	Timestamp time.Time

	// Err is the underlying error
	Err error

	// Context contains additional context information
	Context map[string]interface{}

	// Op represents the operation being performed
	Op string

	// Type categorizes the error
	Type ErrorType
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Type, e.Op)
	}
	return fmt.Sprintf("%s: %s: %v", e.Type, e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new Error.
func New(errorType ErrorType, op string, err error) *Error {
	return &Error{
		Type:      errorType,
		Op:        op,
		Err:       err,
		Timestamp: time.Now(),
		Context:   make(map[string]interface{}),
	}
}

// WithContext adds context information.
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// IsContextError checks if the error is due to context cancellation.
func IsContextError(err error) bool {
	if err == nil {
		return false
	}
	return stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded)
}

// GetErrorType determines the error type from a generic error.
func GetErrorType(err error) ErrorType {
	if err == nil {
		return ErrorTypeUnknown
	}

	var e *Error
	if AsError(err, &e) {
		return e.Type
	}

	if IsContextError(err) {
		return ErrorTypeContext
	}

	return ErrorTypeUnknown
}
