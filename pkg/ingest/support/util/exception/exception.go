// Package exception provides custom error types and error handling utilities for the Tidewrite ingestion engine.
// It standardizes errors that occur during ingestion, allowing store failures to be
// categorized for reconciliation and caller-side retry decisions.
package exception

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// IngestError is a custom error type that occurs during ingestion processing.
// It holds the module where the error occurred, a message, the wrapped original error,
// and a flag indicating whether it is retryable.
type IngestError struct {
	// Module indicates the module where the error occurred (e.g., "validator", "coordinator", "executor", "config").
	Module string
	// Message is a concise description of the error.
	Message string
	// OriginalErr is the wrapped original error.
	OriginalErr error
	// isRetryable indicates whether this error is retryable.
	isRetryable bool
	// StackTrace is the stack trace at the time of the error (for debugging).
	StackTrace string
}

// NewIngestError creates a new IngestError instance.
// module: The module where the error occurred.
// message: The error message.
// originalErr: The original error to wrap.
// isRetryable: Whether this error is retryable.
// Returns: A new IngestError instance.
func NewIngestError(module, message string, originalErr error, isRetryable bool) *IngestError {
	// Capture stack trace (for debugging purposes)
	buf := make([]byte, 2048)
	n := runtime.Stack(buf, false)
	stackTrace := string(buf[:n])

	return &IngestError{
		Module:      module,
		Message:     message,
		OriginalErr: originalErr,
		isRetryable: isRetryable,
		StackTrace:  stackTrace,
	}
}

// NewIngestErrorf creates a new IngestError instance using a format string.
// An optional originalErr error is extracted from the end of the variadic arguments 'a';
// the remaining arguments are used for fmt.Sprintf. Errors created this way are not retryable.
//
// Example:
// NewIngestErrorf("coordinator", "failed to project record '%s'", "rec-001", err)
// -> message: "failed to project record 'rec-001'", originalErr: err
func NewIngestErrorf(module, format string, a ...interface{}) *IngestError {
	var originalErr error
	args := a

	if len(args) > 0 {
		if err, ok := args[len(args)-1].(error); ok {
			originalErr = err
			args = args[:len(args)-1]
		}
	}

	message := fmt.Sprintf(format, args...)

	buf := make([]byte, 2048)
	n := runtime.Stack(buf, false)
	stackTrace := string(buf[:n])

	return &IngestError{
		Module:      module,
		Message:     message,
		OriginalErr: originalErr,
		StackTrace:  stackTrace,
	}
}

// Error implements the error interface.
// It returns the error's module, message, and the string representation of the original error.
func (e *IngestError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Module, e.Message, e.OriginalErr)
	}
	return fmt.Sprintf("[%s] %s", e.Module, e.Message)
}

// Unwrap returns the original error for errors.Unwrap.
func (e *IngestError) Unwrap() error {
	return e.OriginalErr
}

// IsRetryable returns whether this error is retryable.
func (e *IngestError) IsRetryable() bool {
	return e.isRetryable
}

// IsIngestError determines if the given error is of type IngestError.
// err: The error to check.
// Returns: true if it is an IngestError, false otherwise.
func IsIngestError(err error) bool {
	if err == nil {
		return false
	}
	var ie *IngestError
	return errors.As(err, &ie)
}

// IsTemporary determines if an error is temporary (e.g., network error, temporary store connection issue).
// This function drives the retryable classification of store write failures.
// If it's an IngestError, its IsRetryable flag takes precedence.
// err: The error to check.
// Returns: true if it's a temporary error, false otherwise.
func IsTemporary(err error) bool {
	if err == nil {
		return false
	}
	var ie *IngestError
	if errors.As(err, &ie) {
		return ie.IsRetryable()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset")
}

// ExtractErrorMessage extracts the error message string from an error.
// For IngestError, it returns the cleaner Message field.
// Otherwise, it returns the standard Error() string.
// err: The error from which to extract the message.
// Returns: The error message string.
func ExtractErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var ie *IngestError
	if errors.As(err, &ie) {
		return ie.Message
	}
	return err.Error()
}
