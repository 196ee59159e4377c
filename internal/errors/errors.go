// Package errors provides the error taxonomy used across the server.
//
// Tool handlers map these classes onto tool-level error results; nothing in
// this package is ever allowed to escape a handler as a process fault.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for each failure class. Callers classify with errors.Is.
var (
	// ErrValidation marks malformed or out-of-range tool input.
	ErrValidation = errors.New("validation error")

	// ErrAccessDenied marks an operation the access guard refused, for
	// example a write attempted while the window is unfocused.
	ErrAccessDenied = errors.New("access denied")

	// ErrNotFound marks a transient host condition: the target document or
	// cell disappeared between addressing and resolution.
	ErrNotFound = errors.New("not found")

	// ErrTimeout marks an execution wait that ran out of budget. The
	// underlying kernel execution may still complete later.
	ErrTimeout = errors.New("timeout")

	// ErrOwnership marks a soft failure of the server ownership handoff.
	ErrOwnership = errors.New("ownership error")

	// ErrHost marks a failure reported by the host editor's document or
	// kernel API.
	ErrHost = errors.New("host error")

	// ErrInternal marks a bug in this server.
	ErrInternal = errors.New("internal error")
)

// Validationf creates a validation error with a formatted message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// AccessDeniedf creates an access-denied error with a formatted message.
// The message must tell the caller how to resolve the denial.
func AccessDeniedf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrAccessDenied, fmt.Sprintf(format, args...))
}

// NotFoundf creates a not-found error with a formatted message.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Timeoutf creates a timeout error with a formatted message.
func Timeoutf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrTimeout, fmt.Sprintf(format, args...))
}

// Ownershipf creates an ownership-protocol error with a formatted message.
func Ownershipf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrOwnership, fmt.Sprintf(format, args...))
}

// Hostf wraps an error reported by the host editor API.
func Hostf(cause error, format string, args ...any) error {
	if cause == nil {
		return fmt.Errorf("%w: %s", ErrHost, fmt.Sprintf(format, args...))
	}
	return fmt.Errorf("%w: %s: %w", ErrHost, fmt.Sprintf(format, args...), cause)
}

// Internalf creates an internal error with a formatted message.
func Internalf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInternal, fmt.Sprintf(format, args...))
}

// Wrap creates a new error by wrapping an existing error with additional
// context, preserving the chain for errors.Is.
func Wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}
