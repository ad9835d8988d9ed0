// Package apperrors defines the error taxonomy shared by every feature package.
//
// Feature code wraps one of the sentinels below with context, e.g.
//
//	fmt.Errorf("%w: percentages must sum to 100, got %s", apperrors.ErrValidation, sum)
//
// and transport code classifies it with errors.Is.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation indicates that input data failed validation checks. No side effect occurred.
	ErrValidation = errors.New("validation error")

	// ErrNotFound indicates that a requested resource could not be found.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict indicates write contention or a duplicate resource. Callers may retry.
	ErrConflict = errors.New("conflict")

	// ErrInvariant indicates that derived financial state broke a ledger invariant.
	// It is never expected in correct operation and must not be silently corrected.
	ErrInvariant = errors.New("invariant violation")
)

// Validation wraps ErrValidation with a formatted message.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFound wraps ErrNotFound with a formatted message.
func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Conflict wraps ErrConflict with a formatted message.
func Conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// Invariant wraps ErrInvariant with a formatted message.
func Invariant(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvariant, fmt.Sprintf(format, args...))
}
