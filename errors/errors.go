package errors

import (
	"errors"
	"fmt"
)

// Common error types for categorization and handling

var (
	// ErrNotFound indicates a requested tracking record or relationship was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates invalid user input
	ErrInvalidInput = errors.New("invalid input")

	// ErrStoreCommunication indicates a read or write against the relationship store failed.
	// Closure maintenance never retries; callers restart from discovery.
	ErrStoreCommunication = errors.New("store communication failed")

	// ErrCycle indicates a proposed dependency would close a cycle
	ErrCycle = errors.New("dependency would create a cycle")
)

// WrapError wraps an error with context message and stack
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// WrapErrorf wraps an error with formatted context message
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// StoreError marks err as a store communication failure for operation op.
// The driver error stays reachable through errors.Is / errors.As.
func StoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStoreCommunication, err)
}

// IsNotFound checks if error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidInput checks if error is an invalid input error
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsStoreCommunication checks if error came from the relationship store
func IsStoreCommunication(err error) bool {
	return errors.Is(err, ErrStoreCommunication)
}

// IsCycle checks if error is a rejected cycle-forming dependency
func IsCycle(err error) bool {
	return errors.Is(err, ErrCycle)
}
