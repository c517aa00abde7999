package optimistic

import (
	"errors"
	"fmt"
)

// ConflictError reports a rejected Apply or Delete.
//
// Conflicts include:
//   - Action pending: a second edit requested for a key already pending
//     while the reject policy is in force
//   - Coordinator closed: an edit requested after Close
//   - Key mismatch: current and optimistic values disagree on identity
//
// Conflicts are coordinator policy outcomes, not user-facing failures;
// callers typically surface them as "try again when the row settles".
type ConflictError struct {
	// Code identifies the conflict category.
	Code ConflictCode

	// Message is a human-readable description.
	Message string

	// Key identifies the affected entity, formatted for display.
	Key string
}

// ConflictCode categorizes coordinator conflicts.
type ConflictCode string

const (
	// ErrCodeActionPending indicates the key already has an in-flight edit.
	ErrCodeActionPending ConflictCode = "ACTION_PENDING"

	// ErrCodeClosed indicates the coordinator has been closed.
	ErrCodeClosed ConflictCode = "COORDINATOR_CLOSED"

	// ErrCodeKeyMismatch indicates current and optimistic identities differ.
	ErrCodeKeyMismatch ConflictCode = "KEY_MISMATCH"
)

// Error implements the error interface.
func (e *ConflictError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s: %s (key=%s)", e.Code, e.Message, e.Key)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsActionPending reports whether err is a pending-edit conflict.
// Uses errors.As to handle wrapped errors.
func IsActionPending(err error) bool {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce.Code == ErrCodeActionPending
	}
	return false
}

// IsClosed reports whether err is a closed-coordinator conflict.
func IsClosed(err error) bool {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce.Code == ErrCodeClosed
	}
	return false
}

// newPendingError creates a ConflictError for a key with an in-flight edit.
func newPendingError(key string) *ConflictError {
	return &ConflictError{
		Code:    ErrCodeActionPending,
		Message: "an edit for this entity is already awaiting confirmation",
		Key:     key,
	}
}

// newClosedError creates a ConflictError for a closed coordinator.
func newClosedError() *ConflictError {
	return &ConflictError{
		Code:    ErrCodeClosed,
		Message: "coordinator is closed",
	}
}

// newKeyMismatchError creates a ConflictError for mismatched identities.
func newKeyMismatchError(current, optimistic string) *ConflictError {
	return &ConflictError{
		Code:    ErrCodeKeyMismatch,
		Message: fmt.Sprintf("optimistic value targets key %s", optimistic),
		Key:     current,
	}
}
