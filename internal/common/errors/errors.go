// Package errors provides the standardized error taxonomy for the review
// engine.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Validation: a field was flagged without a reason. Recoverable; the
	// caller re-renders the form with the offending fields.
	ErrCodeMissingReason ErrorCode = "MISSING_REASON"

	// A referenced application or review record does not exist. Indicates a
	// caller or state bug, surfaced as a generic failure.
	ErrCodeRecordNotFound ErrorCode = "RECORD_NOT_FOUND"

	// The reviewer already holds the maximum number of open reviews.
	ErrCodeReviewerAtCapacity ErrorCode = "REVIEWER_AT_CAPACITY"

	// Nothing left to assign. A legitimate result, not a failure.
	ErrCodeQueueEmpty ErrorCode = "QUEUE_EMPTY"

	// A store read or write failed. Fatal for the current request; no
	// partial commit is left behind.
	ErrCodePersistenceFailed ErrorCode = "PERSISTENCE_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewMissingReasonError creates a recoverable validation error naming the
// fields that were flagged without a comment.
func NewMissingReasonError(fields []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMissingReason,
		Message:   "Flagged fields require a reason",
		Details:   fmt.Sprintf("fields: %s", strings.Join(fields, ", ")),
		Retryable: true,
		Metadata:  map[string]interface{}{"fields": fields},
		Timestamp: time.Now().UTC(),
	}
}

// NewRecordNotFoundError creates a non-retryable missing-record error.
func NewRecordNotFoundError(kind, id string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRecordNotFound,
		Message:   fmt.Sprintf("%s not found", kind),
		Details:   fmt.Sprintf("id: %s", id),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewReviewerAtCapacityError creates a recoverable capacity error.
func NewReviewerAtCapacityError(reviewerID string, capacity int) *StandardError {
	return &StandardError{
		Code:      ErrCodeReviewerAtCapacity,
		Message:   "Reviewer already holds the maximum number of open reviews",
		Details:   fmt.Sprintf("reviewerId: %s, capacity: %d", reviewerID, capacity),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueueEmptyError reports that no unclaimed application exists.
func NewQueueEmptyError() *StandardError {
	return &StandardError{
		Code:      ErrCodeQueueEmpty,
		Message:   "No unclaimed application to assign",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewPersistenceError wraps a failed store operation.
func NewPersistenceError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePersistenceFailed,
		Message:   "Store operation failed",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// CodeOf extracts the ErrorCode from an error chain, or "" when the error is
// not a StandardError.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ""
}

// IsCode reports whether the error chain carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

func IsMissingReason(err error) bool { return IsCode(err, ErrCodeMissingReason) }
func IsNotFound(err error) bool      { return IsCode(err, ErrCodeRecordNotFound) }
func IsAtCapacity(err error) bool    { return IsCode(err, ErrCodeReviewerAtCapacity) }
func IsQueueEmpty(err error) bool    { return IsCode(err, ErrCodeQueueEmpty) }
func IsPersistence(err error) bool   { return IsCode(err, ErrCodePersistenceFailed) }

// MissingFields returns the field names attached to a MISSING_REASON error.
func MissingFields(err error) []string {
	var stdErr *StandardError
	if !errors.As(err, &stdErr) || stdErr.Code != ErrCodeMissingReason {
		return nil
	}
	if fields, ok := stdErr.Metadata["fields"].([]string); ok {
		return fields
	}
	return nil
}
