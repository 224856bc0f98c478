package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies settlement failures for callers. The transport
// layer maps kinds to HTTP status codes; nothing is persisted on any
// failed settlement regardless of kind.
type ErrorKind string

const (
	// ErrKindValidation covers caller mistakes: empty cart,
	// non-positive quantity, unknown or inactive product or tax class.
	ErrKindValidation ErrorKind = "validation"

	// ErrKindComputation indicates catalog data corruption, such as a
	// tax rate outside [0, 1].
	ErrKindComputation ErrorKind = "computation"

	// ErrKindConflict means identifier generation kept colliding with
	// existing transactions until the retry bound was exhausted.
	ErrKindConflict ErrorKind = "conflict"

	// ErrKindPersistence is a retryable infrastructure failure: the
	// backing store was unavailable or rejected the write.
	ErrKindPersistence ErrorKind = "persistence"
)

// SettlementError is the tagged failure result of a settlement. Barcode
// names the offending cart line when one line caused the failure.
type SettlementError struct {
	Kind    ErrorKind
	Barcode string
	Message string
	Err     error
}

func (e *SettlementError) Error() string {
	msg := fmt.Sprintf("settlement %s error: %s", e.Kind, e.Message)
	if e.Barcode != "" {
		msg += fmt.Sprintf(" (barcode %s)", e.Barcode)
	}
	return msg
}

func (e *SettlementError) Unwrap() error {
	return e.Err
}

// NewValidationError reports invalid caller input. barcode may be empty
// for cart-level problems.
func NewValidationError(barcode, message string) *SettlementError {
	return &SettlementError{Kind: ErrKindValidation, Barcode: barcode, Message: message}
}

// NewComputationError reports corrupted catalog data encountered while
// pricing a line.
func NewComputationError(barcode, message string) *SettlementError {
	return &SettlementError{Kind: ErrKindComputation, Barcode: barcode, Message: message}
}

// NewConflictError reports exhausted identifier-collision retries.
func NewConflictError(message string, err error) *SettlementError {
	return &SettlementError{Kind: ErrKindConflict, Message: message, Err: err}
}

// NewPersistenceError reports a backing-store failure. The settlement
// was rolled back in full.
func NewPersistenceError(message string, err error) *SettlementError {
	return &SettlementError{Kind: ErrKindPersistence, Message: message, Err: err}
}

// KindOf extracts the error kind from err, unwrapping as needed.
func KindOf(err error) (ErrorKind, bool) {
	var se *SettlementError
	if errors.As(err, &se) {
		return se.Kind, true
	}
	return "", false
}
