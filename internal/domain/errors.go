package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrDateUnavailable is returned when the requested event date is
	// blocked by an active booking. It deliberately carries no detail
	// about who holds the date.
	ErrDateUnavailable = errors.New("date unavailable")

	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrAlreadyPaid  = errors.New("already paid")
	ErrInvalidState = errors.New("invalid booking state")
)

// PaymentError carries a gateway decline or failure reason back to the
// caller. The hold is never extended or cleared on a failed charge.
type PaymentError struct {
	Reason string
}

func (e *PaymentError) Error() string {
	return "payment failed: " + e.Reason
}

// PersistenceError wraps a store failure. When it follows a successful
// charge it marks the charged-but-unrecorded condition that the payment
// attempt log exists to reconcile.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failed during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
