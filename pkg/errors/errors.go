// Package errors provides common, reusable error values and helpers.
package errors

import (
	"errors"
	"fmt"
)

// RejectedMessage is written into the shared record when a participant rejects a split.
const RejectedMessage = "One user rejected the payment."

// Not found
var (
	ErrUserNotFound     = errors.New("User not found")
	ErrAccountNotFound  = errors.New("account not found")
	ErrSplitNotFound    = errors.New("split payment not found")
	ErrRateNotAvailable = errors.New("exchange rate not available")
)

// Invalid state
var (
	ErrUnknownParticipant = errors.New("account not part of this split")
	ErrAlreadyTerminal    = errors.New("split payment already rejected or finalized")
	ErrAlreadyFinalized   = errors.New("cannot reject a finalized split payment")
)

// Validation
var (
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidRate          = errors.New("exchange rate must be positive")
	ErrNoAccounts           = errors.New("No accounts provided for split payment.")
	ErrAmountMismatch       = errors.New("Mismatch between accounts and custom amounts")
	ErrDuplicateParticipant = errors.New("account listed more than once in split")
	ErrInvalidSplitKind     = errors.New("invalid split payment type")
	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrAccountExists        = errors.New("account already exists")
	ErrDuplicateRequest     = errors.New("duplicate request in progress")
)

// Funds
var ErrInsufficientBalance = errors.New("insufficient balance")

// InsufficientFundsError names the first participant found short during settlement.
type InsufficientFundsError struct {
	AccountID string
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("Account %s has insufficient funds for a split payment.", e.AccountID)
}

func (e *InsufficientFundsError) Unwrap() error {
	return ErrInsufficientBalance
}

// NoPendingSplitError is returned when a participant has nothing of the given kind to act on.
type NoPendingSplitError struct {
	Kind string
}

func (e *NoPendingSplitError) Error() string {
	return fmt.Sprintf("No pending split of type %s found for user", e.Kind)
}

func (e *NoPendingSplitError) Unwrap() error {
	return ErrSplitNotFound
}

// IsNotFound reports whether err belongs to the not-found class.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrSplitNotFound) ||
		errors.Is(err, ErrRateNotAvailable)
}

// IsInvalidState reports whether err is a soft protocol violation.
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrUnknownParticipant) ||
		errors.Is(err, ErrAlreadyTerminal) ||
		errors.Is(err, ErrAlreadyFinalized)
}

// Is and As forward to the standard library so callers need a single import.
func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target interface{}) bool { return errors.As(err, target) }

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
