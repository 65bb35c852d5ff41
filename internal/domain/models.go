// Package domain holds the value types shared by the ledger, forex and split packages.
package domain

import (
	"fmt"
	"strings"
	"time"

	"splitpay/pkg/errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Currency represents ISO 4217 currency codes
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	RON Currency = "RON"
	GBP Currency = "GBP"
)

// AccountID is the stable identifier of a ledger account (an IBAN in practice).
type AccountID string

// SplitKind selects how a split payment's total is divided.
type SplitKind string

const (
	SplitEqual  SplitKind = "equal"
	SplitCustom SplitKind = "custom"
)

// ParseSplitKind accepts the kind literal case-insensitively.
// An empty literal means equal.
func ParseSplitKind(s string) (SplitKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(SplitEqual):
		return SplitEqual, nil
	case string(SplitCustom):
		return SplitCustom, nil
	}
	return "", errors.Wrap(errors.ErrInvalidSplitKind, fmt.Sprintf("unknown split payment type %q", s))
}

// SplitStatus is the lifecycle state of a split request.
type SplitStatus string

const (
	SplitStatusPending   SplitStatus = "pending"
	SplitStatusRejected  SplitStatus = "rejected"
	SplitStatusFinalized SplitStatus = "finalized"
)

// Terminal reports whether no further transition is possible.
func (s SplitStatus) Terminal() bool {
	return s == SplitStatusRejected || s == SplitStatusFinalized
}

// RecordType tags entries in an account's transaction history.
type RecordType string

const (
	RecordSplitPayment RecordType = "split_payment"
	RecordDeposit      RecordType = "deposit"
	RecordWithdrawal   RecordType = "withdrawal"
)

// Record is one entry in an account's history. Split records are shared: the same
// value (same ID) appears in every participant's pending list and, once the split
// ends, in every participant's history. A Record is never mutated after it has been
// attached to an account; outcomes are published as a new value with the same ID.
type Record struct {
	ID               uuid.UUID         `json:"id"`
	Type             RecordType        `json:"type"`
	Timestamp        int64             `json:"timestamp"`
	Description      string            `json:"description"`
	Kind             SplitKind         `json:"split_payment_type,omitempty"`
	Amount           decimal.Decimal   `json:"amount"`
	Currency         Currency          `json:"currency"`
	InvolvedAccounts []AccountID       `json:"involved_accounts,omitempty"`
	AmountsForUsers  []decimal.Decimal `json:"amount_for_users,omitempty"`
	Error            string            `json:"error,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
}

// WithError returns a copy of r carrying msg. Slices are copied so the result
// shares no mutable state with r.
func (r *Record) WithError(msg string) *Record {
	cp := r.Clone()
	cp.Error = msg
	return cp
}

// Clone returns a deep copy of r.
func (r *Record) Clone() *Record {
	cp := *r
	if r.InvolvedAccounts != nil {
		cp.InvolvedAccounts = append([]AccountID(nil), r.InvolvedAccounts...)
	}
	if r.AmountsForUsers != nil {
		cp.AmountsForUsers = append([]decimal.Decimal(nil), r.AmountsForUsers...)
	}
	return &cp
}

// Debit is one leg of a multi-account settlement.
type Debit struct {
	Account AccountID
	Amount  decimal.Decimal
}

// ExchangeRate is a directed edge of the exchange graph.
type ExchangeRate struct {
	BaseCurrency   Currency        `json:"base_currency" db:"base_currency"`
	TargetCurrency Currency        `json:"target_currency" db:"target_currency"`
	Rate           decimal.Decimal `json:"rate" db:"rate"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}
