// Package split implements multi-party split payments: the per-request acceptance
// state machine and the coordinator that matches participants to requests and
// settles them atomically against the ledger.
package split

import (
	"splitpay/internal/domain"
	"splitpay/pkg/errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Participant is one account owing a share, frozen in its own currency at submission.
type Participant struct {
	Account  domain.AccountID `json:"account"`
	Currency domain.Currency  `json:"currency"`
	Owed     decimal.Decimal  `json:"owed"`
}

// Request is the state of one split payment. It is not safe for concurrent
// use; the Coordinator serialises access.
type Request struct {
	id           uuid.UUID
	seq          uint64
	kind         domain.SplitKind
	participants []Participant
	index        map[domain.AccountID]int
	accepted     map[domain.AccountID]bool
	status       domain.SplitStatus
	record       *domain.Record
}

// NewRequest builds a pending request. Participant order is kept and drives
// every later iteration, including the settlement balance check.
func NewRequest(seq uint64, kind domain.SplitKind, participants []Participant, rec *domain.Record) (*Request, error) {
	if len(participants) == 0 {
		return nil, errors.ErrNoAccounts
	}
	index := make(map[domain.AccountID]int, len(participants))
	for i, p := range participants {
		if _, dup := index[p.Account]; dup {
			return nil, errors.ErrDuplicateParticipant
		}
		index[p.Account] = i
	}
	return &Request{
		id:           rec.ID,
		seq:          seq,
		kind:         kind,
		participants: append([]Participant(nil), participants...),
		index:        index,
		accepted:     make(map[domain.AccountID]bool, len(participants)),
		status:       domain.SplitStatusPending,
		record:       rec,
	}, nil
}

func (r *Request) ID() uuid.UUID              { return r.id }
func (r *Request) Kind() domain.SplitKind     { return r.kind }
func (r *Request) Status() domain.SplitStatus { return r.status }

// Record is the pending marker shared by all participants.
func (r *Request) Record() *domain.Record { return r.record }

// Contains reports whether the account takes part in this split.
func (r *Request) Contains(id domain.AccountID) bool {
	_, ok := r.index[id]
	return ok
}

// Accept records one participant's agreement. Accepting twice is a no-op.
func (r *Request) Accept(id domain.AccountID) error {
	if !r.Contains(id) {
		return errors.ErrUnknownParticipant
	}
	if r.status != domain.SplitStatusPending {
		return errors.ErrAlreadyTerminal
	}
	r.accepted[id] = true
	return nil
}

// Reject moves a pending request to Rejected. Rejecting twice is a no-op.
func (r *Request) Reject() error {
	if r.status == domain.SplitStatusFinalized {
		return errors.ErrAlreadyFinalized
	}
	r.status = domain.SplitStatusRejected
	return nil
}

// IsFullyAccepted is true while pending once every participant has accepted.
func (r *Request) IsFullyAccepted() bool {
	if r.status != domain.SplitStatusPending {
		return false
	}
	for _, p := range r.participants {
		if !r.accepted[p.Account] {
			return false
		}
	}
	return true
}

func (r *Request) finalize() error {
	if r.status != domain.SplitStatusPending {
		return errors.ErrAlreadyTerminal
	}
	r.status = domain.SplitStatusFinalized
	return nil
}

// Accounts lists participants in insertion order.
func (r *Request) Accounts() []domain.AccountID {
	out := make([]domain.AccountID, len(r.participants))
	for i, p := range r.participants {
		out[i] = p.Account
	}
	return out
}

// Debits lists each participant's owed amount in insertion order.
func (r *Request) Debits() []domain.Debit {
	out := make([]domain.Debit, len(r.participants))
	for i, p := range r.participants {
		out[i] = domain.Debit{Account: p.Account, Amount: p.Owed}
	}
	return out
}

// Snapshot is a read-only copy of a request for reporting.
type Snapshot struct {
	ID           uuid.UUID          `json:"id"`
	Seq          uint64             `json:"seq"`
	Kind         domain.SplitKind   `json:"split_payment_type"`
	Status       domain.SplitStatus `json:"status"`
	Participants []Participant      `json:"participants"`
	Accepted     []domain.AccountID `json:"accepted"`
	Record       domain.Record      `json:"record"`
}

func (r *Request) Snapshot() Snapshot {
	accepted := make([]domain.AccountID, 0, len(r.accepted))
	for _, p := range r.participants {
		if r.accepted[p.Account] {
			accepted = append(accepted, p.Account)
		}
	}
	return Snapshot{
		ID:           r.id,
		Seq:          r.seq,
		Kind:         r.kind,
		Status:       r.status,
		Participants: append([]Participant(nil), r.participants...),
		Accepted:     accepted,
		Record:       *r.record.Clone(),
	}
}
