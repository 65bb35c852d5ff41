package ledger

import (
	"sync"

	"splitpay/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// account is guarded by its own mutex so ordinary deposits and withdrawals
// never interleave with a multi-account settlement touching the same balance.
type account struct {
	mu       sync.Mutex
	id       domain.AccountID
	owner    string
	currency domain.Currency
	balance  decimal.Decimal
	history  []*domain.Record
	pending  []*domain.Record
}

// AccountState is a point-in-time view of an account, used for persistence.
type AccountState struct {
	ID         domain.AccountID `json:"id" db:"id"`
	OwnerEmail string           `json:"owner_email" db:"owner_email"`
	Currency   domain.Currency  `json:"currency" db:"currency"`
	Balance    decimal.Decimal  `json:"balance" db:"balance"`
}

// removePending drops the marker with the given ID. Caller holds a.mu.
func (a *account) removePending(id uuid.UUID) bool {
	for i, rec := range a.pending {
		if rec.ID == id {
			a.pending = append(a.pending[:i], a.pending[i+1:]...)
			return true
		}
	}
	return false
}

// publish moves the pending marker into permanent history as rec. Caller holds a.mu.
func (a *account) publish(pendingID uuid.UUID, rec *domain.Record) {
	a.removePending(pendingID)
	a.history = append(a.history, rec)
}

func (a *account) state() AccountState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return AccountState{ID: a.id, OwnerEmail: a.owner, Currency: a.currency, Balance: a.balance}
}

func copyRecords(in []*domain.Record) []domain.Record {
	out := make([]domain.Record, len(in))
	for i, rec := range in {
		out[i] = *rec.Clone()
	}
	return out
}
