// ==============================================================================
// LEDGER STORE - internal/ledger/store.go
// ==============================================================================
package ledger

import (
	"sort"
	"strings"
	"sync"
	"time"

	"splitpay/internal/domain"
	"splitpay/pkg/errors"
	"splitpay/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store is the in-memory ledger: users by email, accounts by ID.
// The store-level lock only guards the indexes; balances are guarded per account.
type Store struct {
	mu       sync.RWMutex
	users    map[string][]domain.AccountID
	accounts map[domain.AccountID]*account
	logger   logger.Logger
	now      func() time.Time
}

func NewStore(log logger.Logger) *Store {
	return &Store{
		users:    make(map[string][]domain.AccountID),
		accounts: make(map[domain.AccountID]*account),
		logger:   log,
		now:      time.Now,
	}
}

// AddUser registers an account holder.
func (s *Store) AddUser(email string) error {
	email = strings.TrimSpace(email)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[email]; ok {
		return errors.ErrUserAlreadyExists
	}
	s.users[email] = nil
	return nil
}

// OpenAccount creates an account for an existing user. An empty id is generated.
func (s *Store) OpenAccount(email string, id domain.AccountID, currency domain.Currency, initial decimal.Decimal) (domain.AccountID, error) {
	if initial.IsNegative() {
		return "", errors.ErrInvalidAmount
	}
	if id == "" {
		id = newAccountID()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	owned, ok := s.users[email]
	if !ok {
		return "", errors.ErrUserNotFound
	}
	if _, exists := s.accounts[id]; exists {
		return "", errors.ErrAccountExists
	}
	s.accounts[id] = &account{id: id, owner: email, currency: currency, balance: initial}
	s.users[email] = append(owned, id)

	s.logger.Info("Account opened", map[string]interface{}{
		"account_id": id,
		"owner":      email,
		"currency":   currency,
	})
	return id, nil
}

func newAccountID() domain.AccountID {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return domain.AccountID("SP" + raw[:20])
}

func (s *Store) lookup(id domain.AccountID) (*account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, errors.ErrAccountNotFound
	}
	return a, nil
}

// Exists reports whether the account is known.
func (s *Store) Exists(id domain.AccountID) bool {
	_, err := s.lookup(id)
	return err == nil
}

// AccountsOf lists a user's accounts in opening order.
func (s *Store) AccountsOf(email string) ([]domain.AccountID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	owned, ok := s.users[email]
	if !ok {
		return nil, errors.ErrUserNotFound
	}
	return append([]domain.AccountID(nil), owned...), nil
}

func (s *Store) Currency(id domain.AccountID) (domain.Currency, error) {
	a, err := s.lookup(id)
	if err != nil {
		return "", err
	}
	return a.currency, nil
}

func (s *Store) Balance(id domain.AccountID) (decimal.Decimal, error) {
	a, err := s.lookup(id)
	if err != nil {
		return decimal.Zero, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balance, nil
}

// History returns copies of the account's permanent records.
func (s *Store) History(id domain.AccountID) ([]domain.Record, error) {
	a, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return copyRecords(a.history), nil
}

// Pending returns copies of the account's pending split markers.
func (s *Store) Pending(id domain.AccountID) ([]domain.Record, error) {
	a, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return copyRecords(a.pending), nil
}

// Deposit credits an account and records it.
func (s *Store) Deposit(id domain.AccountID, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return errors.ErrInvalidAmount
	}
	a, err := s.lookup(id)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.balance = a.balance.Add(amount)
	a.history = append(a.history, s.movement(domain.RecordDeposit, "Deposit", amount, a.currency))
	return nil
}

// Withdraw debits an account; the balance never goes negative.
func (s *Store) Withdraw(id domain.AccountID, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return errors.ErrInvalidAmount
	}
	a, err := s.lookup(id)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.balance.LessThan(amount) {
		return errors.ErrInsufficientBalance
	}
	a.balance = a.balance.Sub(amount)
	a.history = append(a.history, s.movement(domain.RecordWithdrawal, "Withdrawal", amount, a.currency))
	return nil
}

func (s *Store) movement(typ domain.RecordType, desc string, amount decimal.Decimal, cur domain.Currency) *domain.Record {
	now := s.now()
	return &domain.Record{
		ID:          uuid.New(),
		Type:        typ,
		Timestamp:   now.Unix(),
		Description: desc,
		Amount:      amount,
		Currency:    cur,
		CreatedAt:   now,
	}
}

// AddPending attaches rec to the pending list of every account, or of none.
func (s *Store) AddPending(ids []domain.AccountID, rec *domain.Record) error {
	accts, err := s.collect(ids)
	if err != nil {
		return err
	}
	for _, a := range accts {
		a.mu.Lock()
		a.pending = append(a.pending, rec)
		a.mu.Unlock()
	}
	return nil
}

// Settle applies every debit or none. All involved accounts are locked in
// sorted ID order, balances are checked in the order debits are given, and
// only when none is short are the debits applied and the pending marker
// replaced by rec in each account's history.
func (s *Store) Settle(debits []domain.Debit, pendingID uuid.UUID, rec *domain.Record) error {
	ids := make([]domain.AccountID, len(debits))
	for i, d := range debits {
		if d.Amount.IsNegative() {
			return errors.ErrInvalidAmount
		}
		ids[i] = d.Account
	}
	accts, err := s.collect(ids)
	if err != nil {
		return err
	}

	unlock := lockAll(accts)
	defer unlock()

	for i, d := range debits {
		if accts[i].balance.LessThan(d.Amount) {
			return &errors.InsufficientFundsError{AccountID: string(d.Account)}
		}
	}

	for i, d := range debits {
		a := accts[i]
		a.balance = a.balance.Sub(d.Amount)
		a.publish(pendingID, rec)
	}
	return nil
}

// Resolve replaces the pending marker with rec on every account without moving funds.
func (s *Store) Resolve(ids []domain.AccountID, pendingID uuid.UUID, rec *domain.Record) error {
	accts, err := s.collect(ids)
	if err != nil {
		return err
	}
	unlock := lockAll(accts)
	defer unlock()
	for _, a := range accts {
		a.publish(pendingID, rec)
	}
	return nil
}

// Snapshot returns the state of every account, sorted by ID.
func (s *Store) Snapshot() []AccountState {
	s.mu.RLock()
	accts := make([]*account, 0, len(s.accounts))
	for _, a := range s.accounts {
		accts = append(accts, a)
	}
	s.mu.RUnlock()

	out := make([]AccountState, len(accts))
	for i, a := range accts {
		out[i] = a.state()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Restore loads persisted accounts, creating owners as needed.
func (s *Store) Restore(states []AccountState) error {
	for _, st := range states {
		if err := s.AddUser(st.OwnerEmail); err != nil && !errors.Is(err, errors.ErrUserAlreadyExists) {
			return err
		}
		if _, err := s.OpenAccount(st.OwnerEmail, st.ID, st.Currency, st.Balance); err != nil {
			return errors.Wrap(err, "failed to restore account "+string(st.ID))
		}
	}
	return nil
}

// collect resolves ids to accounts, keeping their order. Duplicates are rejected.
func (s *Store) collect(ids []domain.AccountID) ([]*account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[domain.AccountID]bool, len(ids))
	out := make([]*account, len(ids))
	for i, id := range ids {
		if seen[id] {
			return nil, errors.ErrDuplicateParticipant
		}
		seen[id] = true
		a, ok := s.accounts[id]
		if !ok {
			return nil, errors.ErrAccountNotFound
		}
		out[i] = a
	}
	return out, nil
}

// lockAll locks accounts in deterministic order to prevent deadlocks.
func lockAll(accts []*account) func() {
	ordered := append([]*account(nil), accts...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].id < ordered[j].id })
	for _, a := range ordered {
		a.mu.Lock()
	}
	return func() {
		for i := len(ordered) - 1; i >= 0; i-- {
			ordered[i].mu.Unlock()
		}
	}
}
