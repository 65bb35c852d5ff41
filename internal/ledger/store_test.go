package ledger

import (
	"sync"
	"testing"

	"splitpay/internal/domain"
	"splitpay/pkg/errors"
	"splitpay/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(logger.NewNop())
	require.NoError(t, s.AddUser("alice@example.com"))
	require.NoError(t, s.AddUser("bob@example.com"))
	_, err := s.OpenAccount("alice@example.com", "A", domain.USD, decimal.NewFromInt(100))
	require.NoError(t, err)
	_, err = s.OpenAccount("bob@example.com", "B", domain.USD, decimal.NewFromInt(50))
	require.NoError(t, err)
	return s
}

func balance(t *testing.T, s *Store, id domain.AccountID) decimal.Decimal {
	t.Helper()
	b, err := s.Balance(id)
	require.NoError(t, err)
	return b
}

func TestStore_OpenAccount(t *testing.T) {
	s := newTestStore(t)

	_, err := s.OpenAccount("nobody@example.com", "", domain.USD, decimal.Zero)
	assert.ErrorIs(t, err, errors.ErrUserNotFound)

	_, err = s.OpenAccount("alice@example.com", "A", domain.USD, decimal.Zero)
	assert.ErrorIs(t, err, errors.ErrAccountExists)

	_, err = s.OpenAccount("alice@example.com", "", domain.USD, decimal.NewFromInt(-1))
	assert.ErrorIs(t, err, errors.ErrInvalidAmount)

	id, err := s.OpenAccount("alice@example.com", "", domain.EUR, decimal.Zero)
	require.NoError(t, err)
	assert.Len(t, string(id), 22)

	owned, err := s.AccountsOf("alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, []domain.AccountID{"A", id}, owned)

	assert.ErrorIs(t, s.AddUser("alice@example.com"), errors.ErrUserAlreadyExists)
}

func TestStore_DepositWithdraw(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Deposit("A", decimal.NewFromInt(25)))
	assert.True(t, balance(t, s, "A").Equal(decimal.NewFromInt(125)))

	assert.ErrorIs(t, s.Withdraw("B", decimal.NewFromInt(51)), errors.ErrInsufficientBalance)
	require.NoError(t, s.Withdraw("B", decimal.NewFromInt(50)))
	assert.True(t, balance(t, s, "B").IsZero())

	assert.ErrorIs(t, s.Deposit("A", decimal.Zero), errors.ErrInvalidAmount)
	assert.ErrorIs(t, s.Deposit("Z", decimal.NewFromInt(1)), errors.ErrAccountNotFound)

	history, err := s.History("A")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.RecordDeposit, history[0].Type)
}

func TestStore_SettleAllOrNothing(t *testing.T) {
	s := newTestStore(t)
	rec := &domain.Record{ID: uuid.New(), Type: domain.RecordSplitPayment}
	require.NoError(t, s.AddPending([]domain.AccountID{"A", "B"}, rec))

	err := s.Settle([]domain.Debit{
		{Account: "A", Amount: decimal.NewFromInt(30)},
		{Account: "B", Amount: decimal.NewFromInt(60)},
	}, rec.ID, rec)

	var insufficient *errors.InsufficientFundsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "B", insufficient.AccountID)
	assert.Equal(t, "Account B has insufficient funds for a split payment.", err.Error())
	assert.True(t, balance(t, s, "A").Equal(decimal.NewFromInt(100)))
	assert.True(t, balance(t, s, "B").Equal(decimal.NewFromInt(50)))

	pending, err := s.Pending("A")
	require.NoError(t, err)
	assert.Len(t, pending, 1, "failed settle leaves markers untouched")

	err = s.Settle([]domain.Debit{
		{Account: "A", Amount: decimal.NewFromInt(30)},
		{Account: "B", Amount: decimal.NewFromInt(50)},
	}, rec.ID, rec)
	require.NoError(t, err)
	assert.True(t, balance(t, s, "A").Equal(decimal.NewFromInt(70)))
	assert.True(t, balance(t, s, "B").IsZero())

	for _, id := range []domain.AccountID{"A", "B"} {
		pending, err := s.Pending(id)
		require.NoError(t, err)
		assert.Empty(t, pending)
		history, err := s.History(id)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, rec.ID, history[0].ID)
	}
}

func TestStore_SettleReportsFirstShortInGivenOrder(t *testing.T) {
	s := newTestStore(t)
	rec := &domain.Record{ID: uuid.New()}

	err := s.Settle([]domain.Debit{
		{Account: "B", Amount: decimal.NewFromInt(500)},
		{Account: "A", Amount: decimal.NewFromInt(500)},
	}, rec.ID, rec)

	var insufficient *errors.InsufficientFundsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "B", insufficient.AccountID)
	assert.ErrorIs(t, err, errors.ErrInsufficientBalance)
}

func TestStore_SettleUnknownOrDuplicate(t *testing.T) {
	s := newTestStore(t)
	rec := &domain.Record{ID: uuid.New()}

	err := s.Settle([]domain.Debit{{Account: "Z", Amount: decimal.NewFromInt(1)}}, rec.ID, rec)
	assert.ErrorIs(t, err, errors.ErrAccountNotFound)

	err = s.Settle([]domain.Debit{
		{Account: "A", Amount: decimal.NewFromInt(1)},
		{Account: "A", Amount: decimal.NewFromInt(1)},
	}, rec.ID, rec)
	assert.ErrorIs(t, err, errors.ErrDuplicateParticipant)
	assert.True(t, balance(t, s, "A").Equal(decimal.NewFromInt(100)))
}

func TestStore_Resolve(t *testing.T) {
	s := newTestStore(t)
	rec := &domain.Record{ID: uuid.New()}
	require.NoError(t, s.AddPending([]domain.AccountID{"A", "B"}, rec))

	final := rec.WithError("One user rejected the payment.")
	require.NoError(t, s.Resolve([]domain.AccountID{"A", "B"}, rec.ID, final))

	for _, id := range []domain.AccountID{"A", "B"} {
		pending, _ := s.Pending(id)
		assert.Empty(t, pending)
		history, _ := s.History(id)
		require.Len(t, history, 1)
		assert.Equal(t, "One user rejected the payment.", history[0].Error)
	}
	assert.True(t, balance(t, s, "A").Equal(decimal.NewFromInt(100)))
}

func TestStore_ConcurrentWithdrawAndSettle(t *testing.T) {
	s := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.Withdraw("A", decimal.NewFromInt(3))
		}()
		go func() {
			defer wg.Done()
			rec := &domain.Record{ID: uuid.New()}
			_ = s.Settle([]domain.Debit{
				{Account: "A", Amount: decimal.NewFromInt(2)},
				{Account: "B", Amount: decimal.NewFromInt(1)},
			}, rec.ID, rec)
		}()
	}
	wg.Wait()

	assert.False(t, balance(t, s, "A").IsNegative())
	assert.False(t, balance(t, s, "B").IsNegative())
}

func TestStore_SnapshotRestore(t *testing.T) {
	s := newTestStore(t)
	snap := s.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, domain.AccountID("A"), snap[0].ID)

	restored := NewStore(logger.NewNop())
	require.NoError(t, restored.Restore(snap))
	assert.True(t, balance(t, restored, "B").Equal(decimal.NewFromInt(50)))

	owned, err := restored.AccountsOf("bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, []domain.AccountID{"B"}, owned)
}
