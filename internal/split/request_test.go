package split

import (
	"testing"

	"splitpay/internal/domain"
	"splitpay/pkg/errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRequest(t *testing.T, ids ...domain.AccountID) *Request {
	t.Helper()
	participants := make([]Participant, len(ids))
	for i, id := range ids {
		participants[i] = Participant{Account: id, Currency: domain.USD, Owed: decimal.NewFromInt(10)}
	}
	req, err := NewRequest(1, domain.SplitEqual, participants, &domain.Record{ID: uuid.New()})
	require.NoError(t, err)
	return req
}

func TestRequest_AcceptUntilFull(t *testing.T) {
	req := newTestRequest(t, "A", "B")

	require.NoError(t, req.Accept("A"))
	assert.False(t, req.IsFullyAccepted())

	require.NoError(t, req.Accept("A"), "second accept is a no-op")
	assert.False(t, req.IsFullyAccepted())

	require.NoError(t, req.Accept("B"))
	assert.True(t, req.IsFullyAccepted())
	assert.Equal(t, domain.SplitStatusPending, req.Status())
	assert.Equal(t, []domain.AccountID{"A", "B"}, req.Snapshot().Accepted)
}

func TestRequest_AcceptUnknownParticipant(t *testing.T) {
	req := newTestRequest(t, "A", "B")

	assert.ErrorIs(t, req.Accept("Z"), errors.ErrUnknownParticipant)
}

func TestRequest_AcceptAfterTerminal(t *testing.T) {
	req := newTestRequest(t, "A", "B")
	require.NoError(t, req.Reject())

	assert.ErrorIs(t, req.Accept("A"), errors.ErrAlreadyTerminal)
	assert.False(t, req.IsFullyAccepted())
}

func TestRequest_RejectIsIdempotent(t *testing.T) {
	req := newTestRequest(t, "A")

	require.NoError(t, req.Reject())
	require.NoError(t, req.Reject())
	assert.Equal(t, domain.SplitStatusRejected, req.Status())
}

func TestRequest_RejectAfterFinalize(t *testing.T) {
	req := newTestRequest(t, "A")
	require.NoError(t, req.Accept("A"))
	require.NoError(t, req.finalize())

	assert.ErrorIs(t, req.Reject(), errors.ErrAlreadyFinalized)
	assert.Equal(t, domain.SplitStatusFinalized, req.Status())
	assert.ErrorIs(t, req.finalize(), errors.ErrAlreadyTerminal)
}

func TestNewRequest_Validation(t *testing.T) {
	rec := &domain.Record{ID: uuid.New()}

	_, err := NewRequest(1, domain.SplitEqual, nil, rec)
	assert.ErrorIs(t, err, errors.ErrNoAccounts)

	_, err = NewRequest(1, domain.SplitEqual, []Participant{{Account: "A"}, {Account: "A"}}, rec)
	assert.ErrorIs(t, err, errors.ErrDuplicateParticipant)
}

func TestRequest_DebitsKeepInsertionOrder(t *testing.T) {
	req := newTestRequest(t, "C", "A", "B")

	debits := req.Debits()
	require.Len(t, debits, 3)
	assert.Equal(t, domain.AccountID("C"), debits[0].Account)
	assert.Equal(t, domain.AccountID("B"), debits[2].Account)
	assert.Equal(t, []domain.AccountID{"C", "A", "B"}, req.Accounts())
}
