// ==============================================================================
// SPLIT COORDINATOR - internal/split/coordinator.go
// ==============================================================================
package split

import (
	"context"
	"fmt"
	"sync"
	"time"

	"splitpay/internal/domain"
	"splitpay/pkg/errors"
	"splitpay/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ledger is the account store the coordinator settles against.
type Ledger interface {
	Currency(id domain.AccountID) (domain.Currency, error)
	AccountsOf(email string) ([]domain.AccountID, error)
	AddPending(ids []domain.AccountID, rec *domain.Record) error
	Settle(debits []domain.Debit, pendingID uuid.UUID, rec *domain.Record) error
	Resolve(ids []domain.AccountID, pendingID uuid.UUID, rec *domain.Record) error
}

// RateResolver converts between currencies.
type RateResolver interface {
	Resolve(from, to domain.Currency) (decimal.Decimal, error)
}

// SubmitInput describes a new split payment.
type SubmitInput struct {
	Kind            domain.SplitKind
	Accounts        []domain.AccountID
	Amount          decimal.Decimal
	Currency        domain.Currency
	AmountsForUsers []decimal.Decimal
	Timestamp       int64
}

// Outcome reports the state of a request after an accept or reject.
// Record is set once the request has reached a terminal state.
type Outcome struct {
	RequestID uuid.UUID          `json:"request_id"`
	Status    domain.SplitStatus `json:"status"`
	Record    *domain.Record     `json:"record,omitempty"`
}

// Coordinator owns every outstanding split request. All lookups and state
// transitions run under one mutex, so two accepts racing on the same request
// settle it exactly once.
type Coordinator struct {
	mu       sync.Mutex
	ledger   Ledger
	rates    RateResolver
	logger   logger.Logger
	requests []*Request
	seq      uint64
	now      func() time.Time

	obsMu     sync.RWMutex
	observers []Observer
}

type Option func(*Coordinator)

// WithClock overrides the time source used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithObserver registers an observer at construction.
func WithObserver(o Observer) Option {
	return func(c *Coordinator) { c.observers = append(c.observers, o) }
}

func NewCoordinator(ledger Ledger, rates RateResolver, log logger.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		ledger: ledger,
		rates:  rates,
		logger: log,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit validates the input, freezes every participant's share in their own
// currency and registers a pending request. A missing account or exchange
// rate fails the whole submission.
func (c *Coordinator) Submit(ctx context.Context, in SubmitInput) (uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return uuid.Nil, err
	}
	if len(in.Accounts) == 0 {
		return uuid.Nil, errors.ErrNoAccounts
	}
	if in.Kind == "" {
		in.Kind = domain.SplitEqual
	}

	var events []Event
	defer func() { c.dispatch(events) }()

	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[domain.AccountID]bool, len(in.Accounts))
	currencies := make([]domain.Currency, len(in.Accounts))
	for i, id := range in.Accounts {
		if seen[id] {
			return uuid.Nil, errors.ErrDuplicateParticipant
		}
		seen[id] = true
		cur, err := c.ledger.Currency(id)
		if err != nil {
			return uuid.Nil, errors.ErrUserNotFound
		}
		currencies[i] = cur
	}

	owed, err := computeShares(in, currencies, c.rates)
	if err != nil {
		return uuid.Nil, err
	}

	now := c.now()
	ts := in.Timestamp
	if ts == 0 {
		ts = now.Unix()
	}
	total := recordTotal(in)
	rec := &domain.Record{
		ID:               uuid.New(),
		Type:             domain.RecordSplitPayment,
		Timestamp:        ts,
		Description:      fmt.Sprintf("Split payment of %s %s", total.StringFixed(2), in.Currency),
		Kind:             in.Kind,
		Amount:           total,
		Currency:         in.Currency,
		InvolvedAccounts: append([]domain.AccountID(nil), in.Accounts...),
		CreatedAt:        now,
	}
	if in.Kind == domain.SplitCustom {
		rec.AmountsForUsers = append([]decimal.Decimal(nil), in.AmountsForUsers...)
	}

	participants := make([]Participant, len(in.Accounts))
	for i, id := range in.Accounts {
		participants[i] = Participant{Account: id, Currency: currencies[i], Owed: owed[i]}
	}

	c.seq++
	req, err := NewRequest(c.seq, in.Kind, participants, rec)
	if err != nil {
		return uuid.Nil, err
	}
	if err := c.ledger.AddPending(req.Accounts(), rec); err != nil {
		return uuid.Nil, errors.Wrap(err, "failed to attach pending split")
	}
	c.requests = append(c.requests, req)

	c.logger.Info("Split payment submitted", map[string]interface{}{
		"request_id":   rec.ID,
		"type":         in.Kind,
		"amount":       total.String(),
		"currency":     in.Currency,
		"participants": len(participants),
	})
	events = append(events, Event{Type: EventSubmitted, RequestID: rec.ID, Record: rec})
	return rec.ID, nil
}

// FindPending returns the oldest pending request of kind that includes account.
func (c *Coordinator) FindPending(kind domain.SplitKind, account domain.AccountID) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	req := c.firstPending(kind, account)
	if req == nil {
		return Snapshot{}, &errors.NoPendingSplitError{Kind: string(kind)}
	}
	return req.Snapshot(), nil
}

// Accept records account's acceptance on its oldest pending request of kind and
// settles the request when it was the last one missing.
func (c *Coordinator) Accept(ctx context.Context, kind domain.SplitKind, account domain.AccountID) (*Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var events []Event
	defer func() { c.dispatch(events) }()

	c.mu.Lock()
	defer c.mu.Unlock()

	req := c.firstPending(kind, account)
	if req == nil {
		return nil, &errors.NoPendingSplitError{Kind: string(kind)}
	}
	return c.accept(req, account, &events)
}

// AcceptRequest accepts a specific request by ID.
func (c *Coordinator) AcceptRequest(ctx context.Context, id uuid.UUID, account domain.AccountID) (*Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var events []Event
	defer func() { c.dispatch(events) }()

	c.mu.Lock()
	defer c.mu.Unlock()

	req := c.byID(id)
	if req == nil {
		return nil, errors.ErrSplitNotFound
	}
	return c.accept(req, account, &events)
}

// AcceptForUser walks the user's accounts in opening order and accepts on the
// first one holding a pending request of kind.
func (c *Coordinator) AcceptForUser(ctx context.Context, email string, kind domain.SplitKind) (*Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	owned, err := c.ledger.AccountsOf(email)
	if err != nil {
		return nil, errors.ErrUserNotFound
	}

	var events []Event
	defer func() { c.dispatch(events) }()

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, id := range owned {
		if req := c.firstPending(kind, id); req != nil {
			return c.accept(req, id, &events)
		}
	}
	return nil, &errors.NoPendingSplitError{Kind: string(kind)}
}

// Reject rejects account's oldest pending request of kind on behalf of every participant.
func (c *Coordinator) Reject(ctx context.Context, kind domain.SplitKind, account domain.AccountID) (*Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var events []Event
	defer func() { c.dispatch(events) }()

	c.mu.Lock()
	defer c.mu.Unlock()

	req := c.firstPending(kind, account)
	if req == nil {
		return nil, &errors.NoPendingSplitError{Kind: string(kind)}
	}
	return c.reject(req, account, &events)
}

// RejectRequest rejects a specific request by ID.
func (c *Coordinator) RejectRequest(ctx context.Context, id uuid.UUID) (*Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var events []Event
	defer func() { c.dispatch(events) }()

	c.mu.Lock()
	defer c.mu.Unlock()

	req := c.byID(id)
	if req == nil {
		return nil, errors.ErrSplitNotFound
	}
	return c.reject(req, "", &events)
}

// RejectForUser is the rejecting counterpart of AcceptForUser.
func (c *Coordinator) RejectForUser(ctx context.Context, email string, kind domain.SplitKind) (*Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	owned, err := c.ledger.AccountsOf(email)
	if err != nil {
		return nil, errors.ErrUserNotFound
	}

	var events []Event
	defer func() { c.dispatch(events) }()

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, id := range owned {
		if req := c.firstPending(kind, id); req != nil {
			return c.reject(req, id, &events)
		}
	}
	return nil, &errors.NoPendingSplitError{Kind: string(kind)}
}

// Outstanding lists pending requests in submission order.
func (c *Coordinator) Outstanding() []Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Snapshot, len(c.requests))
	for i, req := range c.requests {
		out[i] = req.Snapshot()
	}
	return out
}

// OutstandingFor lists pending requests that include account.
func (c *Coordinator) OutstandingFor(account domain.AccountID) []Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Snapshot
	for _, req := range c.requests {
		if req.Contains(account) {
			out = append(out, req.Snapshot())
		}
	}
	return out
}

// --- internals, all called with c.mu held ---

func (c *Coordinator) firstPending(kind domain.SplitKind, account domain.AccountID) *Request {
	if kind == "" {
		kind = domain.SplitEqual
	}
	for _, req := range c.requests {
		if req.Status() == domain.SplitStatusPending && req.Kind() == kind && req.Contains(account) {
			return req
		}
	}
	return nil
}

func (c *Coordinator) byID(id uuid.UUID) *Request {
	for _, req := range c.requests {
		if req.ID() == id {
			return req
		}
	}
	return nil
}

func (c *Coordinator) remove(req *Request) {
	for i, r := range c.requests {
		if r == req {
			c.requests = append(c.requests[:i], c.requests[i+1:]...)
			return
		}
	}
}

func (c *Coordinator) accept(req *Request, account domain.AccountID, events *[]Event) (*Outcome, error) {
	if err := req.Accept(account); err != nil {
		return nil, err
	}
	*events = append(*events, Event{Type: EventAccepted, RequestID: req.ID(), Record: req.Record(), Account: account})

	if !req.IsFullyAccepted() {
		return &Outcome{RequestID: req.ID(), Status: req.Status()}, nil
	}
	return c.settle(req, events)
}

// settle debits every participant or none. A short participant aborts the
// request: it is rejected and every participant receives the failure record.
func (c *Coordinator) settle(req *Request, events *[]Event) (*Outcome, error) {
	final := req.Record().Clone()
	err := c.ledger.Settle(req.Debits(), req.ID(), final)
	if err == nil {
		if ferr := req.finalize(); ferr != nil {
			return nil, ferr
		}
		c.remove(req)
		c.logger.Info("Split payment finalized", map[string]interface{}{
			"request_id": req.ID(),
		})
		*events = append(*events, Event{Type: EventFinalized, RequestID: req.ID(), Record: final})
		return &Outcome{RequestID: req.ID(), Status: req.Status(), Record: final}, nil
	}

	_ = req.Reject()
	failed := req.Record().WithError(err.Error())
	if rerr := c.ledger.Resolve(req.Accounts(), req.ID(), failed); rerr != nil {
		c.logger.Error("Failed to publish split failure", map[string]interface{}{
			"request_id": req.ID(),
			"error":      rerr.Error(),
		})
	}
	c.remove(req)

	fields := map[string]interface{}{
		"request_id": req.ID(),
		"error":      err.Error(),
	}
	var insufficient *errors.InsufficientFundsError
	if errors.As(err, &insufficient) {
		fields["account_id"] = insufficient.AccountID
		c.logger.Warn("Split payment aborted", fields)
	} else {
		c.logger.Error("Split payment settlement failed", fields)
	}
	*events = append(*events, Event{Type: EventFailed, RequestID: req.ID(), Record: failed})
	return &Outcome{RequestID: req.ID(), Status: req.Status(), Record: failed}, err
}

func (c *Coordinator) reject(req *Request, account domain.AccountID, events *[]Event) (*Outcome, error) {
	if err := req.Reject(); err != nil {
		return nil, err
	}
	final := req.Record().WithError(errors.RejectedMessage)
	if err := c.ledger.Resolve(req.Accounts(), req.ID(), final); err != nil {
		c.logger.Error("Failed to publish split rejection", map[string]interface{}{
			"request_id": req.ID(),
			"error":      err.Error(),
		})
	}
	c.remove(req)

	c.logger.Info("Split payment rejected", map[string]interface{}{
		"request_id": req.ID(),
		"account_id": account,
	})
	*events = append(*events, Event{Type: EventRejected, RequestID: req.ID(), Record: final, Account: account})
	return &Outcome{RequestID: req.ID(), Status: req.Status(), Record: final}, nil
}
