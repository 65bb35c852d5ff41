package split

import (
	"splitpay/internal/domain"

	"github.com/google/uuid"
)

type EventType string

const (
	EventSubmitted EventType = "split.submitted"
	EventAccepted  EventType = "split.accepted"
	EventRejected  EventType = "split.rejected"
	EventFinalized EventType = "split.finalized"
	EventFailed    EventType = "split.failed"
)

// Event describes a split lifecycle change. Record is the shared record as
// published to participants and must be treated as read-only.
type Event struct {
	Type      EventType        `json:"type"`
	RequestID uuid.UUID        `json:"request_id"`
	Record    *domain.Record   `json:"record,omitempty"`
	Account   domain.AccountID `json:"account,omitempty"`
}

// Observer receives events after the coordinator has released its lock.
// Events from concurrent operations may arrive in any order.
type Observer func(Event)

// Subscribe registers an observer.
func (c *Coordinator) Subscribe(o Observer) {
	c.obsMu.Lock()
	defer c.obsMu.Unlock()
	c.observers = append(c.observers, o)
}

func (c *Coordinator) dispatch(events []Event) {
	if len(events) == 0 {
		return
	}
	c.obsMu.RLock()
	observers := append([]Observer(nil), c.observers...)
	c.obsMu.RUnlock()
	for _, ev := range events {
		for _, o := range observers {
			o(ev)
		}
	}
}
