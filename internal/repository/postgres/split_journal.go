// ==============================================================================
// SPLIT JOURNAL REPOSITORY - internal/repository/postgres/split_journal.go
// ==============================================================================
package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"splitpay/internal/split"
	"splitpay/pkg/errors"
	"splitpay/pkg/logger"
)

// JournalEntry is one persisted split lifecycle event.
type JournalEntry struct {
	ID        int64           `db:"id" json:"id"`
	RequestID uuid.UUID       `db:"request_id" json:"request_id"`
	EventType string          `db:"event_type" json:"event_type"`
	AccountID string          `db:"account_id" json:"account_id,omitempty"`
	Record    json.RawMessage `db:"record" json:"record,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// SplitJournalRepository is an append-only audit trail of split events.
type SplitJournalRepository struct {
	db *sqlx.DB
}

func NewSplitJournalRepository(db *sqlx.DB) *SplitJournalRepository {
	return &SplitJournalRepository{db: db}
}

func (r *SplitJournalRepository) Append(ctx context.Context, ev split.Event) error {
	var record []byte
	if ev.Record != nil {
		raw, err := json.Marshal(ev.Record)
		if err != nil {
			return errors.Wrap(err, "failed to encode split record")
		}
		record = raw
	}

	query := `
		INSERT INTO split_journal (request_id, event_type, account_id, record, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query,
		ev.RequestID, string(ev.Type), string(ev.Account), record, time.Now().UTC(),
	)

	return errors.Wrap(err, "failed to append split event")
}

func (r *SplitJournalRepository) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]*JournalEntry, error) {
	var entries []*JournalEntry
	query := `
		SELECT id, request_id, event_type, account_id, record, created_at
		FROM split_journal
		WHERE request_id = $1
		ORDER BY id ASC
	`

	if err := r.db.SelectContext(ctx, &entries, query, requestID); err != nil {
		return nil, errors.Wrap(err, "failed to list split events")
	}

	return entries, nil
}

// Observer returns a split.Observer that journals every event. Write failures
// are logged; they never affect the split itself.
func (r *SplitJournalRepository) Observer(log logger.Logger, timeout time.Duration) split.Observer {
	return func(ev split.Event) {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := r.Append(ctx, ev); err != nil {
			log.Error("Failed to journal split event", map[string]interface{}{
				"request_id": ev.RequestID,
				"type":       ev.Type,
				"error":      err.Error(),
			})
		}
	}
}
