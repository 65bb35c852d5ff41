// ==============================================================================
// ACCOUNT REPOSITORY - internal/repository/postgres/account.go
// ==============================================================================
package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"splitpay/internal/ledger"
	"splitpay/pkg/errors"
)

// AccountRepository persists ledger balances between restarts.
type AccountRepository struct {
	db *sqlx.DB
}

func NewAccountRepository(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) FindAll(ctx context.Context) ([]ledger.AccountState, error) {
	var states []ledger.AccountState
	query := `
		SELECT id, owner_email, currency, balance
		FROM accounts
		ORDER BY created_at ASC, id ASC
	`

	if err := r.db.SelectContext(ctx, &states, query); err != nil {
		return nil, errors.Wrap(err, "failed to list accounts")
	}

	return states, nil
}

// SaveBalances upserts owners and accounts in a single transaction.
func (r *AccountRepository) SaveBalances(ctx context.Context, states []ledger.AccountState) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, st := range states {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO users (email, created_at) VALUES ($1, $2)
			ON CONFLICT (email) DO NOTHING
		`, st.OwnerEmail, now); err != nil {
			return errors.Wrap(err, "failed to save user")
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO accounts (id, owner_email, currency, balance, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $5)
			ON CONFLICT (id) DO UPDATE SET balance = EXCLUDED.balance, updated_at = EXCLUDED.updated_at
		`, st.ID, st.OwnerEmail, st.Currency, st.Balance, now); err != nil {
			return errors.Wrap(err, "failed to save account")
		}
	}

	return errors.Wrap(tx.Commit(), "failed to commit balances")
}
