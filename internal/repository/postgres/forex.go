// ==============================================================================
// FOREX REPOSITORY - internal/repository/postgres/forex.go
// ==============================================================================
package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"
	"splitpay/internal/domain"
	"splitpay/pkg/errors"
)

type ForexRepository struct {
	db *sqlx.DB
}

func NewForexRepository(db *sqlx.DB) *ForexRepository {
	return &ForexRepository{db: db}
}

// UpsertRate stores the directed edge; the reciprocal is derived on load.
func (r *ForexRepository) UpsertRate(ctx context.Context, rate *domain.ExchangeRate) error {
	query := `
		INSERT INTO exchange_rates (base_currency, target_currency, rate, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (base_currency, target_currency)
		DO UPDATE SET rate = EXCLUDED.rate, updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		rate.BaseCurrency, rate.TargetCurrency, rate.Rate, rate.UpdatedAt,
	)

	return errors.Wrap(err, "failed to upsert exchange rate")
}

// ListRates returns every stored edge in update order, so replaying them
// through the resolver reproduces last-write-wins.
func (r *ForexRepository) ListRates(ctx context.Context) ([]*domain.ExchangeRate, error) {
	var rates []*domain.ExchangeRate
	query := `
		SELECT base_currency, target_currency, rate, updated_at
		FROM exchange_rates
		ORDER BY updated_at ASC
	`

	if err := r.db.SelectContext(ctx, &rates, query); err != nil {
		return nil, errors.Wrap(err, "failed to list exchange rates")
	}

	return rates, nil
}
