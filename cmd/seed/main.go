// Seeding tool for a local database: three demo account holders in two
// currencies and a EUR/USD rate, enough to walk through a split by hand.
//
// Reads DATABASE_URL and other core config via splitpay/pkg/config
package main

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"splitpay/internal/domain"
	"splitpay/internal/ledger"
	"splitpay/internal/repository/postgres"
	"splitpay/pkg/config"
	"splitpay/pkg/logger"
)

func main() {
	_ = godotenv.Load()
	log := logger.New("seed")

	cfg := config.Load()
	if !cfg.PersistenceEnabled() {
		log.Fatal("DATABASE_URL is required", nil)
	}

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatal("Failed to connect to database", map[string]interface{}{"error": err.Error()})
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	accounts := []ledger.AccountState{
		{ID: "A", OwnerEmail: "alice@example.com", Currency: domain.USD, Balance: decimal.NewFromInt(100)},
		{ID: "B", OwnerEmail: "bob@example.com", Currency: domain.USD, Balance: decimal.NewFromInt(50)},
		{ID: "C", OwnerEmail: "carol@example.com", Currency: domain.EUR, Balance: decimal.NewFromInt(200)},
	}
	if err := postgres.NewAccountRepository(db).SaveBalances(ctx, accounts); err != nil {
		log.Fatal("Failed to seed accounts", map[string]interface{}{"error": err.Error()})
	}

	rate := &domain.ExchangeRate{
		BaseCurrency:   domain.EUR,
		TargetCurrency: domain.USD,
		Rate:           decimal.RequireFromString("1.1"),
		UpdatedAt:      time.Now().UTC(),
	}
	if err := postgres.NewForexRepository(db).UpsertRate(ctx, rate); err != nil {
		log.Fatal("Failed to seed exchange rate", map[string]interface{}{"error": err.Error()})
	}

	log.Info("Seed complete", map[string]interface{}{
		"accounts": len(accounts),
		"rates":    1,
	})
}
