// Package forex implements the exchange graph and the rate service around it.
//
// ==============================================================================
// FOREX SERVICE - internal/forex/service.go
// ==============================================================================
package forex

import (
	"context"
	"fmt"
	"sync"
	"time"

	"splitpay/internal/domain"
	"splitpay/pkg/errors"
	"splitpay/pkg/logger"

	"github.com/shopspring/decimal"
)

// Service wraps a Resolver with persistence and rate caching.
// Split settlement reads the Resolver directly; the service is the
// read/write surface for operators and the HTTP API.
type Service struct {
	resolver  *Resolver
	repo      Repository
	cache     RateCache
	ttl       time.Duration
	logger    logger.Logger
	mu        sync.RWMutex
	rateCache map[string]decimal.Decimal
}

// NewService constructs a forex Service. repo and cache may be nil.
func NewService(resolver *Resolver, repo Repository, cache RateCache, ttl time.Duration, log logger.Logger) *Service {
	return &Service{
		resolver:  resolver,
		repo:      repo,
		cache:     cache,
		ttl:       ttl,
		logger:    log,
		rateCache: make(map[string]decimal.Decimal),
	}
}

// Resolver exposes the underlying graph.
func (s *Service) Resolver() *Resolver {
	return s.resolver
}

// Load rebuilds the graph from the repository.
func (s *Service) Load(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	rates, err := s.repo.ListRates(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to load exchange rates")
	}
	for _, rate := range rates {
		if err := s.resolver.AddRate(rate.BaseCurrency, rate.TargetCurrency, rate.Rate); err != nil {
			s.logger.Warn("Skipping stored exchange rate", map[string]interface{}{
				"from":  rate.BaseCurrency,
				"to":    rate.TargetCurrency,
				"rate":  rate.Rate.String(),
				"error": err.Error(),
			})
		}
	}
	s.logger.Info("Exchange rates loaded", map[string]interface{}{"count": len(rates)})
	return nil
}

// AddRate registers a rate (and its reciprocal) and persists it.
func (s *Service) AddRate(ctx context.Context, from, to domain.Currency, rate decimal.Decimal) error {
	if err := s.resolver.AddRate(from, to, rate); err != nil {
		return err
	}

	s.mu.Lock()
	s.rateCache = make(map[string]decimal.Decimal)
	s.mu.Unlock()

	if s.repo != nil {
		err := s.repo.UpsertRate(ctx, &domain.ExchangeRate{
			BaseCurrency:   from,
			TargetCurrency: to,
			Rate:           rate,
			UpdatedAt:      time.Now(),
		})
		if err != nil {
			s.logger.Error("Failed to store rate", map[string]interface{}{
				"from":  from,
				"to":    to,
				"error": err.Error(),
			})
			return err
		}
	}

	s.logger.Info("Exchange rate added", map[string]interface{}{
		"from": from,
		"to":   to,
		"rate": rate.String(),
	})
	return nil
}

// GetRate resolves a rate, consulting the in-memory and distributed caches first.
// Cache keys carry the graph version so a rate change never serves stale values.
func (s *Service) GetRate(ctx context.Context, from, to domain.Currency) (decimal.Decimal, error) {
	if from == to {
		return one, nil
	}

	key := fmt.Sprintf("v%d:%s-%s", s.resolver.Version(), from, to)

	s.mu.RLock()
	if rate, ok := s.rateCache[key]; ok {
		s.mu.RUnlock()
		return rate, nil
	}
	s.mu.RUnlock()

	if s.cache != nil {
		if rate, err := s.cache.Get(ctx, key); err == nil {
			s.updateCache(key, rate)
			return rate, nil
		}
	}

	rate, err := s.resolver.Resolve(from, to)
	if err != nil {
		return decimal.Zero, err
	}
	s.updateCache(key, rate)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, rate, s.ttl); err != nil {
			s.logger.Warn("Failed to cache rate", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
	}
	return rate, nil
}

func (s *Service) updateCache(key string, rate decimal.Decimal) {
	s.mu.Lock()
	s.rateCache[key] = rate
	s.mu.Unlock()
}

// Convert multiplies amount by the resolved from->to rate.
func (s *Service) Convert(ctx context.Context, amount decimal.Decimal, from, to domain.Currency) (decimal.Decimal, error) {
	rate, err := s.GetRate(ctx, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Mul(rate), nil
}

// Rates lists every directed edge currently in the graph.
func (s *Service) Rates() []domain.ExchangeRate {
	return s.resolver.Rates()
}

// Repository defines persistence operations for forex rates.
type Repository interface {
	UpsertRate(ctx context.Context, rate *domain.ExchangeRate) error
	ListRates(ctx context.Context) ([]*domain.ExchangeRate, error)
}

// RateCache defines cache operations for resolved rates.
type RateCache interface {
	Get(ctx context.Context, key string) (decimal.Decimal, error)
	Set(ctx context.Context, key string, rate decimal.Decimal, ttl time.Duration) error
}
