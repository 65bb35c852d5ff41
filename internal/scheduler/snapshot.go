// Package scheduler runs periodic background jobs for the service.
package scheduler

import (
	"context"
	"sync"
	"time"

	"splitpay/internal/ledger"
	"splitpay/pkg/logger"
)

// Snapshotter provides point-in-time account state.
type Snapshotter interface {
	Snapshot() []ledger.AccountState
}

// BalanceSaver persists account state.
type BalanceSaver interface {
	SaveBalances(ctx context.Context, states []ledger.AccountState) error
}

// SnapshotScheduler periodically persists ledger balances so a crash loses at
// most one interval of movements.
type SnapshotScheduler struct {
	source   Snapshotter
	saver    BalanceSaver
	interval time.Duration
	timeout  time.Duration
	logger   logger.Logger

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

func NewSnapshotScheduler(source Snapshotter, saver BalanceSaver, interval time.Duration, log logger.Logger) *SnapshotScheduler {
	return &SnapshotScheduler{
		source:   source,
		saver:    saver,
		interval: interval,
		timeout:  30 * time.Second,
		logger:   log,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (s *SnapshotScheduler) Start() {
	ticker := time.NewTicker(s.interval)
	go func() {
		defer close(s.done)
		for {
			select {
			case <-ticker.C:
				_ = s.RunOnce(context.Background())
			case <-s.stop:
				ticker.Stop()
				return
			}
		}
	}()
	s.logger.Info("Balance snapshot scheduler started", map[string]interface{}{
		"interval": s.interval.String(),
	})
}

// Stop ends the loop and waits for an in-flight snapshot to finish.
func (s *SnapshotScheduler) Stop() {
	s.once.Do(func() {
		close(s.stop)
		<-s.done
	})
}

// RunOnce persists the current balances.
func (s *SnapshotScheduler) RunOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	states := s.source.Snapshot()
	if err := s.saver.SaveBalances(ctx, states); err != nil {
		s.logger.Error("Failed to persist balance snapshot", map[string]interface{}{
			"accounts": len(states),
			"error":    err.Error(),
		})
		return err
	}
	s.logger.Debug("Balance snapshot persisted", map[string]interface{}{
		"accounts": len(states),
	})
	return nil
}
