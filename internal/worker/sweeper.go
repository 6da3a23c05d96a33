package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const defaultSweepInterval = time.Minute

// ReservationSweeper exposes the subset of application functionality required by the worker.
type ReservationSweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// Sweeper periodically purges lapsed reservations.
type Sweeper struct {
	facade   ReservationSweeper
	interval time.Duration
	logger   *slog.Logger

	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewSweeper constructs a sweeper running every interval.
func NewSweeper(facade ReservationSweeper, interval time.Duration, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &Sweeper{
		facade:   facade,
		interval: interval,
		logger:   logger,
	}
}

// Start launches the background loop. Calling Start on a running sweeper is a no-op.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.loop(runCtx)
}

// Stop cancels the loop and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Sweeper) loop(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	removed, err := s.facade.SweepExpired(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Error("reservation sweep failed", slog.String("error", err.Error()))
		return
	}
	if removed > 0 {
		s.logger.Debug("reservation sweep finished", slog.Int64("removed", removed))
	}
}
