package services

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-desk/internal/core/domain"
	"github.com/custodia-labs/sercha-desk/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-desk/internal/logger"
)

// Scheduler re-indexes every registered folder on a fixed interval.
// Passes run one at a time on the scheduler goroutine.
type Scheduler struct {
	settings domain.ScheduleSettings
	indexer  driving.IndexService
	logger   *logger.Logger

	// OnPass is called after every pass. Optional.
	OnPass func(domain.ScheduledPass)

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler with configuration.
func NewScheduler(settings domain.ScheduleSettings, indexer driving.IndexService, log *logger.Logger) *Scheduler {
	return &Scheduler{
		settings: settings,
		indexer:  indexer,
		logger:   log,
	}
}

// Start runs the scheduler loop and blocks until Stop is called or ctx is
// done. A disabled schedule returns immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.settings.Enabled() {
		s.logger.Debug("Periodic re-index disabled")
		return nil
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.wg.Add(1)
	s.mu.Unlock()

	defer s.wg.Done()
	return s.run(ctx, stopCh)
}

// Stop shuts down the scheduler and waits for the current pass to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context, stopCh <-chan struct{}) error {
	s.logger.Info("Re-indexing every %s", s.settings.Interval)

	ticker := time.NewTicker(s.settings.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.markStopped()
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

func (s *Scheduler) markStopped() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// RunOnce performs a single pass over every registered folder.
func (s *Scheduler) RunOnce(ctx context.Context) domain.ScheduledPass {
	pass := domain.ScheduledPass{StartedAt: time.Now()}

	summaries, err := s.indexer.IndexAll(ctx, nil)
	pass.EndedAt = time.Now()
	pass.Summaries = summaries
	pass.Err = err

	if err != nil {
		s.logger.Error("Scheduled re-index: %v", err)
	} else {
		indexed, skipped := pass.Totals()
		s.logger.Info("Scheduled re-index of %d folders: indexed %d, skipped %d in %s",
			len(summaries), indexed, skipped, pass.EndedAt.Sub(pass.StartedAt).Round(time.Millisecond))
	}

	if s.OnPass != nil {
		s.OnPass(pass)
	}
	return pass
}
