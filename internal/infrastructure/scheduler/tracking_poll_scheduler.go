package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SweepRunner runs one tracking poll sweep and reports how many shipments
// were refreshed
type SweepRunner interface {
	Run(ctx context.Context) (int, error)
}

// TrackingPollSchedulerConfig holds configuration for the poll scheduler
type TrackingPollSchedulerConfig struct {
	Enabled      bool
	PollInterval time.Duration
	SweepTimeout time.Duration
}

// DefaultTrackingPollSchedulerConfig returns default configuration
func DefaultTrackingPollSchedulerConfig() TrackingPollSchedulerConfig {
	return TrackingPollSchedulerConfig{
		Enabled:      true,
		PollInterval: 15 * time.Minute,
		SweepTimeout: 10 * time.Minute,
	}
}

// TrackingPollScheduler periodically sweeps stale active shipments through
// the carrier tracking APIs. Webhooks are the primary feed; this loop is the
// safety net for carriers that miss or never send them.
type TrackingPollScheduler struct {
	config TrackingPollSchedulerConfig
	runner SweepRunner
	logger *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewTrackingPollScheduler creates a new tracking poll scheduler
func NewTrackingPollScheduler(config TrackingPollSchedulerConfig, runner SweepRunner, logger *zap.Logger) *TrackingPollScheduler {
	return &TrackingPollScheduler{
		config: config,
		runner: runner,
		logger: logger,
	}
}

// Start starts the scheduler
func (s *TrackingPollScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if !s.config.Enabled {
		s.mu.Unlock()
		s.logger.Info("tracking poll scheduler is disabled")
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("tracking poll scheduler started",
		zap.Duration("poll_interval", s.config.PollInterval),
	)
	return nil
}

// Stop gracefully stops the scheduler
func (s *TrackingPollScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("tracking poll scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("tracking poll scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *TrackingPollScheduler) runLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.PollInterval)
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

func (s *TrackingPollScheduler) sweep(ctx context.Context) {
	sweepCtx := ctx
	var cancel context.CancelFunc
	if s.config.SweepTimeout > 0 {
		sweepCtx, cancel = context.WithTimeout(ctx, s.config.SweepTimeout)
		defer cancel()
	}

	start := time.Now()
	refreshed, err := s.runner.Run(sweepCtx)
	if err != nil {
		s.logger.Error("tracking poll sweep failed",
			zap.Int("refreshed", refreshed),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return
	}

	s.logger.Info("tracking poll sweep completed",
		zap.Int("refreshed", refreshed),
		zap.Duration("elapsed", time.Since(start)),
	)
}

// RunOnce triggers a single sweep immediately, outside the ticker cadence.
// Used by the admin endpoint to force a refresh.
func (s *TrackingPollScheduler) RunOnce(ctx context.Context) (int, error) {
	return s.runner.Run(ctx)
}
