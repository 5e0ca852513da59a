// Package scheduler runs background maintenance jobs inside the server.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Reconciler repairs customer aggregates and reports how many it corrected
type Reconciler interface {
	ReconcileAll(ctx context.Context) (int, error)
}

// Config holds scheduler configuration
type Config struct {
	// Interval between runs; zero disables the scheduler
	Interval time.Duration
	// JobTimeout bounds a single run
	JobTimeout time.Duration
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() Config {
	return Config{
		Interval:   time.Hour,
		JobTimeout: 10 * time.Minute,
	}
}

// Validate checks the configuration of an enabled scheduler
func (c Config) Validate() error {
	if c.Interval < 0 {
		return fmt.Errorf("%w: interval cannot be negative", ErrInvalidConfig)
	}
	if c.Interval > 0 && c.JobTimeout <= 0 {
		return fmt.Errorf("%w: job timeout must be positive", ErrInvalidConfig)
	}
	return nil
}

// RunStats describes the most recent run
type RunStats struct {
	Runs          int
	LastRunAt     time.Time
	LastCorrected int
	LastError     string
}

// ReconcileScheduler periodically reconciles every customer. It closes the
// window sequential mode leaves open after a partially applied write.
type ReconcileScheduler struct {
	config     Config
	reconciler Reconciler
	logger     *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	stats     RunStats
}

// NewReconcileScheduler creates a new scheduler instance
func NewReconcileScheduler(config Config, reconciler Reconciler, logger *zap.Logger) (*ReconcileScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconcileScheduler{
		config:     config,
		reconciler: reconciler,
		logger:     logger,
	}, nil
}

// Enabled reports whether Start will launch the loop
func (s *ReconcileScheduler) Enabled() bool {
	return s.config.Interval > 0
}

// Start launches the loop. It is a no-op when the scheduler is disabled.
func (s *ReconcileScheduler) Start(ctx context.Context) error {
	if !s.Enabled() {
		s.logger.Info("Reconcile scheduler disabled")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return ErrSchedulerRunning
	}
	s.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.loop(ctx)

	s.logger.Info("Reconcile scheduler started",
		zap.Duration("interval", s.config.Interval),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)
	return nil
}

// Stop cancels the loop and waits for an in-flight run to finish
func (s *ReconcileScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.cancel()
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Reconcile scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Reconcile scheduler stop timed out")
		return ctx.Err()
	}
}

// Stats returns a snapshot of the run history
func (s *ReconcileScheduler) Stats() RunStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *ReconcileScheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce reconciles every customer once and records the outcome
func (s *ReconcileScheduler) RunOnce(ctx context.Context) {
	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	started := time.Now()
	corrected, err := s.reconciler.ReconcileAll(jobCtx)

	s.mu.Lock()
	s.stats.Runs++
	s.stats.LastRunAt = started
	s.stats.LastCorrected = corrected
	s.stats.LastError = ""
	if err != nil {
		s.stats.LastError = err.Error()
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("Reconcile run failed",
			zap.Int("corrected", corrected),
			zap.Duration("elapsed", time.Since(started)),
			zap.Error(err),
		)
		return
	}
	level := zap.DebugLevel
	if corrected > 0 {
		level = zap.WarnLevel
	}
	s.logger.Log(level, "Reconcile run finished",
		zap.Int("corrected", corrected),
		zap.Duration("elapsed", time.Since(started)),
	)
}
