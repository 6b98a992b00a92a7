package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is one schedulable scan. *Scanner implements it.
type Job interface {
	Run(ctx context.Context) (RunResult, error)
}

// Scheduler runs a Job on a fixed interval.
type Scheduler struct {
	job      Job
	interval time.Duration
	logger   *slog.Logger

	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	started bool
}

// NewScheduler creates a Scheduler. Nothing runs until Start.
func NewScheduler(job Job, interval time.Duration, logger *slog.Logger) (*Scheduler, error) {
	if job == nil {
		return nil, errors.New("reminder job cannot be nil")
	}
	if interval < time.Second {
		return nil, fmt.Errorf("scan interval must be at least 1s, got %s", interval)
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "reminder_scheduler"))

	cronLogger := cronLogAdapter{logger: logger}
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		job:      job,
		interval: interval,
		logger:   logger,
		cron: cron.New(
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Start schedules the job every interval and triggers one run right away.
// Calling Start more than once has no effect.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	id, err := s.cron.AddFunc("@every "+s.interval.String(), s.runOnce)
	if err != nil {
		return fmt.Errorf("failed to schedule reminder scan: %w", err)
	}
	s.started = true

	// The wrapped job carries the Recover and SkipIfStillRunning chain.
	immediate := s.cron.Entry(id).WrappedJob
	s.cron.Start()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		immediate.Run()
	}()

	s.logger.Info("reminder scheduler started", slog.Duration("interval", s.interval))
	return nil
}

// Stop prevents new runs and waits for an in-flight run to finish. When
// ctx expires first, the in-flight run is cancelled and Stop returns
// ctx's error.
func (s *Scheduler) Stop(ctx context.Context) error {
	cronCtx := s.cron.Stop()

	done := make(chan struct{})
	go func() {
		<-cronCtx.Done()
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancel()
		s.logger.Info("reminder scheduler stopped")
		return nil
	case <-ctx.Done():
		s.cancel()
		s.logger.Warn("reminder scheduler stop timed out, cancelled in-flight scan")
		return ctx.Err()
	}
}

func (s *Scheduler) runOnce() {
	if s.ctx.Err() != nil {
		return
	}

	start := time.Now()
	result, err := s.job.Run(s.ctx)
	switch {
	case IsSkippedRun(err):
		s.logger.Debug("reminder scan skipped", slog.String("reason", err.Error()))
	case err != nil:
		s.logger.Error("reminder scan failed",
			slog.String("error", err.Error()),
			slog.Duration("duration", time.Since(start)))
	default:
		s.logger.Debug("reminder scan completed",
			slog.Int("notified", result.Notified),
			slog.Int("failed", result.Failed),
			slog.Duration("duration", time.Since(start)))
	}
}

// cronLogAdapter routes robfig/cron's logging to slog.
type cronLogAdapter struct {
	logger *slog.Logger
}

func (a cronLogAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Debug("cron: "+msg, keysAndValues...)
}

func (a cronLogAdapter) Error(err error, msg string, keysAndValues ...interface{}) {
	a.logger.Error("cron: "+msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
