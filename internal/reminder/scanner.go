package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/schedule-master-api/internal/config"
	"github.com/phrazzld/schedule-master-api/internal/domain"
	"github.com/phrazzld/schedule-master-api/internal/platform/logger"
	"github.com/phrazzld/schedule-master-api/internal/redact"
	"github.com/phrazzld/schedule-master-api/internal/store"
)

// Defaults applied by NewScanner to zero ScannerConfig fields.
const (
	DefaultWindowBefore = 15 * time.Minute
	DefaultWindowAfter  = 30 * time.Minute
	DefaultRunTimeout   = 2 * time.Minute
	DefaultMaxAttempts  = 5
)

// Notifier delivers a reminder for one task.
type Notifier interface {
	SendTaskReminder(ctx context.Context, reminder domain.TaskReminder) error
}

// ScannerConfig holds the tunables of a Scanner.
type ScannerConfig struct {
	WindowBefore time.Duration
	WindowAfter  time.Duration
	Location     *time.Location
	RunTimeout   time.Duration
	MaxAttempts  int
}

// ScannerConfigFrom converts the reminder section of the application config.
func ScannerConfigFrom(cfg config.ReminderConfig) (ScannerConfig, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return ScannerConfig{}, fmt.Errorf("invalid reminder timezone %q: %w", cfg.Timezone, err)
	}
	return ScannerConfig{
		WindowBefore: cfg.WindowBefore,
		WindowAfter:  cfg.WindowAfter,
		Location:     loc,
		RunTimeout:   cfg.RunTimeout,
		MaxAttempts:  cfg.MaxAttempts,
	}, nil
}

// RunResult counts what happened to the candidates of one run.
type RunResult struct {
	// Candidates is the number of rows the coarse store query returned.
	Candidates int
	// Matched is the number of candidates whose due instant is in the window.
	Matched int
	// Notified is the number of reminders sent and recorded.
	Notified int
	// Skipped is the number of matched tasks that could not be reminded,
	// such as tasks whose owner has no email address.
	Skipped int
	// Failed is the number of matched tasks whose send or bookkeeping failed.
	Failed int
}

// Option customizes a Scanner.
type Option func(*Scanner)

// WithClock replaces time.Now.
func WithClock(clock func() time.Time) Option {
	return func(s *Scanner) { s.clock = clock }
}

// WithRunLock sets the cross-process run lock.
func WithRunLock(lock RunLock) Option {
	return func(s *Scanner) { s.lock = lock }
}

// WithLogger sets the scanner's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scanner) { s.logger = l }
}

// Scanner finds due tasks and sends their reminders.
type Scanner struct {
	tasks    store.TaskStore
	notifier Notifier
	cfg      ScannerConfig
	clock    func() time.Time
	lock     RunLock
	logger   *slog.Logger

	running sync.Mutex
}

// NewScanner creates a Scanner. Zero config fields take the package defaults
// and a nil Location means UTC.
func NewScanner(tasks store.TaskStore, notifier Notifier, cfg ScannerConfig, opts ...Option) (*Scanner, error) {
	if tasks == nil {
		return nil, domain.NewValidationError("tasks", "cannot be nil", domain.ErrValidation)
	}
	if notifier == nil {
		return nil, domain.NewValidationError("notifier", "cannot be nil", domain.ErrValidation)
	}
	if cfg.WindowBefore < 0 || cfg.WindowAfter < 0 {
		return nil, domain.NewValidationError("window", "cannot be negative", domain.ErrValidation)
	}

	if cfg.WindowBefore == 0 && cfg.WindowAfter == 0 {
		cfg.WindowBefore = DefaultWindowBefore
		cfg.WindowAfter = DefaultWindowAfter
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = DefaultRunTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}

	s := &Scanner{
		tasks:    tasks,
		notifier: notifier,
		cfg:      cfg,
		clock:    time.Now,
		lock:     NoopRunLock{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(slog.String("component", "reminder_scanner"))

	return s, nil
}

// Run performs one scan. Errors concerning a single task are logged and
// counted in the result; only failures that stop the whole run are
// returned. A run that finds another one active returns ErrRunInProgress
// or ErrRunLocked without doing any work.
func (s *Scanner) Run(ctx context.Context) (RunResult, error) {
	if !s.running.TryLock() {
		return RunResult{}, ErrRunInProgress
	}
	defer s.running.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.RunTimeout)
	defer cancel()

	release, err := s.lock.Acquire(ctx, s.cfg.RunTimeout)
	if err != nil {
		return RunResult{}, err
	}
	defer func() {
		// The run context may already be done; releasing must still happen.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := release(releaseCtx); err != nil {
			s.logger.Warn("failed to release reminder run lock", slog.String("error", redact.Error(err)))
		}
	}()

	now := s.clock().In(s.cfg.Location)
	window := NewWindow(now, s.cfg.WindowBefore, s.cfg.WindowAfter)
	log := s.logger.With(
		slog.Time("window_start", window.Start),
		slog.Time("window_end", window.End))
	ctx = logger.WithContext(ctx, log)

	candidates, err := s.tasks.FindDueCandidates(ctx, store.DueTaskQuery{
		FromDate:    window.Start,
		ToDate:      window.End,
		MaxAttempts: s.cfg.MaxAttempts,
	})
	if err != nil {
		return RunResult{}, fmt.Errorf("failed to load reminder candidates: %w", err)
	}

	result := RunResult{Candidates: len(candidates)}
	for i := range candidates {
		if err := ctx.Err(); err != nil {
			log.Warn("reminder scan interrupted",
				slog.Int("remaining", len(candidates)-i),
				slog.String("error", err.Error()))
			return result, fmt.Errorf("reminder scan interrupted: %w", err)
		}
		s.process(ctx, log, window, &candidates[i], &result)
	}

	log.Info("reminder scan finished",
		slog.Int("candidates", result.Candidates),
		slog.Int("matched", result.Matched),
		slog.Int("notified", result.Notified),
		slog.Int("skipped", result.Skipped),
		slog.Int("failed", result.Failed))
	return result, nil
}

func (s *Scanner) process(ctx context.Context, log *slog.Logger, window Window, candidate *domain.DueTask, result *RunResult) {
	task := &candidate.Task
	log = log.With(slog.String("task_id", task.ID.String()))

	dueAt, err := task.DueAt(s.cfg.Location)
	if err != nil {
		log.Warn("skipping task with unreadable due time",
			slog.String("due_time", task.DueTime),
			slog.String("error", err.Error()))
		return
	}
	if !window.Contains(dueAt) {
		return
	}
	result.Matched++

	if candidate.OwnerEmail == "" {
		log.Warn("skipping reminder for task without owner email",
			slog.String("user_id", task.UserID.String()))
		result.Skipped++
		return
	}

	reminder := domain.TaskReminder{
		TaskID:   task.ID,
		Email:    candidate.OwnerEmail,
		TaskName: task.Name,
		DueDate:  task.DueDate,
		DueTime:  task.DueTime,
		DueAt:    dueAt,
	}

	if err := s.notifier.SendTaskReminder(ctx, reminder); err != nil {
		result.Failed++
		attempt := task.NotificationAttempts + 1
		log.Error("failed to send task reminder",
			slog.String("error", redact.Error(err)),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", s.cfg.MaxAttempts))
		if recErr := s.tasks.RecordNotificationFailure(ctx, task, s.clock()); recErr != nil {
			log.Error("failed to record reminder failure", slog.String("error", redact.Error(recErr)))
		}
		return
	}

	marked, err := s.tasks.MarkNotified(ctx, task, s.clock())
	if err != nil {
		// The email went out but the flag did not stick; the next run
		// will send it again.
		result.Failed++
		log.Error("failed to mark task notified", slog.String("error", redact.Error(err)))
		return
	}
	if !marked {
		log.Info("task changed while its reminder was sent, reminder state left as is")
	}
	result.Notified++
	log.Info("task reminder sent")
}

// IsSkippedRun reports whether err means the run was skipped because
// another run held the scanner.
func IsSkippedRun(err error) bool {
	return errors.Is(err, ErrRunInProgress) || errors.Is(err, ErrRunLocked)
}
