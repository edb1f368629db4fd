package backup

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/logging"
)

// Saver is a Source that can also persist its state before a backup.
// *evolution.Coordinator implements it.
type Saver interface {
	Source
	Save(ctx context.Context) error
}

// Observer receives backup outcomes. *metrics.Collector implements it.
type Observer interface {
	BackupCompleted(err error)
}

// Scheduler runs backups on a cron schedule and prunes old ones.
type Scheduler struct {
	src      Saver
	dir      string
	schedule string
	compress bool
	policy   RetentionPolicy
	logger   *slog.Logger
	observer Observer
	now      func() time.Time

	mu      sync.Mutex
	lastRun time.Time
	lastErr error
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithCompression selects V2 backups.
func WithCompression(on bool) SchedulerOption {
	return func(s *Scheduler) { s.compress = on }
}

// WithRetention prunes backups after each run.
func WithRetention(p RetentionPolicy) SchedulerOption {
	return func(s *Scheduler) { s.policy = p }
}

// WithSchedulerLogger sets the logger.
func WithSchedulerLogger(l *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSchedulerObserver reports each run's outcome.
func WithSchedulerObserver(o Observer) SchedulerOption {
	return func(s *Scheduler) { s.observer = o }
}

// NewScheduler validates schedule and returns a scheduler writing into dir.
// An empty schedule is allowed; Run then returns immediately.
func NewScheduler(src Saver, dir, schedule string, opts ...SchedulerOption) (*Scheduler, error) {
	if dir == "" {
		return nil, fmt.Errorf("backup directory is required")
	}
	if schedule != "" {
		if _, err := cron.ParseStandard(schedule); err != nil {
			return nil, fmt.Errorf("invalid backup schedule %q: %w", schedule, err)
		}
	}
	s := &Scheduler{
		src:      src,
		dir:      dir,
		schedule: schedule,
		logger:   logging.Discard(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Enabled reports whether a schedule is configured.
func (s *Scheduler) Enabled() bool {
	return s.schedule != ""
}

// RunOnce saves the source, writes a backup and applies retention. It
// returns the written file's path.
func (s *Scheduler) RunOnce(ctx context.Context) (path string, err error) {
	defer func() {
		s.mu.Lock()
		s.lastRun = s.now()
		s.lastErr = err
		s.mu.Unlock()
		if s.observer != nil {
			s.observer.BackupCompleted(err)
		}
	}()

	if err := s.src.Save(ctx); err != nil {
		s.logger.Warn("snapshot save before backup failed", "error", err)
	}

	path = GenerateBackupPath(s.dir, s.now(), s.compress)
	p, err := Backup(ctx, s.src, path, s.compress)
	if err != nil {
		return "", fmt.Errorf("backup failed: %w", err)
	}
	s.logger.Info("backup written",
		"file", filepath.Base(path),
		"portals", len(p.Snapshot.Portals),
		"recommendations", len(p.Recommendations))

	deleted, err := ApplyRetention(s.dir, s.policy)
	if err != nil {
		return path, fmt.Errorf("retention failed: %w", err)
	}
	if len(deleted) > 0 {
		s.logger.Info("old backups pruned", "count", len(deleted))
	}
	return path, nil
}

// LastRun returns when RunOnce last finished and its error.
func (s *Scheduler) LastRun() (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun, s.lastErr
}

// Run executes RunOnce on the schedule until ctx is done, then waits for
// an in-flight run to finish. Overlapping runs are skipped.
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(s.schedule, func() {
		if _, err := s.RunOnce(ctx); err != nil {
			s.logger.Error("scheduled backup failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("scheduling backups: %w", err)
	}

	s.logger.Info("backup scheduler started", "schedule", s.schedule, "dir", s.dir)
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	s.logger.Info("backup scheduler stopped")
	return nil
}
