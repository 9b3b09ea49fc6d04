package crawler

import (
	"context"
	"log/slog"
	"time"
)

// Scheduler ties the Engine and the Updater into the daemon's steady
// state: one bulk catch-up, then delta cycles forever.
type Scheduler struct {
	engine   *Engine
	updater  *Updater
	interval time.Duration
	logger   *slog.Logger
	once     bool
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithSchedulerLogger overrides the logger.
func WithSchedulerLogger(l *slog.Logger) SchedulerOption {
	return func(s *Scheduler) { s.logger = l }
}

// WithOnce makes Run exit after the bulk crawl and a single immediate
// delta cycle instead of looping forever.
func WithOnce(once bool) SchedulerOption {
	return func(s *Scheduler) { s.once = once }
}

// NewScheduler returns a Scheduler that sleeps interval between delta
// cycles.
func NewScheduler(engine *Engine, updater *Updater, interval time.Duration, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		engine:   engine,
		updater:  updater,
		interval: interval,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes the bulk crawl and then loops over sleep-and-update
// cycles until ctx is cancelled. Steady-state errors are logged and the
// loop continues; a failed delta leaves the watermark untouched, so the
// same window is retried on the next cycle. Run only returns on context
// cancellation, or after one delta cycle when configured with WithOnce.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.engine.Run(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Error("bulk catch-up aborted", "error", err)
	}

	for {
		if !s.once {
			if err := sleepContext(ctx, s.interval); err != nil {
				return err
			}
		}
		if err := s.updater.Update(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Error("delta cycle failed", "error", err)
		}
		if s.once {
			return nil
		}
	}
}
