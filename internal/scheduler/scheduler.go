package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// TickFunc is invoked on every polling interval that passes the gate.
type TickFunc func(ctx context.Context, now time.Time) error

// Options tune scheduler behaviour.
type Options struct {
	Interval     time.Duration
	StartupDelay time.Duration
	// Gate decides whether a tick runs (e.g. market hours). Nil means
	// always run.
	Gate func(now time.Time) bool
	// OnIdle fires on intervals the gate rejects, letting the caller clear
	// transient per-session state.
	OnIdle func(now time.Time)
}

// Scheduler drives a fixed-interval polling loop.
type Scheduler struct {
	opts   Options
	logger zerolog.Logger
	now    func() time.Time
}

// New constructs a Scheduler instance.
func New(opts Options, logger zerolog.Logger) *Scheduler {
	if opts.Interval <= 0 {
		panic("scheduler interval must be positive")
	}
	return &Scheduler{
		opts:   opts,
		logger: logger.With().Str("component", "scheduler").Logger(),
		now:    time.Now,
	}
}

// Run blocks, invoking the tick function every interval until ctx is
// cancelled. The first tick fires immediately after the startup delay; a
// tick error is logged and the loop continues.
func (s *Scheduler) Run(ctx context.Context, tick TickFunc) error {
	if s.opts.StartupDelay > 0 {
		if !s.wait(ctx, s.opts.StartupDelay) {
			return ctx.Err()
		}
	}

	for {
		now := s.now()
		if s.opts.Gate == nil || s.opts.Gate(now) {
			s.logger.Debug().Time("at", now).Msg("executing scheduled tick")
			if err := tick(ctx, now); err != nil {
				s.logger.Error().Err(err).Time("at", now).Msg("tick execution failed")
			}
		} else {
			s.logger.Debug().Time("at", now).Msg("outside active window, idling")
			if s.opts.OnIdle != nil {
				s.opts.OnIdle(now)
			}
		}

		if !s.wait(ctx, s.opts.Interval) {
			return ctx.Err()
		}
	}
}

func (s *Scheduler) wait(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
