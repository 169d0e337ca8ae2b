package trigger

import (
	"context"
	"fmt"
	"time"

	"github.com/thomas-vilte/issuebot/internal/logger"
)

// CycleRunner runs one monitoring cycle.
type CycleRunner interface {
	RunCycle(ctx context.Context)
}

// TickerFunc starts a ticker and returns its channel and a stop function.
type TickerFunc func(d time.Duration) (<-chan time.Time, func())

func realTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// Scheduler runs a cycle every interval until its context is canceled.
// Cycles never overlap. The ticker buffers a single tick, so a cycle that
// outlasts the interval is followed at once by one more cycle; any further
// ticks missed meanwhile are dropped.
type Scheduler struct {
	runner     CycleRunner
	interval   time.Duration
	runOnStart bool
	ticker     TickerFunc
}

type SchedulerOption func(*Scheduler)

// WithRunOnStart runs a cycle immediately instead of waiting for the first tick.
func WithRunOnStart(run bool) SchedulerOption {
	return func(s *Scheduler) {
		s.runOnStart = run
	}
}

func WithTicker(ticker TickerFunc) SchedulerOption {
	return func(s *Scheduler) {
		if ticker != nil {
			s.ticker = ticker
		}
	}
}

func NewScheduler(runner CycleRunner, interval time.Duration, opts ...SchedulerOption) (*Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("scheduler interval must be positive, got %s", interval)
	}
	s := &Scheduler{
		runner:   runner,
		interval: interval,
		ticker:   realTicker,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run blocks until ctx is canceled. It always returns nil so it can sit in an
// errgroup next to the HTTP server without tearing it down.
func (s *Scheduler) Run(ctx context.Context) error {
	ctx = logger.With(ctx, "trigger", "schedule")
	log := logger.FromContext(ctx)

	ticks, stop := s.ticker(s.interval)
	defer stop()

	log.Info("scheduler started", "interval", s.interval.String())

	if s.runOnStart {
		s.runner.RunCycle(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			log.Info("scheduler stopped")
			return nil
		case <-ticks:
			s.runner.RunCycle(ctx)
		}
	}
}
