package scheduler

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/env-monitor/internal/observability"
)

// DefaultInterval is the poll cadence when none is configured.
const DefaultInterval = 5 * time.Minute

// CycleRunner runs one fetch-normalize-store cycle.
type CycleRunner interface {
	RunCycle(ctx context.Context) error
}

// State is the scheduler's position in its Idle/Running cycle.
type State int32

const (
	StateIdle State = iota
	StateRunning
)

func (s State) String() string {
	if s == StateRunning {
		return "running"
	}
	return "idle"
}

// Options tune the scheduler. Zero values mean defaults.
type Options struct {
	Interval time.Duration
	// CycleTimeout bounds a single cycle; 0 leaves it unbounded.
	CycleTimeout time.Duration
	// AllowOverlap lets a tick start a cycle while the previous one runs.
	// When false, such a tick is logged and skipped.
	AllowOverlap bool
}

// Scheduler runs a cycle immediately on Start and then on a fixed interval.
// Cycle failures are logged and never change the cadence.
type Scheduler struct {
	scheduler *gocron.Scheduler
	runner    CycleRunner
	opts      Options
	logger    *slog.Logger
	metrics   *observability.Metrics

	// inFlight counts running cycles; above one only when overlap is allowed.
	inFlight atomic.Int32
	ctx      context.Context
	cancel context.CancelFunc
}

// New creates a new Scheduler.
func New(runner CycleRunner, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		runner:    runner,
		opts:      opts,
		logger:    logger,
		metrics:   metrics,
	}
}

// Start schedules the periodic job and starts the underlying scheduler. The
// first cycle begins right away. ctx is the parent of every cycle context.
func (s *Scheduler) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	_, err := s.scheduler.Every(s.opts.Interval).StartImmediately().Do(s.tick)
	if err != nil {
		s.cancel()
		return err
	}

	s.logger.Info("scheduler started",
		"interval", s.opts.Interval.String(),
		"allow_overlap", s.opts.AllowOverlap,
	)
	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any in-flight cycle.
func (s *Scheduler) Stop() {
	// Cancel first: gocron waits for running jobs before Stop returns.
	if s.cancel != nil {
		s.cancel()
	}
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

// State reports whether any cycle is currently running.
func (s *Scheduler) State() State {
	if s.inFlight.Load() > 0 {
		return StateRunning
	}
	return StateIdle
}

// InFlight reports how many cycles are running right now.
func (s *Scheduler) InFlight() int {
	return int(s.inFlight.Load())
}

// tick is the timer callback: Idle moves to Running, runs one cycle and
// returns to Idle. A tick that finds a cycle still Running is skipped unless
// overlap is allowed.
func (s *Scheduler) tick() {
	if s.opts.AllowOverlap {
		s.inFlight.Add(1)
	} else if !s.inFlight.CompareAndSwap(0, 1) {
		s.metrics.CyclesSkipped.Inc()
		s.logger.Warn("scheduler: previous cycle still running, skipping tick")
		return
	}
	defer s.inFlight.Add(-1)

	ctx := s.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if s.opts.CycleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.CycleTimeout)
		defer cancel()
	}

	s.logger.Debug("scheduler: running weather fetch cycle")
	if err := s.runner.RunCycle(ctx); err != nil {
		s.logger.Error("scheduler: cycle failed", "error", err)
		return
	}
	s.logger.Debug("scheduler: completed weather fetch cycle")
}
