package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"NewsCaster/internal/domain"
	"NewsCaster/internal/ports"
)

// Runner executes one news run.
type Runner interface {
	Run(ctx context.Context, dest domain.Destination, pacing time.Duration) RunReport
}

// SchedulerDeps wires the scheduler with its collaborators.
type SchedulerDeps struct {
	Runner    Runner
	Timetable ports.Timetable
	Initial   domain.Schedule
	Logger    *slog.Logger
	Now       func() time.Time
	Sleep     func(ctx context.Context, d time.Duration) error
}

// Scheduler fires the runner once a day at the configured local time. It owns the
// schedule and the handle of the running loop.
type Scheduler struct {
	runner    Runner
	timetable ports.Timetable
	logger    *slog.Logger
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error

	mu     sync.Mutex
	cfg    domain.Schedule
	parent context.Context
	cancel context.CancelFunc
	gen    uint64

	waiting atomic.Int32
}

// NewScheduler returns a stopped scheduler.
func NewScheduler(deps SchedulerDeps) *Scheduler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	sleep := deps.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	cfg := deps.Initial
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	return &Scheduler{
		runner:    deps.Runner,
		timetable: deps.Timetable,
		logger:    logger,
		now:       now,
		sleep:     sleep,
		cfg:       cfg,
	}
}

// Start cancels the running loop, if any, and launches a fresh one bound to ctx.
// Safe to call repeatedly.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.parent = ctx
	s.restartLocked()
}

// Stop cancels the running loop. An in-flight run still completes.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Config returns a snapshot of the active schedule.
func (s *Scheduler) Config() domain.Schedule {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// NextFire reports when the active schedule fires next.
func (s *Scheduler) NextFire() time.Time {
	cfg := s.Config()
	return s.timetable.Next(s.now().In(cfg.Location), cfg)
}

// Reconfigure validates req, replaces the schedule in one step and restarts the loop so
// the new target applies immediately. Invalid input leaves everything untouched.
func (s *Scheduler) Reconfigure(req domain.ScheduleRequest) (domain.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := domain.NewSchedule(req, s.cfg)
	if err != nil {
		return s.cfg, err
	}

	s.cfg = next
	s.logger.Info("schedule reconfigured",
		"time", next.Clock(),
		"timezone", next.Timezone,
		"destination", int64(next.Destination),
		"send_delay", next.SendDelay)

	s.restartLocked()
	return next, nil
}

func (s *Scheduler) restartLocked() {
	if s.cancel != nil {
		s.cancel()
	}
	parent := s.parent
	if parent == nil {
		parent = context.Background()
		s.parent = parent
	}

	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel
	s.gen++
	go s.loop(ctx, s.logger.With("loop", s.gen))
}

func (s *Scheduler) loop(ctx context.Context, logger *slog.Logger) {
	logger.Debug("scheduler loop started")
	defer logger.Debug("scheduler loop stopped")

	for ctx.Err() == nil {
		cfg := s.Config()
		now := s.now().In(cfg.Location)
		target := s.timetable.Next(now, cfg)
		wait := target.Sub(now)
		if wait < 0 {
			wait = 0
		}
		logger.Info("next fire scheduled", "at", target.Format(time.RFC3339), "in", wait.Round(time.Second))

		s.waiting.Add(1)
		err := s.sleep(ctx, wait)
		s.waiting.Add(-1)
		if err != nil {
			return
		}

		s.fire(ctx, logger)
	}
}

// fire runs one cycle. Nothing raised inside escapes the loop.
func (s *Scheduler) fire(ctx context.Context, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("scheduled run panicked", "panic", fmt.Sprint(r))
		}
	}()

	cfg := s.Config()
	if cfg.Destination.IsZero() {
		logger.Warn("no destination configured, skipping cycle")
		return
	}
	if s.runner == nil {
		return
	}

	// Reconfiguration abandons the wait, not a run that already started.
	s.runner.Run(context.WithoutCancel(ctx), cfg.Destination, cfg.SendDelay)
}
