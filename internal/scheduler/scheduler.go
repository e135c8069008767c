package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

func New(cfg Config) (*Scheduler, error) {
	s := &Scheduler{
		mode:     cfg.Mode,
		delay:    time.Duration(cfg.DelayMs) * time.Millisecond,
		interval: time.Duration(cfg.IntervalSeconds) * time.Second,
		poll:     time.Duration(cfg.PollMs) * time.Millisecond,
	}

	if s.mode == "" {
		s.mode = MODE_DELAY
	}
	if s.poll <= 0 {
		s.poll = DefaultPollInterval
	}

	switch s.mode {
	case MODE_DELAY:
		if s.delay <= 0 {
			s.delay = DefaultDelay
		}
	case MODE_INTERVAL:
		if s.interval <= 0 {
			return nil, errors.New("scheduler: interval_seconds must be > 0")
		}
	case MODE_CRON:
		sched, err := cronParser.Parse(cfg.Cron)
		if err != nil {
			return nil, fmt.Errorf("scheduler: invalid cron expression %q: %w", cfg.Cron, err)
		}
		s.schedule = sched
		s.spec = cfg.Cron
	default:
		return nil, fmt.Errorf("scheduler: unknown mode %q", s.mode)
	}

	return s, nil
}

func (s *Scheduler) Mode() string {
	return s.mode
}

func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Runs is the number of completed cycles.
func (s *Scheduler) Runs() int64 {
	return s.runs.Load()
}

// Run drives job until ctx is cancelled. Cycles never overlap: a new one
// only starts after the previous one has returned.
func (s *Scheduler) Run(ctx context.Context, job Job) error {
	slog.Debug(">>Scheduler.Run", "mode", s.mode)
	defer slog.Debug("<<Scheduler.Run")

	switch s.mode {
	case MODE_INTERVAL:
		s.runInterval(ctx, job)
	case MODE_CRON:
		s.runCron(ctx, job)
	default:
		s.runDelay(ctx, job)
	}

	return nil
}

func (s *Scheduler) runDelay(ctx context.Context, job Job) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			s.execute(ctx, job)
			timer.Reset(s.delay)
		}
	}
}

// runInterval polls the elapsed time since the last run. The first run
// happens once a full interval has passed since start.
func (s *Scheduler) runInterval(ctx context.Context, job Job) {
	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	lastRun := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// a tick can be stale after a long job, so compare wall clock
			now := time.Now()
			if now.Sub(lastRun) > s.interval {
				lastRun = now
				s.execute(ctx, job)
			}
		}
	}
}

func (s *Scheduler) runCron(ctx context.Context, job Job) {
	logger := cronLogger{}
	c := cron.New(
		cron.WithParser(cronParser),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	c.Schedule(s.schedule, cron.FuncJob(func() {
		s.execute(ctx, job)
	}))

	slog.Info("cron schedule started", "spec", s.spec)
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
}

func (s *Scheduler) execute(ctx context.Context, job Job) {
	if ctx.Err() != nil {
		return
	}

	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		slog.Warn("previous cycle still running, skipping")
		return
	}
	defer s.state.Store(int32(StateIdle))

	job(ctx)
	s.runs.Add(1)
}

type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	slog.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
