// Package scheduler runs a function once a day at a configured time of day.
//
// The loop polls instead of arming a single timer: far from the target it
// sleeps LongInterval, within NearWindow of it ShortInterval, and it fires
// when the wall clock's hour and minute equal the target's. A process that
// was suspended simply catches up on its next wake-up.
package scheduler

import (
	"context"
	"ftpsched/internal/logger"
	"ftpsched/internal/model"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultShortInterval = 30 * time.Second
	DefaultLongInterval  = 25 * time.Minute
	DefaultNearWindow    = 30 * time.Minute
)

// RunFunc executes one batch. It must return promptly once ctx is cancelled.
type RunFunc func(ctx context.Context, at time.Time)

type Options struct {
	Clock         Clock
	ShortInterval time.Duration
	LongInterval  time.Duration
	NearWindow    time.Duration
}

type Scheduler struct {
	target func() model.TimeOfDay
	run    RunFunc
	clock  Clock
	short  time.Duration
	long   time.Duration
	near   time.Duration

	// lifecycle serializes Start and Stop so a restart never overlaps two loops.
	lifecycle sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}

	mu        sync.RWMutex
	running   bool
	startedAt time.Time
	lastRun   time.Time
	lastDay   string
	totalRuns int
}

// New reads the target through target on every iteration, so a schedule
// change applies to a running loop without a restart.
func New(target func() model.TimeOfDay, run RunFunc, opts Options) *Scheduler {
	s := &Scheduler{
		target: target,
		run:    run,
		clock:  opts.Clock,
		short:  opts.ShortInterval,
		long:   opts.LongInterval,
		near:   opts.NearWindow,
	}

	if s.clock == nil {
		s.clock = RealClock()
	}
	if s.short <= 0 {
		s.short = DefaultShortInterval
	}
	if s.long <= 0 {
		s.long = DefaultLongInterval
	}
	if s.near <= 0 {
		s.near = DefaultNearWindow
	}

	return s
}

// Start launches the loop and returns immediately. Starting a running
// scheduler stops the current loop first and starts a fresh one.
func (s *Scheduler) Start() {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if s.cancel != nil {
		logger.Log.Info("scheduler already running, restarting")
		s.stopLocked()
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	s.mu.Lock()
	s.running = true
	s.startedAt = s.clock.Now()
	s.mu.Unlock()

	go s.loop(ctx, done)

	logger.Log.Info("scheduler started",
		zap.String("time", s.target().String()))
}

// Stop cancels the current sleep or batch and waits for the loop to exit.
// Stopping an idle scheduler is a no-op.
func (s *Scheduler) Stop() {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if s.cancel == nil {
		return
	}

	s.stopLocked()
	logger.Log.Info("scheduler stopped")
}

func (s *Scheduler) stopLocked() {
	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

func (s *Scheduler) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *Scheduler) Status() model.SchedulerSnapshot {
	target := s.target()

	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := model.SchedulerSnapshot{
		Running:      s.running,
		ScheduleTime: target,
		TotalRuns:    s.totalRuns,
	}
	if !s.lastRun.IsZero() {
		snap.LastRun = new(s.lastRun)
	}
	if s.running {
		snap.StartedAt = new(s.startedAt)
		snap.NextRun = new(s.nextRunLocked(s.clock.Now(), target))
	}

	return snap
}

// Interval is how long the loop sleeps when woken at now.
func (s *Scheduler) Interval(now time.Time, target model.TimeOfDay) time.Duration {
	remaining := target.Until(now)
	if remaining < 0 {
		remaining = -remaining
	}

	if remaining < s.near {
		return s.short
	}

	return s.long
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		if ctx.Err() != nil {
			return
		}

		now := s.clock.Now()
		target := s.target()

		if target.Matches(now) && s.claim(now) {
			logger.Log.Info("scheduled run triggered",
				zap.Time("at", now),
				zap.String("time", target.String()))

			s.run(ctx, now)
			if ctx.Err() != nil {
				return
			}

			now = s.clock.Now()
		}

		wait := s.Interval(now, target)
		logger.Log.Debug("scheduler sleeping",
			zap.Duration("wait", wait),
			zap.Duration("remaining", target.Until(now)))

		select {
		case <-ctx.Done():
			return
		case <-s.clock.After(wait):
		}
	}
}

// claim records a run for now's calendar day and reports whether this is
// the first one, so repeated wake-ups inside the target minute fire once.
func (s *Scheduler) claim(now time.Time) bool {
	day := now.Format(time.DateOnly)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastDay == day {
		return false
	}

	s.lastDay = day
	s.lastRun = now
	s.totalRuns++
	return true
}

func (s *Scheduler) nextRunLocked(now time.Time, target model.TimeOfDay) time.Time {
	y, m, d := now.Date()
	today := time.Date(y, m, d, target.Hour, target.Minute, 0, 0, now.Location())

	if s.lastDay == now.Format(time.DateOnly) || !now.Before(today.Add(time.Minute)) {
		return today.AddDate(0, 0, 1)
	}

	return today
}
