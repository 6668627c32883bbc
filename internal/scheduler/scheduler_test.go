package scheduler

import (
	"context"
	"ftpsched/internal/model"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type waiter struct {
	deadline time.Time
	ch       chan time.Time
}

type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	waiters []waiter
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan time.Time, 1)
	c.waiters = append(c.waiters, waiter{deadline: c.now.Add(d), ch: ch})
	return ch
}

// Advance moves time forward and fires every waiter that is due.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
	pending := c.waiters[:0]
	for _, w := range c.waiters {
		if !w.deadline.After(c.now) {
			w.ch <- c.now
			continue
		}
		pending = append(pending, w)
	}
	c.waiters = pending
}

func (c *fakeClock) pending() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]time.Duration, 0, len(c.waiters))
	for _, w := range c.waiters {
		out = append(out, w.deadline.Sub(c.now))
	}
	return out
}

// waitForSleep blocks until the loop is asleep and returns how long it asked to sleep.
func (c *fakeClock) waitForSleep(t *testing.T) time.Duration {
	t.Helper()

	var got []time.Duration
	require.Eventually(t, func() bool {
		got = c.pending()
		return len(got) == 1
	}, 2*time.Second, time.Millisecond)
	return got[0]
}

func date(day, hour, minute, second int) time.Time {
	return time.Date(2024, 3, day, hour, minute, second, 0, time.Local)
}

func fixed(t model.TimeOfDay) func() model.TimeOfDay {
	return func() model.TimeOfDay { return t }
}

func TestInterval(t *testing.T) {
	s := New(fixed(model.TimeOfDay{Hour: 9}), func(context.Context, time.Time) {}, Options{})
	target := model.TimeOfDay{Hour: 9}

	tests := []struct {
		name string
		now  time.Time
		want time.Duration
	}{
		{name: "25 minutes before", now: date(5, 8, 35, 0), want: 30 * time.Second},
		{name: "three hours before", now: date(5, 6, 0, 0), want: 25 * time.Minute},
		{name: "exactly 30 minutes before", now: date(5, 8, 30, 0), want: 25 * time.Minute},
		{name: "at target", now: date(5, 9, 0, 10), want: 30 * time.Second},
		{name: "just passed", now: date(5, 9, 20, 0), want: 30 * time.Second},
		{name: "long passed", now: date(5, 13, 0, 0), want: 25 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Interval(tt.now, target))
		})
	}
}

func TestIntervalAcrossMidnight(t *testing.T) {
	s := New(fixed(model.TimeOfDay{Minute: 10}), func(context.Context, time.Time) {}, Options{})

	assert.Equal(t, 30*time.Second, s.Interval(date(5, 23, 50, 0), model.TimeOfDay{Minute: 10}))
}

func TestRunsOncePerDay(t *testing.T) {
	clock := newFakeClock(date(5, 8, 59, 0))
	runs := make(chan time.Time, 10)
	s := New(fixed(model.TimeOfDay{Hour: 9}), func(_ context.Context, at time.Time) {
		runs <- at
	}, Options{Clock: clock})

	s.Start()
	defer s.Stop()

	assert.Equal(t, 30*time.Second, clock.waitForSleep(t))
	clock.Advance(30 * time.Second)
	clock.waitForSleep(t)
	assert.Empty(t, runs)

	clock.Advance(30 * time.Second)
	clock.waitForSleep(t)
	require.Len(t, runs, 1)
	assert.Equal(t, date(5, 9, 0, 0), <-runs)

	clock.Advance(30 * time.Second)
	clock.waitForSleep(t)
	assert.Empty(t, runs, "second wake-up inside the target minute must not re-trigger")

	for range 4 {
		clock.Advance(30 * time.Second)
		clock.waitForSleep(t)
	}
	assert.Empty(t, runs)

	clock.Advance(date(6, 9, 0, 5).Sub(clock.Now()))
	clock.waitForSleep(t)
	require.Len(t, runs, 1)
	assert.Equal(t, date(6, 9, 0, 5), <-runs)

	assert.Equal(t, 2, s.Status().TotalRuns)
}

func TestFarFromTargetSleepsLong(t *testing.T) {
	clock := newFakeClock(date(5, 6, 0, 0))
	s := New(fixed(model.TimeOfDay{Hour: 9}), func(context.Context, time.Time) {}, Options{Clock: clock})

	s.Start()
	defer s.Stop()

	assert.Equal(t, 25*time.Minute, clock.waitForSleep(t))
}

func TestScheduleChangeAppliesWithoutRestart(t *testing.T) {
	clock := newFakeClock(date(5, 6, 0, 0))

	var mu sync.Mutex
	target := model.TimeOfDay{Hour: 9}
	runs := make(chan time.Time, 1)
	s := New(func() model.TimeOfDay {
		mu.Lock()
		defer mu.Unlock()
		return target
	}, func(_ context.Context, at time.Time) { runs <- at }, Options{Clock: clock})

	s.Start()
	defer s.Stop()
	clock.waitForSleep(t)

	mu.Lock()
	target = model.TimeOfDay{Hour: 6, Minute: 25}
	mu.Unlock()

	clock.Advance(25 * time.Minute)
	clock.waitForSleep(t)
	require.Len(t, runs, 1)
}

func TestStopInterruptsSleep(t *testing.T) {
	s := New(fixed(model.TimeOfDay{Hour: 9}), func(context.Context, time.Time) {}, Options{
		ShortInterval: time.Hour,
		LongInterval:  time.Hour,
	})

	s.Start()
	require.True(t, s.Running())

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("stop did not interrupt the sleep")
	}
	assert.False(t, s.Running())
}

func TestStopCancelsRunningBatch(t *testing.T) {
	clock := newFakeClock(date(5, 9, 0, 0))
	started := make(chan struct{})
	finished := make(chan error, 1)
	s := New(fixed(model.TimeOfDay{Hour: 9}), func(ctx context.Context, _ time.Time) {
		close(started)
		<-ctx.Done()
		finished <- ctx.Err()
	}, Options{Clock: clock})

	s.Start()
	<-started
	s.Stop()

	assert.ErrorIs(t, <-finished, context.Canceled)
	assert.False(t, s.Running())
	assert.Empty(t, clock.pending())
}

func TestStopWhileIdleIsNoop(t *testing.T) {
	s := New(fixed(model.TimeOfDay{Hour: 9}), func(context.Context, time.Time) {}, Options{})

	s.Stop()
	assert.False(t, s.Running())
	assert.False(t, s.Status().Running)
}

func TestStartWhileRunningRestarts(t *testing.T) {
	clock := newFakeClock(date(5, 6, 0, 0))
	s := New(fixed(model.TimeOfDay{Hour: 9}), func(context.Context, time.Time) {}, Options{Clock: clock})

	s.Start()
	clock.waitForSleep(t)

	s.Start()
	require.True(t, s.Running())

	// The first loop has exited; its abandoned sleep is the only extra waiter.
	require.Eventually(t, func() bool { return len(clock.pending()) == 2 }, 2*time.Second, time.Millisecond)

	s.Stop()
	assert.False(t, s.Running())

	s.Start()
	assert.True(t, s.Running())
	s.Stop()
}

func TestRestartSameMinuteDoesNotRerun(t *testing.T) {
	clock := newFakeClock(date(5, 9, 0, 0))
	runs := make(chan time.Time, 4)
	s := New(fixed(model.TimeOfDay{Hour: 9}), func(_ context.Context, at time.Time) { runs <- at }, Options{Clock: clock})

	s.Start()
	clock.waitForSleep(t)
	s.Stop()

	clock.Advance(10 * time.Second)
	s.Start()
	require.Eventually(t, func() bool { return len(clock.pending()) == 2 }, 2*time.Second, time.Millisecond)
	s.Stop()

	assert.Len(t, runs, 1)
}

func TestStatus(t *testing.T) {
	clock := newFakeClock(date(5, 8, 0, 0))
	s := New(fixed(model.TimeOfDay{Hour: 9}), func(context.Context, time.Time) {}, Options{Clock: clock})

	st := s.Status()
	assert.False(t, st.Running)
	assert.Nil(t, st.NextRun)

	s.Start()
	defer s.Stop()
	clock.waitForSleep(t)

	st = s.Status()
	assert.True(t, st.Running)
	require.NotNil(t, st.NextRun)
	assert.Equal(t, date(5, 9, 0, 0), *st.NextRun)
	assert.Nil(t, st.LastRun)
}
