// Package scheduler runs the background loop that compares the wall clock
// with every medication's schedule.
//
// The loop samples the clock once per interval and fires only on exact
// hour:minute equality. There is no window and no catch-up: if a wake-up
// slips past a minute boundary that minute is never checked. Two identical
// entries on one medication fire twice.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jeanpaul/medremind/internal/medication"
	"github.com/jeanpaul/medremind/internal/reminder"
	"github.com/jeanpaul/medremind/internal/store"
)

const DefaultInterval = time.Minute

// Clock reports local wall-clock time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// Deliverer is the side-effecting half of the reminder action.
type Deliverer interface {
	Deliver(ctx context.Context, f reminder.Firing)
}

type Scheduler struct {
	store         *store.Store
	action        Deliverer
	clock         Clock
	interval      time.Duration
	persistOnFire bool
	log           *slog.Logger
}

type Option func(*Scheduler)

func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

func WithClock(c Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.log = l }
}

// WithPersistOnFire saves the store after every tick that fired, so
// decrements survive a crash.
func WithPersistOnFire(on bool) Option {
	return func(s *Scheduler) { s.persistOnFire = on }
}

func New(st *store.Store, action Deliverer, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:    st,
		action:   action,
		clock:    systemClock{},
		interval: DefaultInterval,
		log:      slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Run checks immediately and then once per interval until ctx is done.
// Cancellation is observed during the sleep, so shutdown does not wait
// for the interval to elapse.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info("scheduler started", "interval", s.interval.String())
	defer s.log.Info("scheduler stopped")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.safeTick(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Tick runs one scan against now and delivers what fired. The store lock
// is held only while counters are decremented; delivery happens after it
// is released.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) []reminder.Firing {
	firings := s.Collect(now)
	for _, f := range firings {
		s.action.Deliver(ctx, f)
	}
	if len(firings) > 0 && s.persistOnFire {
		if err := s.store.Persist(ctx); err != nil {
			s.log.Error("failed to save after reminder", "error", err)
		}
	}
	return firings
}

// Collect applies the reminder action to every entry matching now and
// returns the firings in store order (ascending id, then schedule order).
func (s *Scheduler) Collect(now time.Time) []reminder.Firing {
	hour, minute := now.Hour(), now.Minute()
	var firings []reminder.Firing
	s.store.Scan(func(m *medication.Medication) {
		for _, e := range m.ScheduledTimes {
			if e.Matches(hour, minute) {
				firings = append(firings, reminder.Apply(m, e, now))
			}
		}
	})
	return firings
}

func (s *Scheduler) safeTick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("reminder check panicked", "panic", fmt.Sprint(r))
		}
	}()
	s.Tick(ctx, s.clock.Now())
}
