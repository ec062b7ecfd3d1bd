package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	domain "github.com/oshokin/next-alarm/internal/domain/alarm"
	"github.com/oshokin/next-alarm/internal/logger"
)

// maxSleep caps a single wait so wall clock jumps (suspend, NTP) are noticed.
const maxSleep = time.Hour

// ErrInvalidSchedule is returned by New for malformed cron expressions.
var ErrInvalidSchedule = errors.New("invalid cron expression")

// Source is the state owner driven by the scheduler.
type Source interface {
	// State returns the current state without recomputing it.
	State() *domain.State
	// Refresh recomputes and publishes the state.
	Refresh(ctx context.Context) *domain.State
}

// Scheduler wakes up at the earlier of the next cron tick and the next alarm.
type Scheduler struct {
	expr   string
	source Source
	now    func() time.Time
	reload chan struct{}
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithNow replaces the wall clock.
func WithNow(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// New validates the cron expression and returns an idle scheduler.
func New(expr string, source Source, opts ...Option) (*Scheduler, error) {
	if !gronx.IsValid(expr) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSchedule, expr)
	}

	s := &Scheduler{
		expr:   expr,
		source: source,
		now:    time.Now,
		reload: make(chan struct{}, 1),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Reload makes a running scheduler re-read the state and re-plan its wake-up.
// It never blocks.
func (s *Scheduler) Reload() {
	select {
	case s.reload <- struct{}{}:
	default:
	}
}

// Publish lets the scheduler follow every recomputation of the state.
func (s *Scheduler) Publish(context.Context, *domain.State) error {
	s.Reload()

	return nil
}

// Run blocks until ctx is canceled.
func (s *Scheduler) Run(ctx context.Context) error {
	ctx = logger.WithName(ctx, "scheduler")
	state := s.source.State()

	for {
		now := s.now()
		wake := s.NextWake(ctx, now, state)

		wait := wake.Sub(now)
		if wait > maxSleep {
			wait = maxSleep
		}

		timer := time.NewTimer(wait)

		select {
		case <-ctx.Done():
			timer.Stop()

			return nil
		case <-s.reload:
			timer.Stop()

			state = s.source.State()
		case <-timer.C:
			if s.now().Before(wake) {
				continue
			}

			logger.DebugKV(ctx, "Scheduled recomputation", "planned", wake)

			state = s.source.Refresh(ctx)
		}
	}
}

// NextWake returns the instant of the next recomputation after now.
func (s *Scheduler) NextWake(ctx context.Context, now time.Time, state *domain.State) time.Time {
	wake, err := gronx.NextTickAfter(s.expr, now, false)
	if err != nil {
		logger.WarnKV(ctx, "Failed to resolve next cron tick", "expr", s.expr, "error", err)

		wake = now.Add(maxSleep)
	}

	if at, ok := state.NextAlarm(); ok && at.After(now) && at.Before(wake) {
		return at
	}

	return wake
}
