package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	domain "github.com/oshokin/next-alarm/internal/domain/alarm"
	"github.com/oshokin/next-alarm/internal/logger"
	repo "github.com/oshokin/next-alarm/internal/repository/snapshot"
)

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now returns f().
func (f ClockFunc) Now() time.Time {
	return f()
}

// Publisher receives every new state.
type Publisher interface {
	Publish(ctx context.Context, state *domain.State) error
}

// Coordinator recomputes and publishes the next alarm.
// Writers are serialized; readers get the latest immutable State without locking.
type Coordinator struct {
	// repo persists the last delivery, nil disables persistence.
	repo repo.Repository
	// clock provides the reference instant of each computation.
	clock Clock
	// defaultLocation is used until the phone reports its timezone.
	defaultLocation *time.Location
	// publishers receive each new state in registration order.
	publishers []Publisher

	// mu serializes updates and refreshes.
	mu sync.Mutex
	// alarms is the last delivered alarm list.
	alarms []domain.Alarm
	// timezone is the last valid device timezone, empty when unknown.
	timezone string
	// state is the latest computed state.
	state atomic.Pointer[domain.State]
}

// Option configures the coordinator.
type Option func(*Coordinator)

// WithRepository persists deliveries with the given repository.
func WithRepository(r repo.Repository) Option {
	return func(c *Coordinator) {
		c.repo = r
	}
}

// WithClock replaces the wall clock.
func WithClock(clock Clock) Option {
	return func(c *Coordinator) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithDefaultLocation sets the timezone used before the phone reports one.
func WithDefaultLocation(loc *time.Location) Option {
	return func(c *Coordinator) {
		if loc != nil {
			c.defaultLocation = loc
		}
	}
}

// WithPublishers registers state sinks.
func WithPublishers(publishers ...Publisher) Option {
	return func(c *Coordinator) {
		c.publishers = append(c.publishers, publishers...)
	}
}

// New creates a coordinator, restoring the last delivery from the repository
// when one is configured, and computes the initial state.
func New(ctx context.Context, opts ...Option) (*Coordinator, error) {
	c := &Coordinator{
		clock:           ClockFunc(time.Now),
		defaultLocation: time.Local,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.repo != nil {
		payload, err := c.repo.Load(ctx)

		switch {
		case err == nil:
			c.alarms = payload.Alarms
			c.timezone = c.acceptTimezone(ctx, payload.Timezone)
			logger.InfoKV(ctx, "Restored alarm snapshot", "alarms", len(c.alarms), "timezone", c.timezone)
		case errors.Is(err, repo.ErrNotFound):
			// Start empty.
		default:
			return nil, fmt.Errorf("load snapshot: %w", err)
		}
	}

	c.state.Store(domain.NewState(c.alarms, c.now()))

	return c, nil
}

// State returns the latest computed state. Callers must not modify it.
func (c *Coordinator) State() *domain.State {
	return c.state.Load()
}

// Subscribe registers a publisher after construction. It receives states
// from the next recomputation on.
func (c *Coordinator) Subscribe(p Publisher) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.publishers = append(c.publishers, p)
}

// Location returns the location currently used as the "now" basis.
func (c *Coordinator) Location() *time.Location {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.location()
}

// UpdateAlarms replaces the alarm list with the delivery, recomputes, persists
// and publishes. An empty timezone keeps the stored one.
func (c *Coordinator) UpdateAlarms(ctx context.Context, payload *domain.Payload) (*domain.State, error) {
	if payload == nil {
		payload = new(domain.Payload)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if tz := c.acceptTimezone(ctx, payload.Timezone); tz != "" {
		c.timezone = tz
	}

	c.alarms = make([]domain.Alarm, 0, len(payload.Alarms))
	for _, a := range payload.Alarms {
		c.alarms = append(c.alarms, a.Clone())
	}

	state := c.recompute(ctx)

	if c.repo != nil {
		snapshot := &domain.Payload{
			Alarms:   c.alarms,
			Timezone: c.timezone,
		}

		if err := c.repo.Save(ctx, snapshot); err != nil {
			logger.ErrorKV(ctx, "Failed to persist alarm snapshot", "error", err)

			return state, fmt.Errorf("persist snapshot: %w", err)
		}
	}

	logger.InfoKV(ctx, "Alarms updated",
		"alarms", len(c.alarms),
		"skipped", payload.Skipped,
		"timezone", state.Timezone,
		"next_alarm", formatNext(state),
	)

	return state, nil
}

// Refresh recomputes the state from the stored alarms and the current clock.
func (c *Coordinator) Refresh(ctx context.Context) *domain.State {
	c.mu.Lock()
	defer c.mu.Unlock()

	state := c.recompute(ctx)

	logger.DebugKV(ctx, "Next alarm refreshed", "next_alarm", formatNext(state))

	return state
}

// recompute stores and publishes a new state. Callers hold mu.
func (c *Coordinator) recompute(ctx context.Context) *domain.State {
	state := domain.NewState(c.alarms, c.now())
	c.state.Store(state)

	for _, p := range c.publishers {
		if err := p.Publish(ctx, state); err != nil {
			logger.WarnKV(ctx, "Failed to publish alarm state", "error", err)
		}
	}

	return state
}

// now reads the clock in the current location. Callers hold mu or run in New.
func (c *Coordinator) now() time.Time {
	return c.clock.Now().In(c.location())
}

// location resolves the device timezone, falling back to the default one.
func (c *Coordinator) location() *time.Location {
	if c.timezone != "" {
		if loc, err := time.LoadLocation(c.timezone); err == nil {
			return loc
		}
	}

	return c.defaultLocation
}

// acceptTimezone returns name when it is a loadable IANA zone, otherwise "".
func (c *Coordinator) acceptTimezone(ctx context.Context, name string) string {
	if name == "" {
		return ""
	}

	if _, err := time.LoadLocation(name); err != nil {
		logger.WarnKV(ctx, "Ignoring unknown timezone", "timezone", name, "error", err)

		return ""
	}

	return name
}

// formatNext renders the next alarm for log lines.
func formatNext(state *domain.State) string {
	at, ok := state.NextAlarm()
	if !ok {
		return "none"
	}

	return at.Format(time.RFC3339)
}
