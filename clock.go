package canopy

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"time"
)

// Clock is the single per-frame tick source. It owns one-shot timers and
// stops itself on the first failing tick so a broken frame is not repeated
// forever; the last rendered frame stays on screen.
type Clock struct {
	log     *slog.Logger
	elapsed time.Duration
	delta   time.Duration
	frame   uint64
	stopped bool

	timers []*Timer
	nextID uint64
}

// Timer is a pending one-shot callback scheduled with Clock.After.
type Timer struct {
	id       uint64
	due      time.Duration
	fn       func()
	canceled bool
}

// Cancel prevents the timer from firing. Canceling a fired timer is a no-op.
func (t *Timer) Cancel() {
	if t != nil {
		t.canceled = true
	}
}

// NewClock creates a running clock at time zero.
func NewClock(log *slog.Logger) *Clock {
	return &Clock{log: log}
}

// Elapsed returns the total simulated time.
func (c *Clock) Elapsed() time.Duration { return c.elapsed }

// Delta returns the step of the last tick.
func (c *Clock) Delta() time.Duration { return c.delta }

// Frame returns the number of completed ticks.
func (c *Clock) Frame() uint64 { return c.frame }

// Stopped reports whether the clock has halted.
func (c *Clock) Stopped() bool { return c.stopped }

// Stop halts the clock. Pending timers never fire.
func (c *Clock) Stop() {
	c.stopped = true
	c.timers = nil
}

// After schedules fn to run on the first tick at or after d from now.
func (c *Clock) After(d time.Duration, fn func()) *Timer {
	c.nextID++
	t := &Timer{id: c.nextID, due: c.elapsed + max(d, 0), fn: fn}
	c.timers = append(c.timers, t)
	return t
}

// Tick advances the clock by dt, fires due timers in order, then runs fn. A
// returned error or a panic from a timer or fn is logged once and stops the
// clock; the error is returned to the caller. Ticks on a stopped clock do
// nothing.
func (c *Clock) Tick(dt time.Duration, fn func(dt time.Duration) error) (err error) {
	if c.stopped {
		return nil
	}
	dt = max(dt, 0)
	c.elapsed += dt
	c.delta = dt

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("canopy: panic in frame %d: %v", c.frame, r)
			c.log.Debug("panic stack", "stack", string(debug.Stack()))
		}
		if err != nil {
			c.log.Error("tick failed, stopping clock", "frame", c.frame, "err", err)
			c.Stop()
			return
		}
		c.frame++
	}()

	c.fireTimers()
	if fn != nil {
		return fn(dt)
	}
	return nil
}

// ErrClockStopped is returned by Guard once the clock has stopped.
var ErrClockStopped = errors.New("canopy: clock stopped")

// Guard runs fn outside a tick with the same fail-stop rule: a panic is
// logged once, stops the clock and comes back as an error. A stopped clock
// does not run fn.
func (c *Clock) Guard(stage string, fn func()) (err error) {
	if c.stopped {
		return ErrClockStopped
	}
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		err = fmt.Errorf("canopy: panic in %s at frame %d: %v", stage, c.frame, r)
		c.log.Debug("panic stack", "stack", string(debug.Stack()))
		c.log.Error("stage failed, stopping clock", "stage", stage, "frame", c.frame, "err", err)
		c.Stop()
	}()
	fn()
	return nil
}

func (c *Clock) fireTimers() {
	if len(c.timers) == 0 {
		return
	}
	var due []*Timer
	keep := c.timers[:0]
	for _, t := range c.timers {
		switch {
		case t.canceled:
		case t.due <= c.elapsed:
			due = append(due, t)
		default:
			keep = append(keep, t)
		}
	}
	c.timers = keep
	sort.SliceStable(due, func(i, j int) bool {
		if due[i].due != due[j].due {
			return due[i].due < due[j].due
		}
		return due[i].id < due[j].id
	})
	for _, t := range due {
		if !t.canceled && !c.stopped {
			t.fn()
		}
	}
}

// Pending returns the number of scheduled timers.
func (c *Clock) Pending() int { return len(c.timers) }
