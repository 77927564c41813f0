package framesleep

import "time"

// ClockEvent lifecycle. An armed event either fires (one-shot), keeps
// firing (interval), or is cancelled; done and cancelled are terminal.
const (
	eventArmed = iota
	eventDone
	eventCancelled
)

// ClockEvent is a cancellable registration on a Clock. It is owned by
// whichever primitive armed it and is disarmed exactly once: when a
// one-shot fires, when an interval callback stops it, or by Cancel.
type ClockEvent struct {
	callback func(elapsed time.Duration) bool
	delay    time.Duration
	baseAt   time.Duration
	frame    uint64
	repeat   bool
	free     bool
	status   int
}

// Cancel disarms the event. Idempotent, and inert on an event that has
// already fired for the last time: a cancelled or finished registration
// never invokes its callback again.
func (e *ClockEvent) Cancel() {
	if e == nil || e.status != eventArmed {
		return
	}
	e.status = eventCancelled
}

// Clock is a frame clock advanced by the host loop through Tick. It
// keeps two time bases: the scaled time, subject to SetScale and
// Pause, and the free-running time, which always advances by the raw
// frame duration.
//
// The clock is single-threaded by contract. Tick, scheduling, and every
// callback all run on the host's frame loop; the suspension primitives
// resume their tasks from inside these callbacks.
type Clock struct {
	events   []*ClockEvent
	time     time.Duration
	freeTime time.Duration
	frame    uint64
	scale    float64
	paused   bool
}

// NewClock returns a clock at time zero with scale 1.
func NewClock() *Clock {
	return &Clock{scale: 1}
}

// Frame returns the number of completed ticks.
func (c *Clock) Frame() uint64 {
	return c.frame
}

// Now returns the scaled time.
func (c *Clock) Now() time.Duration {
	return c.time
}

// NowFree returns the free-running time.
func (c *Clock) NowFree() time.Duration {
	return c.freeTime
}

// SetScale sets the factor applied to frame durations on the scaled
// time base. Values below zero are treated as zero.
func (c *Clock) SetScale(f float64) {
	if f < 0 {
		f = 0
	}
	c.scale = f
}

// Pause freezes the scaled time base. Free-running registrations and
// per-tick intervals are unaffected.
func (c *Clock) Pause() {
	c.paused = true
}

// Resume unfreezes the scaled time base.
func (c *Clock) Resume() {
	c.paused = false
}

func (c *Clock) now(free bool) time.Duration {
	if free {
		return c.freeTime
	}
	return c.time
}

func (c *Clock) schedule(fn func(time.Duration) bool, delay time.Duration, repeat, free bool) *ClockEvent {
	if delay < 0 {
		delay = 0
	}
	e := &ClockEvent{
		callback: fn,
		delay:    delay,
		baseAt:   c.now(free),
		frame:    c.frame,
		repeat:   repeat,
		free:     free,
	}
	c.events = append(c.events, e)
	return e
}

// ScheduleOnce arms fn to run once after delay on the scaled time base,
// receiving the time elapsed since arming. A delay of zero (or less)
// fires on the next tick.
func (c *Clock) ScheduleOnce(fn func(elapsed time.Duration), delay time.Duration) *ClockEvent {
	return c.schedule(func(elapsed time.Duration) bool {
		fn(elapsed)
		return false
	}, delay, false, false)
}

// ScheduleOnceFree is ScheduleOnce on the free-running time base,
// unaffected by the clock's pause and scale state.
func (c *Clock) ScheduleOnceFree(fn func(elapsed time.Duration), delay time.Duration) *ClockEvent {
	return c.schedule(func(elapsed time.Duration) bool {
		fn(elapsed)
		return false
	}, delay, false, true)
}

// ScheduleInterval arms fn to run every time step has elapsed since the
// previous run, receiving that elapsed duration. A step of zero runs fn
// every tick. Returning false from fn stops the interval.
func (c *Clock) ScheduleInterval(fn func(elapsed time.Duration) bool, step time.Duration) *ClockEvent {
	return c.schedule(fn, step, true, false)
}

// Tick completes one frame of duration dt: advances both time bases and
// fires every due registration. Events armed from inside a callback
// fire no earlier than the next tick. A panic escaping a resumed task
// propagates out of Tick to the host loop.
func (c *Clock) Tick(dt time.Duration) {
	if dt < 0 {
		dt = 0
	}
	c.frame++
	c.freeTime += dt
	if !c.paused {
		if c.scale == 1 {
			c.time += dt
		} else {
			c.time += time.Duration(float64(dt) * c.scale)
		}
	}

	// Fire pass. Nothing moves here: only statuses change, so a panic
	// escaping a callback leaves the slice consistent and whatever
	// already fired stays inert on the next tick. Appends made by
	// callbacks land past i and are visited in the same pass, but the
	// frame guard keeps anything armed during this tick from firing
	// before the next one.
	for i := 0; i < len(c.events); i++ {
		e := c.events[i]
		if e.status != eventArmed {
			continue
		}
		if e.frame == c.frame {
			continue
		}
		now := c.now(e.free)
		elapsed := now - e.baseAt
		if elapsed < e.delay {
			continue
		}
		if e.repeat {
			e.baseAt = now
			if !e.callback(elapsed) && e.status == eventArmed {
				e.status = eventDone
			}
			continue
		}
		// Done before the callback runs, so a deferred Cancel in the
		// primitive that armed it is a no-op after a normal fire.
		e.status = eventDone
		e.callback(elapsed)
	}

	// Compact survivors. Skipped when a panic aborts the fire pass;
	// the status guard above keeps the leftovers harmless until the
	// next tick sweeps them.
	keep := 0
	for _, e := range c.events {
		if e.status != eventArmed {
			continue
		}
		c.events[keep] = e
		keep++
	}
	for i := keep; i < len(c.events); i++ {
		c.events[i] = nil
	}
	c.events = c.events[:keep]
}
