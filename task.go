package framesleep

import (
	"errors"
	"fmt"
	"unsafe"
)

var (
	// ErrCancelled is delivered into a suspended task when it is
	// cancelled. It is also the panic value observed when suspending
	// on a task that has already completed or been cancelled.
	ErrCancelled = errors.New("framesleep: task cancelled")
	_            unsafe.Pointer
)

// coroutine represents a native Go coroutine instance. It's an opaque
// struct used by the runtime functions.
type coroutine struct{}

//go:linkname newcoro runtime.newcoro
func newcoro(func(*coroutine)) *coroutine

//go:linkname coroswitch runtime.coroswitch
func coroswitch(*coroutine)

// Task is a unit of cooperative execution bound to a Clock. A task
// suspends itself through the sleeping primitives (Sleep, NFrames,
// SleepFreq, MoveOnAfter) and resumes inside the clock callbacks those
// primitives arm; only one task runs at a time, and everything happens
// on the host's frame loop.
//
// Cancellation is delivered as a panic carrying ErrCancelled raised at
// the task's current suspension point. Each suspended primitive disarms
// its clock registration during the unwind (deferred cancels on inert,
// idempotent handles) and lets the panic continue, so an uncaught
// cancellation unwinds every enclosing scope before the task root
// absorbs it.
type Task struct {
	clock     *Clock
	c         *coroutine
	in        any
	done      bool
	cancelled bool
	perr      error
}

// Start spawns a task bound to clock and runs it until it first
// suspends or completes. The task function receives its own handle so
// it can call the suspension primitives.
//
// A panic escaping fn is wrapped with a captured stack and re-raised to
// whichever call resumed the task: Start itself, or the Clock.Tick that
// fired the resuming callback.
func Start(clock *Clock, fn func(*Task)) *Task {
	t := &Task{clock: clock}
	t.c = newcoro(func(c *coroutine) {
		defer func() {
			if !t.done {
				if p := recover(); p != nil {
					t.perr = newPanicError(p)
				}
				t.done = true
			}
		}()
		if t.perr == nil {
			fn(t)
		}
	})
	t.step(nil)
	return t
}

// Clock returns the clock the task was started on.
func (t *Task) Clock() *Clock {
	return t.clock
}

// Done reports whether the task has completed, by returning, by
// panicking, or by cancellation.
func (t *Task) Done() bool {
	return t.done
}

// Cancelled reports whether the task was terminated by Cancel.
func (t *Task) Cancelled() bool {
	return t.cancelled
}

// Cancel delivers cancellation at the task's current suspension point
// and runs it to completion. No-op if the task is already done. Cancel
// is a host-side call; invoking it from inside the task itself is not
// supported.
//
// The task's own cancellation is absorbed here. If the unwind raises a
// different panic (a deferred function failing, for instance), that
// panic propagates to the caller wrapped with its stack.
func (t *Task) Cancel() {
	if t.done {
		return
	}
	cancelled := fmt.Errorf("%w", ErrCancelled)
	t.cancelled = true
	t.perr = cancelled
	coroswitch(t.c)
	if t.perr != nil && !errors.Is(t.perr, cancelled) {
		panic(t.perr)
	}
}

// step resumes the task at its suspension point, delivering v as the
// suspend result. Inert once the task is done, so a stale callback on
// an already-terminated task cannot resume anything.
func (t *Task) step(v any) {
	if t.done {
		return
	}
	t.in = v
	coroswitch(t.c)
	if t.perr != nil {
		panic(t.perr)
	}
}

// suspend parks the task until a clock callback steps it, returning the
// delivered value. Panics with the cancellation error if the task is
// cancelled while parked, and with the owning scope if a timeout scope
// cuts the task short here.
func (t *Task) suspend() any {
	if t.done {
		panic(ErrCancelled)
	}
	coroswitch(t.c)
	if t.perr != nil {
		panic(t.perr)
	}
	if sc, ok := t.in.(*timeoutScope); ok {
		t.in = nil
		panic(sc)
	}
	return t.in
}
