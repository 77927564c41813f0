package framesleep

import (
	"errors"
	"fmt"
	"time"
)

// ErrNegativeFrames is the panic value raised by NFrames for a negative
// frame count, before any suspension or registration happens.
var ErrNegativeFrames = errors.New("framesleep: negative frame count")

// Sleep suspends the task until at least d has elapsed on the scaled
// time base and returns the time actually elapsed. A non-positive d
// resumes on the next tick.
//
// The one-shot registration backing the sleep is disarmed exactly once:
// by firing, or by the deferred cancel when the task is cancelled (or a
// timeout scope cuts it short) while suspended.
func (t *Task) Sleep(d time.Duration) time.Duration {
	ev := t.clock.ScheduleOnce(func(elapsed time.Duration) {
		t.step(elapsed)
	}, d)
	defer ev.Cancel()
	return t.suspend().(time.Duration)
}

// SleepFree is Sleep on the free-running time base, immune to the
// clock's pause and scale state.
func (t *Task) SleepFree(d time.Duration) time.Duration {
	ev := t.clock.ScheduleOnceFree(func(elapsed time.Duration) {
		t.step(elapsed)
	}, d)
	defer ev.Cancel()
	return t.suspend().(time.Duration)
}

// frameCountdown is the shared state between NFrames and its per-tick
// callback.
type frameCountdown struct {
	task      *Task
	remaining int
}

func (f *frameCountdown) tick(time.Duration) bool {
	f.remaining--
	if f.remaining > 0 {
		return true
	}
	f.task.step(nil)
	return false
}

// NFrames suspends the task for exactly n ticks using a single per-tick
// registration rather than n one-shot sleeps. n of zero returns
// immediately without registering anything; a negative n panics with an
// error wrapping ErrNegativeFrames.
func (t *Task) NFrames(n int) {
	if n < 0 {
		panic(fmt.Errorf("%w: %d", ErrNegativeFrames, n))
	}
	if n == 0 {
		return
	}
	cd := &frameCountdown{task: t, remaining: n}
	ev := t.clock.ScheduleInterval(cd.tick, 0)
	defer ev.Cancel()
	t.suspend()
}

// SleepFreq is a periodic re-sleep scope: one recurring clock trigger,
// armed for the scope's lifetime, fires one owned event that Wait parks
// on. Sleeping this way amortizes registration cost against re-arming a
// one-shot per iteration:
//
//	freq := task.SleepFreq(0)
//	defer freq.Cancel()
//	for i := 0; i < 5; i++ {
//		dt := freq.Wait()
//		...
//	}
//
// WithSleepFreq is the closure form of the same scope.
type SleepFreq struct {
	task    *Task
	event   Event[time.Duration]
	trigger *ClockEvent
}

// SleepFreq opens a periodic re-sleep scope with fires spaced at least
// step apart on the scaled time base (0 = every tick). The caller owns
// the scope and must Cancel it; use WithSleepFreq when a deferred
// teardown inside a closure fits the call site better.
func (t *Task) SleepFreq(step time.Duration) *SleepFreq {
	s := &SleepFreq{task: t}
	s.trigger = t.clock.ScheduleInterval(func(elapsed time.Duration) bool {
		s.event.Fire(elapsed)
		return true
	}, step)
	return s
}

// Wait parks the task until the scope's next fire and returns the time
// elapsed since the previous one. Usable any number of times within the
// scope, interleaved freely with other suspending operations.
func (s *SleepFreq) Wait() time.Duration {
	return s.event.Wait(s.task)
}

// Cancel tears down the recurring trigger. Idempotent, so a deferred
// Cancel and an explicit one do not conflict.
func (s *SleepFreq) Cancel() {
	s.trigger.Cancel()
}

// WithSleepFreq runs body inside a SleepFreq scope, passing it the
// scope's wait operation. The trigger is torn down on every exit path:
// normal return, panic, task cancellation, or an enclosing timeout
// scope cutting the body short.
func (t *Task) WithSleepFreq(step time.Duration, body func(wait func() time.Duration)) {
	s := t.SleepFreq(step)
	defer s.Cancel()
	body(s.Wait)
}

// timeoutScope identifies one MoveOnAfter invocation. Its pointer is
// the panic value delivered at the suspension point when the scope's
// timer wins, and only the matching scope absorbs it; task-level
// cancellation and outer scopes' panics pass through untouched.
type timeoutScope struct {
	task *Task
}

// MoveOnAfter runs body under a time bound of d on the scaled time
// base and reports whether the body was cut short. If the body
// finishes first the backing timer is disarmed and can never fire
// afterwards; if the timer fires first the body is unwound at its
// current suspension point, each suspended primitive disarming its own
// registration on the way out, and MoveOnAfter returns true.
//
// A body that never suspends cannot be interrupted; that is the
// cooperative model's contract, not a timer race.
func (t *Task) MoveOnAfter(d time.Duration, body func()) (timedOut bool) {
	sc := &timeoutScope{task: t}
	ev := t.clock.ScheduleOnce(func(time.Duration) {
		sc.task.step(sc)
	}, d)
	defer ev.Cancel()
	defer func() {
		if r := recover(); r != nil {
			if s, ok := r.(*timeoutScope); ok && s == sc {
				timedOut = true
				return
			}
			panic(r)
		}
	}()
	body()
	return false
}
