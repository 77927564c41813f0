package framesleep

// eventWaiter tracks one parked task between subscribing and being
// stepped. dead marks a waiter that unwound (cancelled task or timeout
// scope) before its fire reached it; a fire skips dead waiters.
type eventWaiter struct {
	task    *Task
	resumed bool
	dead    bool
}

// Event is a reusable wait point: any number of tasks park on Wait,
// the next Fire resumes all of them with the same payload, and the
// waiter set is cleared for the next cycle. Waiters subscribing after a
// fire, including from inside a resumed waiter during that same fire,
// park until the next one; no payload is replayed.
//
// The zero value is ready to use.
type Event[T any] struct {
	waiters []*eventWaiter
}

// Wait parks t until the next Fire and returns its payload. If t is
// cancelled, or cut short by a timeout scope, while parked, the waiter
// is dropped from the event before the cancellation continues, so no
// later fire can step a task that has moved on.
func (e *Event[T]) Wait(t *Task) T {
	w := &eventWaiter{task: t}
	e.waiters = append(e.waiters, w)
	defer func() {
		if !w.resumed {
			w.dead = true
			e.remove(w)
		}
	}()
	v := t.suspend()
	w.resumed = true
	if v == nil {
		var zero T
		return zero
	}
	return v.(T)
}

// Fire resumes every waiter currently parked with payload v, in the
// order they subscribed. No-op with zero waiters. The waiter set is
// detached before anyone is stepped, so subscriptions made while the
// fire is in progress belong to the next cycle.
func (e *Event[T]) Fire(v T) {
	ws := e.waiters
	if len(ws) == 0 {
		return
	}
	e.waiters = nil
	i := 0
	defer func() {
		// A panic escaping a stepped task must not orphan the rest of
		// the snapshot: re-park the unstepped tail, ahead of anything
		// that subscribed during the fire, so the next fire reaches it.
		if i >= len(ws) {
			return
		}
		tail := make([]*eventWaiter, 0, len(ws)-i-1+len(e.waiters))
		for _, w := range ws[i+1:] {
			if !w.dead {
				tail = append(tail, w)
			}
		}
		e.waiters = append(tail, e.waiters...)
	}()
	for ; i < len(ws); i++ {
		w := ws[i]
		if w.dead {
			continue
		}
		w.task.step(v)
	}
}

func (e *Event[T]) remove(w *eventWaiter) {
	for i, x := range e.waiters {
		if x == w {
			e.waiters = append(e.waiters[:i], e.waiters[i+1:]...)
			return
		}
	}
}
