// Package framesleep provides timer- and frame-based suspension
// primitives for single-threaded cooperative tasks driven by a
// per-frame clock. A task started with Start suspends itself through
// Sleep, NFrames, SleepFreq, or MoveOnAfter; each primitive arms
// exactly one cancellable registration on the task's Clock whose
// callback resumes the task, and the host loop makes everything happen
// by calling Clock.Tick once per frame.
//
// The clock keeps two time bases: a scaled one, subject to SetScale
// and Pause, and a free-running one that always advances with the raw
// frame duration. Sleep waits on the former, SleepFree on the latter.
//
// Cancellation is delivered at the task's exact suspension point.
// Every primitive disarms its registration on the way out, on all exit
// paths, so a cancelled wait leaves no registration behind and no
// callback fires late: exactly one of fire and disarm happens per
// suspension. MoveOnAfter builds on the same mechanism to bound a
// block of task code to a duration, absorbing only its own
// cancellation and reporting whether the block was cut short.
//
// Panics escaping a task are wrapped with the stack captured inside
// the task and re-raised to the host side, so a failure inside a frame
// callback still points at the task code that caused it.
package framesleep
