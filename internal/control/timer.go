package control

import "time"

// timerEpsilon is the tolerance used when deciding whether a timer is
// effectively at zero or has accumulated any run time. One millisecond is
// far below any realistic tick.
const timerEpsilon = time.Millisecond

// Timer accumulates elapsed time while its gate is true and resets to zero
// the instant the gate goes false. It is the shared primitive behind both
// the anti-short-cycle delay and the minimum-run hold.
//
// Callers must read Elapsed (and the derived AtZero/Running) BEFORE calling
// Advance for the current tick: gates are computed from the pre-tick value,
// the update happens after the firing decision is known.
type Timer struct {
	elapsed time.Duration
}

// Elapsed returns the accumulated time.
func (t *Timer) Elapsed() time.Duration {
	return t.elapsed
}

// Advance adds dt while gate is true, otherwise resets to zero.
func (t *Timer) Advance(gate bool, dt time.Duration) {
	if gate {
		t.elapsed += dt
		return
	}
	t.elapsed = 0
}

// AtZero reports whether the timer has (effectively) never run or just reset.
func (t *Timer) AtZero() bool {
	return t.elapsed < timerEpsilon
}

// Running reports whether the timer has accumulated any meaningful time.
func (t *Timer) Running() bool {
	return t.elapsed > timerEpsilon
}

// Reset forces the timer back to zero.
func (t *Timer) Reset() {
	t.elapsed = 0
}
