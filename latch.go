package coro

import "sync/atomic"

// Latch is a single-use countdown gate built on Event: waiters parked via
// Wait are released once the count reaches zero.
type Latch struct {
	count atomic.Int64
	ev    Event
}

// NewLatch constructs a Latch with the given initial count. A non-positive
// count is already satisfied, pre-arming the underlying event.
func NewLatch(count int64) *Latch {
	l := &Latch{}
	l.count.Store(count)
	if count <= 0 {
		l.ev.Set()
	}
	return l
}

// CountDown decrements the latch's count by one. Once the count reaches
// zero or below, the underlying event is set, releasing every waiter;
// Event.Set is idempotent so a latch that is decremented past zero is safe.
func (l *Latch) CountDown() {
	if l.count.Add(-1) <= 0 {
		l.ev.Set()
	}
}

// Wait suspends the calling coroutine until the latch's count reaches zero.
func (l *Latch) Wait(y *Yielder) {
	l.ev.Wait(y)
}

// LatchGuard calls CountDown on Close: a decrement-on-scope-exit helper
// via Go's explicit Close idiom, meant to be driven with defer.
type LatchGuard struct {
	l *Latch
}

// NewLatchGuard returns a guard that will count l down by one when Closed.
func NewLatchGuard(l *Latch) *LatchGuard {
	return &LatchGuard{l: l}
}

// Close counts the guarded latch down by one. Safe to call via defer.
func (g *LatchGuard) Close() error {
	g.l.CountDown()
	return nil
}
