package coro

import "sync/atomic"

// evWaiter is one node of an Event's lock-free linked stack of parked
// waiters — the sibling primitive wait_group.go shares its shape with.
type evWaiter struct {
	next   *evWaiter
	ctx    *Context
	handle Handle
}

// eventSetSentinel is the distinguished value Event.state holds once Set
// has been called; it can never be a real waiter node, so checking
// state == eventSetSentinel is an unambiguous "is it set" test.
var eventSetSentinel = &evWaiter{}

// Event is a single-shot, many-waiter gate: coroutines calling Wait before
// Set park until the next Set call; calls after Set return immediately. It
// shares WaitGroup's "linked stack of waiters resumed together" shape.
type Event struct {
	state atomic.Pointer[evWaiter]
}

// IsSet reports whether Set has been called.
func (e *Event) IsSet() bool {
	return e.state.Load() == eventSetSentinel
}

// Set marks the event permanently set and resubmits every waiter parked on
// it so far to its originating context, in one atomic exchange. A waiter
// that parked with no current Context is not resubmitted. Idempotent: a
// second Set is a no-op.
func (e *Event) Set() {
	head := e.state.Swap(eventSetSentinel)
	if head == eventSetSentinel {
		return
	}
	for head != nil {
		next := head.next
		if head.ctx != nil {
			observerFor(head.ctx).ObserveWaiterResumed()
			head.ctx.SubmitTask(head.handle)
		}
		head = next
	}
}

// Wait suspends the calling coroutine until Set is called. If the event is
// already set, it returns immediately without suspending.
//
// Unlike WaitGroup, no post-CAS re-check is needed here: the "done" signal
// and the linked-list head are the same atomic word (the sentinel value),
// so a concurrent Set can only ever be observed either before or after a
// waiter's publishing CAS, never in a window the CAS itself doesn't already
// account for — the CAS's expected-old-value check fails cleanly if Set
// swapped the sentinel in first.
func (e *Event) Wait(y *Yielder) {
	ctx := CurrentContext()
	if ctx != nil {
		ctx.RegisterWait(1)
	}

	w := &evWaiter{ctx: ctx, handle: y.co}
	for {
		head := e.state.Load()
		if head == eventSetSentinel {
			break
		}
		w.next = head
		if e.state.CompareAndSwap(head, w) {
			observerFor(ctx).ObserveWaiterParked()
			y.Suspend()
			break
		}
	}

	if ctx != nil {
		ctx.UnregisterWait(1)
	}
}
