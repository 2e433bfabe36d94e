package coro

import "sync/atomic"

// wgWaiter is one node of the WaitGroup's lock-free linked stack of
// parked waiters.
type wgWaiter struct {
	next   *wgWaiter
	ctx    *Context
	handle Handle
}

// WaitGroup is a lock-free counting rendezvous. Unlike
// sync.WaitGroup, Wait suspends the calling coroutine (via a Yielder)
// instead of blocking an OS thread, so many waiters can park cheaply on
// one worker.
type WaitGroup struct {
	count atomic.Int32
	state atomic.Pointer[wgWaiter]
}

// NewWaitGroup constructs a WaitGroup with the given initial count.
func NewWaitGroup(count int32) *WaitGroup {
	wg := &WaitGroup{}
	wg.count.Store(count)
	return wg
}

// Add adjusts the outstanding count.
func (wg *WaitGroup) Add(count int32) {
	wg.count.Add(count)
}

// Done decrements the count by one; if it reaches zero, every parked
// waiter is popped off the stack in one atomic exchange and resubmitted to
// its originating context's engine. A waiter that parked with no current
// Context is not resubmitted.
func (wg *WaitGroup) Done() {
	if wg.count.Add(-1) != 0 {
		return
	}
	head := wg.state.Swap(nil)
	for head != nil {
		next := head.next
		if head.ctx != nil {
			observerFor(head.ctx).ObserveWaiterResumed()
			head.ctx.SubmitTask(head.handle)
		}
		head = next
	}
}

// Wait suspends the calling coroutine until the count reaches zero. If the
// count is already zero, it returns immediately without suspending.
//
// A naive publish-via-CAS-then-suspend has a race: a waiter that loses the
// count check against a concurrent Done() draining the list between the
// waiter's count-check and its successful publish would be stranded.
// Here, after a successful publish, if count has since reached zero the
// waiter attempts a second CAS to unlink itself and proceeds without
// suspending; if that second CAS loses (another waiter linked on top of it
// in the meantime), it falls through to suspending — it is still
// correctly reachable from Done's list walk either way, so no waiter is
// stranded.
func (wg *WaitGroup) Wait(y *Yielder) {
	ctx := CurrentContext()
	if ctx != nil {
		ctx.RegisterWait(1)
	}

	w := &wgWaiter{ctx: ctx, handle: y.co}
	for {
		if wg.count.Load() == 0 {
			break
		}
		head := wg.state.Load()
		w.next = head
		if !wg.state.CompareAndSwap(head, w) {
			continue
		}
		if wg.count.Load() == 0 && wg.state.CompareAndSwap(w, w.next) {
			break
		}
		observerFor(ctx).ObserveWaiterParked()
		y.Suspend()
		break
	}

	if ctx != nil {
		ctx.UnregisterWait(1)
	}
}
