package coro

import "sync/atomic"

// Dispatcher selects which Context index a Scheduler.Submit call should
// target.
type Dispatcher interface {
	Init(ctxCount int)
	Dispatch() int
}

// RoundRobinDispatcher cycles through context indices in order using an
// atomic counter (fetch_add(1) % N).
type RoundRobinDispatcher struct {
	ctxCount int
	cur      atomic.Uint64
}

func (d *RoundRobinDispatcher) Init(ctxCount int) {
	d.ctxCount = ctxCount
	d.cur.Store(0)
}

func (d *RoundRobinDispatcher) Dispatch() int {
	return int(d.cur.Add(1)-1) % d.ctxCount
}

// NoneDispatcher always returns context 0. Useful when a caller installs
// its own dispatch logic outside the scheduler.
type NoneDispatcher struct{}

func (NoneDispatcher) Init(int)     {}
func (NoneDispatcher) Dispatch() int { return 0 }

var (
	_ Dispatcher = (*RoundRobinDispatcher)(nil)
	_ Dispatcher = NoneDispatcher{}
)
