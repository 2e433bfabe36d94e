package coro

import (
	"runtime"
	"sync/atomic"

	"github.com/behrlich/corouring/internal/uring"
)

// Scheduler owns N contexts and a Dispatcher, and drives the whole runtime
// to quiescence. It is an explicit value rather than a process-wide
// singleton, so a Go program can run more than one in a process (e.g. in
// tests).
type Scheduler struct {
	ctxs       []*Context
	dispatcher Dispatcher

	globalToken atomic.Int64
}

// SchedulerConfig configures a new Scheduler.
type SchedulerConfig struct {
	CtxCount   int // 0 defaults to runtime.NumCPU()
	Dispatcher Dispatcher // nil defaults to &RoundRobinDispatcher{}
	Context    ContextConfig
}

// NewScheduler constructs ctxCount contexts (defaulting to hardware
// concurrency when 0) and initializes the dispatcher over them.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	n := cfg.CtxCount
	if n == 0 {
		n = runtime.NumCPU()
	}

	dispatcher := cfg.Dispatcher
	if dispatcher == nil {
		dispatcher = &RoundRobinDispatcher{}
	}

	s := &Scheduler{
		ctxs:       make([]*Context, n),
		dispatcher: dispatcher,
	}
	for i := range s.ctxs {
		ctxCfg := cfg.Context
		if ctxCfg.CPU >= 0 {
			ctxCfg.CPU = i
		}
		s.ctxs[i] = NewContext(ctxCfg)
	}
	s.dispatcher.Init(n)
	s.globalToken.Store(int64(n))

	return s
}

// Contexts returns the scheduler's owned contexts.
func (s *Scheduler) Contexts() []*Context { return s.ctxs }

// Submit asks the dispatcher for a target context and forwards handle to
// it.
func (s *Scheduler) Submit(handle Handle) {
	idx := s.dispatcher.Dispatch()
	s.ctxs[idx].SubmitTask(handle)
}

// Loop starts every context with a stop callback that decrements the
// global idle token, then blocks until every context has reported idle
// (the token reaches zero), at which point it signals every context to
// stop and joins them.
func (s *Scheduler) Loop() {
	for _, ctx := range s.ctxs {
		ctx.SetStopCallback(func() { s.globalToken.Add(-1) })
		ctx.SetResumeCallback(func() { s.globalToken.Add(1) })
		ctx.Start()
	}

	for s.globalToken.Load() > 0 {
		runtime.Gosched()
	}

	for _, ctx := range s.ctxs {
		ctx.NotifyStop()
	}
	for _, ctx := range s.ctxs {
		ctx.Join()
	}
}

// RingConfigFor returns a Ring configuration derived from entries, exposed
// so callers building their own ContextConfig.Ring can share the same
// defaults the scheduler applies.
func RingConfigFor(entries uint32) uring.Config {
	return uring.Config{Entries: entries}
}
