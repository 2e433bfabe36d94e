package coro

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/behrlich/corouring/internal/affinity"
	"github.com/behrlich/corouring/internal/logging"
	"github.com/behrlich/corouring/internal/uring"
)

// StopCallback is invoked from a Context's own worker goroutine when it
// transitions to idle. A Scheduler installs one that decrements the global
// idle token; a Context started standalone installs one that requests its
// own stop.
type StopCallback func()

var nextCtxID int64

// Context owns one worker goroutine, pinned to an OS thread, and the
// single Engine that goroutine drives.
type Context struct {
	id int64

	engine *Engine

	numWaitTask atomic.Int64

	stopMu       sync.Mutex
	stopCb       StopCallback
	resumeCb     StopCallback
	stopOnce     sync.Once
	idleReported bool

	stopRequested atomic.Bool
	done          chan struct{}

	cpu int // -1 means no affinity pin

	ringCfg uring.Config
}

// ContextConfig configures a new Context.
type ContextConfig struct {
	Engine EngineConfig
	Ring   uring.Config
	CPU    int // -1 disables affinity pinning
}

// NewContext allocates a Context. Call Start to launch its worker goroutine.
func NewContext(cfg ContextConfig) *Context {
	id := atomic.AddInt64(&nextCtxID, 1)
	return &Context{
		id:      id,
		engine:  NewEngine(cfg.Engine),
		done:    make(chan struct{}),
		cpu:     cfg.CPU,
		ringCfg: cfg.Ring,
	}
}

// ID returns the context's unique id.
func (c *Context) ID() int64 { return c.id }

// Engine returns the Engine this context owns.
func (c *Context) Engine() *Engine { return c.engine }

// SetStopCallback installs cb as the idle-transition callback. Invocation
// is idempotent across consecutive idle run-loop passes: sync.Once is
// reset whenever the context is observed non-idle again.
func (c *Context) SetStopCallback(cb StopCallback) {
	c.stopMu.Lock()
	defer c.stopMu.Unlock()
	c.stopCb = cb
}

// SetResumeCallback installs cb to be invoked exactly once whenever the
// context transitions from a reported-idle state back to busy — the
// counterpart a Scheduler needs to increment its global idle token back up
// when a context that already reported idle picks up new work before the
// scheduler finishes tearing down.
func (c *Context) SetResumeCallback(cb StopCallback) {
	c.stopMu.Lock()
	defer c.stopMu.Unlock()
	c.resumeCb = cb
}

func (c *Context) callStopCb() {
	c.stopOnce.Do(func() {
		c.idleReported = true
		c.engine.Observer().ObserveIdleTransition()
		c.stopMu.Lock()
		cb := c.stopCb
		c.stopMu.Unlock()
		if cb != nil {
			cb()
		}
	})
}

func (c *Context) resetStopOnce() {
	if c.idleReported {
		c.idleReported = false
		c.stopMu.Lock()
		cb := c.resumeCb
		c.stopMu.Unlock()
		if cb != nil {
			cb()
		}
	}
	c.stopOnce = sync.Once{}
}

// Start launches the context's worker goroutine: pins the OS thread,
// initializes the engine and its ring, installs a default stop callback
// if none was set, then runs the loop until stop is requested.
func (c *Context) Start() {
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		if c.cpu >= 0 {
			if err := affinity.Pin(c.cpu); err != nil {
				logging.Default().Warn("cpu affinity pin failed", "ctx_id", c.id, "cpu", c.cpu, "error", err)
			}
		}

		if err := c.engine.Init(c.ringCfg); err != nil {
			logging.Default().Error("engine init failed", "ctx_id", c.id, "error", err)
			close(c.done)
			return
		}
		bindLocal(c, c.engine)

		c.stopMu.Lock()
		if c.stopCb == nil {
			c.stopCb = func() { c.stopRequested.Store(true) }
		}
		c.stopMu.Unlock()

		c.run()

		unbindLocal()
		c.engine.Deinit()
		close(c.done)
	}()
}

// NotifyStop requests the worker goroutine to exit its run loop and wakes
// it if it is blocked in PollSubmit.
func (c *Context) NotifyStop() {
	c.stopRequested.Store(true)
	c.engine.WakeUp(taskFlag)
}

// Join blocks until the worker goroutine has exited.
func (c *Context) Join() {
	<-c.done
}

// RegisterWait increments the context's outstanding-wait counter, e.g.
// while a coroutine is parked on a WaitGroup or Event, a wait the engine's
// I/O counters do not track.
func (c *Context) RegisterWait(n int) {
	c.numWaitTask.Add(int64(n))
}

// UnregisterWait decrements the context's outstanding-wait counter.
func (c *Context) UnregisterWait(n int) {
	c.numWaitTask.Add(-int64(n))
}

// EmptyWaitTask reports whether there are no outstanding waits and no
// pending/in-flight I/O.
func (c *Context) EmptyWaitTask() bool {
	return c.numWaitTask.Load() == 0 && c.engine.EmptyIO()
}

// run is the context's run-loop: drain exactly the currently-scheduled
// tasks once, then either stop (if idle and the engine has nothing ready),
// keep draining (if idle but the engine became ready again), or block on
// I/O.
func (c *Context) run() {
	for !c.stopRequested.Load() {
		c.processWork()

		if c.EmptyWaitTask() {
			if !c.engine.Ready() {
				c.callStopCb()
			} else {
				c.resetStopOnce()
				continue
			}
		} else {
			c.resetStopOnce()
		}

		c.pollWork()
	}
}

func (c *Context) processWork() {
	num := c.engine.NumTaskScheduled()
	for i := 0; i < num; i++ {
		c.engine.ExecOneTask()
	}
}

func (c *Context) pollWork() {
	c.engine.PollSubmit()
}

// SubmitTask hands handle's lifetime to this context's engine.
func (c *Context) SubmitTask(handle Handle) {
	c.engine.SubmitTask(handle)
}

// SubmitDetached submits t's handle and relinquishes t's ownership of it.
func (c *Context) SubmitDetached(t *Task) {
	c.engine.SubmitTask(t.Detach())
}
