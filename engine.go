package coro

import (
	"time"

	"github.com/behrlich/corouring/internal/logging"
	"github.com/behrlich/corouring/internal/uring"
)

// Eventfd bit layout for an Engine's wake word: the top bits
// classify a task wake, the middle bits an I/O-submit wake, and the low
// bits are the accumulating CQE-completion count written by the kernel
// itself. The three ranges never collide: kernel completions only ever add
// small values into cqeMask, while WakeUp writes pre-shifted taskFlag/
// ioFlag constants into the high ranges.
const (
	taskMask uint64 = 0xFFFFF00000000000
	ioMask   uint64 = 0x00000FFFFF000000
	cqeMask  uint64 = 0x0000000000FFFFFF

	taskFlag uint64 = 1 << 44
	ioFlag   uint64 = 1 << 24
)

func wakeByTask(val uint64) bool { return val&taskMask > 0 }
func wakeByIO(val uint64) bool   { return val&ioMask > 0 }
func wakeByCQE(val uint64) bool  { return val&cqeMask > 0 }

// Engine owns one uring.Ring and one ready queue of suspended coroutine
// handles. An Engine is single-owner: every method except SubmitTask and
// WakeUp must only be called from the OS thread that created it.
type Engine struct {
	id uint32

	ring uring.Ring

	ready chan Handle

	numIOWaitSubmit int
	numIORunning    int

	maxRecursiveDepth int
	recursiveDepth    int

	cqeBuf []uring.CQE

	metrics  *Metrics
	observer Observer
}

// EngineConfig configures a new Engine.
type EngineConfig struct {
	QueueCapacity     int
	RingEntries       uint32
	MaxRecursiveDepth int
}

var nextEngineID uint32

// NewEngine allocates an Engine. Init must be called before use.
func NewEngine(cfg EngineConfig) *Engine {
	nextEngineID++
	return &Engine{
		id:                nextEngineID,
		ready:             make(chan Handle, cfg.QueueCapacity),
		maxRecursiveDepth: cfg.MaxRecursiveDepth,
		cqeBuf:            make([]uring.CQE, cfg.QueueCapacity),
	}
}

// Init creates the engine's ring and binds it as this thread's local
// engine, keeping any Context already bound to the calling goroutine.
func (e *Engine) Init(ringCfg uring.Config) error {
	ring, err := uring.NewRing(ringCfg)
	if err != nil {
		return err
	}
	e.ring = ring
	e.numIOWaitSubmit = 0
	e.numIORunning = 0
	e.recursiveDepth = 0
	e.metrics = NewMetrics()
	e.observer = NewMetricsObserver(e.metrics)
	bindLocal(CurrentContext(), e)
	logging.Default().Debug("engine init", "engine_id", e.id)
	return nil
}

// SetObserver overrides the engine's metrics observer. Init installs a
// MetricsObserver backed by Metrics() by default; callers that want to
// intercept runtime events directly (e.g. a test's RecordingObserver)
// should call this after Init.
func (e *Engine) SetObserver(o Observer) { e.observer = o }

// Observer returns the engine's current observer, or a NoOpObserver before
// Init has installed the default one.
func (e *Engine) Observer() Observer {
	if e.observer == nil {
		return NoOpObserver{}
	}
	return e.observer
}

// Deinit tears down the engine's ring and drains the ready queue,
// logging (not failing) if it was non-empty.
func (e *Engine) Deinit() {
	if e.ring != nil {
		if err := e.ring.Close(); err != nil {
			logging.Default().Warn("ring close failed", "engine_id", e.id, "error", err)
		}
	}
	e.numIOWaitSubmit = 0
	e.numIORunning = 0
	e.recursiveDepth = 0
	if len(e.ready) != 0 {
		logging.Default().Warn("task queue isn't empty when engine deinit", "engine_id", e.id, "depth", len(e.ready))
	}
	for len(e.ready) > 0 {
		<-e.ready
	}
}

// ID returns the engine's unique id.
func (e *Engine) ID() uint32 { return e.id }

// Ring returns the engine's uring proxy.
func (e *Engine) Ring() uring.Ring { return e.ring }

// Metrics returns the engine's metrics, or nil before Init has run.
func (e *Engine) Metrics() *Metrics { return e.metrics }

// Ready reports whether the engine has at least one task queued.
func (e *Engine) Ready() bool { return len(e.ready) > 0 }

// NumTaskScheduled returns the number of tasks currently queued.
func (e *Engine) NumTaskScheduled() int { return len(e.ready) }

// Schedule pops one handle from the ready queue. The caller must only call
// this when NumTaskScheduled() > 0.
func (e *Engine) Schedule() Handle {
	return <-e.ready
}

// SubmitTask pushes handle onto the ready queue, or — if the queue is full
// and the calling thread is this engine's own worker — resumes it inline,
// bounded by maxRecursiveDepth. If neither condition holds (queue full, not
// our own worker thread) the task is dropped.
func (e *Engine) SubmitTask(handle Handle) {
	if handle == nil {
		return
	}
	select {
	case e.ready <- handle:
		e.Observer().ObserveTaskSubmitted()
		e.WakeUp(taskFlag)
		return
	default:
	}

	// Inline resume is only safe on e's own worker goroutine: handle.Resume()
	// must run on the OS thread e is pinned to, not merely on some worker
	// thread belonging to a different engine. Checking CurrentEngine() == e
	// (rather than just whether the caller is any worker at all) is what
	// keeps a cross-engine SubmitTask call from resuming a handle on the
	// wrong thread.
	if e == CurrentEngine() {
		if e.recursiveDepth >= e.maxRecursiveDepth {
			e.Observer().ObserveTaskOverflowed()
			logging.Default().Error("recursive depth exceeded, discarding task", "engine_id", e.id)
			return
		}
		e.Observer().ObserveTaskInlineResumed()
		e.recursiveDepth++
		e.execTask(handle)
		e.recursiveDepth--
		return
	}

	logging.Default().Error("push task out of capacity before worker thread running", "engine_id", e.id)
}

// ExecOneTask pops one handle and resumes it, destroying it on completion.
func (e *Engine) ExecOneTask() {
	e.execTask(e.Schedule())
}

func (e *Engine) execTask(handle Handle) {
	start := time.Now()
	handle.Resume()
	e.Observer().ObserveTaskExecuted(uint64(time.Since(start).Nanoseconds()))
	if handle.Done() {
		handle.Destroy()
	}
}

// handleCQEEntry resolves the coroutine waiting on cqe and reschedules it.
func (e *Engine) handleCQEEntry(cqe uring.CQE) {
	waiter, _ := ResolveCompletion(cqe.UserData(), cqe.Res())
	if waiter != nil {
		e.SubmitTask(waiter)
	}
}

// AddIOSubmit records that one more SQE has been reserved and is waiting
// to be flushed on the next PollSubmit.
func (e *Engine) AddIOSubmit() { e.numIOWaitSubmit++ }

// EmptyIO reports whether there is no pending or in-flight I/O.
func (e *Engine) EmptyIO() bool { return e.numIOWaitSubmit == 0 && e.numIORunning == 0 }

func (e *Engine) doIOSubmit() {
	if e.numIOWaitSubmit > 0 {
		if err := e.ring.Submit(); err != nil {
			logging.Default().Error("submit failed", "engine_id", e.id, "error", err)
		}
		e.numIORunning += e.numIOWaitSubmit
		e.numIOWaitSubmit = 0
	}
}

// PollSubmit flushes pending submissions, blocks on the ring's eventfd,
// and drains completed CQEs: submit, wait on the eventfd, check for a CQE
// wake, peek a batch of CQEs, handle each entry, then advance the
// completion queue.
func (e *Engine) PollSubmit() {
	e.doIOSubmit()

	cnt, err := e.ring.WaitEventFD()
	if err != nil {
		logging.Default().Error("wait eventfd failed", "engine_id", e.id, "error", err)
		return
	}
	if !wakeByCQE(cnt) {
		return
	}

	n := e.numIORunning
	if n > len(e.cqeBuf) {
		n = len(e.cqeBuf)
	}
	num := e.ring.PeekBatchCQE(e.cqeBuf[:n])
	if num == 0 {
		return
	}
	for i := 0; i < num; i++ {
		e.handleCQEEntry(e.cqeBuf[i])
		e.Observer().ObserveCQEDrained()
	}
	e.ring.CQAdvance(num)
	e.numIORunning -= num
}

// WakeUp writes val into the engine's eventfd, unparking a thread blocked
// in PollSubmit's WaitEventFD. Safe to call from any thread.
func (e *Engine) WakeUp(val uint64) {
	if e.ring == nil {
		return
	}
	if err := e.ring.WriteEventFD(val); err != nil {
		logging.Default().Error("wake up failed", "engine_id", e.id, "error", err)
	}
}
