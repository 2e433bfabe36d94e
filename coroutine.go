package coro

// Coroutine is the runtime's one concrete Handle (handle.go): a goroutine
// parked behind a pair of unbuffered handshake channels, stepped exactly
// once per Resume() until the body either suspends again or returns. Go has
// no free-function suspend point or stackless coroutine frame, so the body
// runs on its own goroutine and control is handed back and forth explicitly.
//
// The body receives a *Yielder. Calling Yielder.Suspend blocks the body
// goroutine until the next Resume; Resume blocks the caller until the body
// either calls Suspend again or returns.
type Coroutine struct {
	body     func(y *Yielder)
	resumeCh chan struct{}
	suspCh   chan struct{}
	done     bool
	started  bool

	ctx *Context
	eng *Engine
}

// Yielder is the stackless-awaiter-protocol stand-in passed into a
// coroutine body: calling Suspend is the body's await_suspend/await_resume
// pair collapsed into one call.
type Yielder struct {
	co *Coroutine
}

// Suspend parks the calling (body) goroutine until the owning Coroutine's
// next Resume call. It must only be called from inside the coroutine body.
func (y *Yielder) Suspend() {
	y.co.suspCh <- struct{}{}
	<-y.co.resumeCh
}

// NewCoroutine builds a Coroutine backed by body, which receives a Yielder
// for cooperative suspension. body runs on its own goroutine, started lazily
// on the first Resume so that construction never spawns a goroutine that
// might outlive a Task that is never driven.
func NewCoroutine(body func(y *Yielder)) *Coroutine {
	co := &Coroutine{
		resumeCh: make(chan struct{}),
		suspCh:   make(chan struct{}),
	}
	co.body = body
	return co
}

// Resume steps the coroutine once. It must only be called by the handle's
// owning Engine thread (or inline on that thread, per the overflow path of
// Engine.SubmitTask). Calling Resume after Done reports true is a no-op.
func (c *Coroutine) Resume() {
	if c.done {
		return
	}
	if !c.started {
		c.started = true
		c.ctx, c.eng = CurrentContext(), CurrentEngine()
		go c.run()
	} else {
		c.resumeCh <- struct{}{}
	}
	<-c.suspCh
}

// run is the body goroutine. It binds the resuming thread's ctx/eng into its
// own goroutine-local slot before the first body call so CurrentContext/
// CurrentEngine work from inside the body even though the body runs on a
// goroutine distinct from whatever resumed it.
func (c *Coroutine) run() {
	if c.ctx != nil || c.eng != nil {
		bindLocal(c.ctx, c.eng)
		defer unbindLocal()
	}
	y := &Yielder{co: c}
	c.body(y)
	c.done = true
	c.suspCh <- struct{}{}
}

// Done reports whether the body has returned.
func (c *Coroutine) Done() bool { return c.done }

// Destroy is a no-op once Done is true: the body goroutine has already
// exited via run's deferred unbindLocal and the return from c.body. Calling
// Destroy before Done is true leaks the parked body goroutine; callers must
// not destroy a handle still owned and suspended.
func (c *Coroutine) Destroy() {}
