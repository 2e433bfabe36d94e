package coro

// Handle is the opaque resumable/destroyable token backing a coroutine:
// resume, done, and destroy operations over an underlying frame. Go
// supplies exactly one concrete Handle, Coroutine (coroutine.go), plus a
// trivial single-step Handle (FuncHandle) for fire-and-forget work.
type Handle interface {
	// Resume continues the suspended computation until it next suspends or
	// completes. Must only be called by the handle's owning Engine thread,
	// or inline on that thread during a queue-full recursive resume.
	Resume()

	// Done reports whether the computation has run to completion. Calling
	// Resume after Done returns true is an invariant violation.
	Done() bool

	// Destroy releases the handle's frame. Engine.ExecOneTask calls this
	// automatically once Done() is true for handles it owns (the detached
	// case); callers retaining ownership of a Task must call it themselves.
	Destroy()
}

// Task is the scoped owner of a Handle, with Detach to relinquish
// ownership. A Task created at a call site and never detached must not be
// allowed to run to completion while still owned by that call site; the
// caller is responsible for driving or detaching it.
type Task struct {
	handle  Handle
	owned   bool
	engine  *Engine
}

// NewTask wraps h as a caller-owned Task.
func NewTask(h Handle) *Task {
	return &Task{handle: h, owned: true}
}

// Handle returns the underlying coroutine handle.
func (t *Task) Handle() Handle { return t.handle }

// Detach relinquishes ownership; the returned handle's lifetime is now the
// responsibility of whichever Engine it is submitted to.
func (t *Task) Detach() Handle {
	t.owned = false
	return t.handle
}

// Owned reports whether the call site still owns (and must eventually
// Destroy) this task's handle.
func (t *Task) Owned() bool { return t.owned }

// Close destroys the handle if this Task still owns it. Safe to call on an
// already-detached Task (no-op).
func (t *Task) Close() error {
	if t.owned {
		t.handle.Destroy()
		t.owned = false
	}
	return nil
}

// FuncHandle is the simplest possible Handle: a plain function run to
// completion on the first Resume, with no suspension points. It models a
// "push a value, return" coroutine where no awaiter is ever needed.
type FuncHandle struct {
	fn   func()
	done bool
}

// NewFuncHandle wraps fn as a single-step Handle.
func NewFuncHandle(fn func()) *FuncHandle {
	return &FuncHandle{fn: fn}
}

func (h *FuncHandle) Resume() {
	if h.done {
		return
	}
	h.fn()
	h.done = true
}

func (h *FuncHandle) Done() bool { return h.done }

func (h *FuncHandle) Destroy() {}
