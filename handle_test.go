package coro

import "testing"

func TestFuncHandleRunsOnce(t *testing.T) {
	calls := 0
	h := NewFuncHandle(func() { calls++ })

	if h.Done() {
		t.Fatal("Done true before Resume")
	}

	h.Resume()
	if !h.Done() {
		t.Fatal("Done false after Resume")
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}

	h.Resume()
	if calls != 1 {
		t.Fatalf("calls after second Resume = %d, want 1 (no-op)", calls)
	}
}

func TestTaskDetach(t *testing.T) {
	h := NewFuncHandle(func() {})
	task := NewTask(h)

	if !task.Owned() {
		t.Fatal("new task should be owned")
	}

	detached := task.Detach()
	if task.Owned() {
		t.Fatal("task should not be owned after Detach")
	}
	if detached != h {
		t.Fatal("Detach should return the underlying handle")
	}
}

func TestTaskCloseDestroysOwnedHandle(t *testing.T) {
	destroyed := false
	h := &destroyTrackingHandle{onDestroy: func() { destroyed = true }}

	task := NewTask(h)
	if err := task.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if !destroyed {
		t.Fatal("Close should destroy an owned handle")
	}
	if task.Owned() {
		t.Fatal("task should be unowned after Close")
	}
}

func TestTaskCloseNoopAfterDetach(t *testing.T) {
	destroyed := false
	h := &destroyTrackingHandle{onDestroy: func() { destroyed = true }}

	task := NewTask(h)
	task.Detach()
	if err := task.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if destroyed {
		t.Fatal("Close should not destroy a detached task's handle")
	}
}

type destroyTrackingHandle struct {
	onDestroy func()
	done      bool
}

func (h *destroyTrackingHandle) Resume()     { h.done = true }
func (h *destroyTrackingHandle) Done() bool  { return h.done }
func (h *destroyTrackingHandle) Destroy()    { h.onDestroy() }
