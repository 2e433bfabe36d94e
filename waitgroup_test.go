package coro

import "testing"

func TestWaitGroupReturnsImmediatelyWhenAlreadyZero(t *testing.T) {
	wg := NewWaitGroup(0)

	reached := false
	co := NewCoroutine(func(y *Yielder) {
		wg.Wait(y)
		reached = true
	})
	co.Resume()

	if !co.Done() {
		t.Fatal("Wait on an already-zero WaitGroup should not suspend")
	}
	if !reached {
		t.Fatal("body should have run past Wait")
	}
}

func TestWaitGroupParksUntilDone(t *testing.T) {
	eng := NewEngine(EngineConfig{QueueCapacity: 4, MaxRecursiveDepth: 4})
	ctx := &Context{engine: eng}

	wg := NewWaitGroup(1)

	reached := false
	co := NewCoroutine(func(y *Yielder) {
		wg.Wait(y)
		reached = true
	})

	bindLocal(ctx, eng)
	co.Resume()
	unbindLocal()

	if co.Done() {
		t.Fatal("Wait should suspend while the count is still positive")
	}
	if reached {
		t.Fatal("body should not have run past Wait yet")
	}
	if eng.NumTaskScheduled() != 0 {
		t.Fatal("no task should be queued before Done()")
	}

	wg.Done()

	if eng.NumTaskScheduled() != 1 {
		t.Fatalf("Done() should resubmit the parked waiter, NumTaskScheduled = %d", eng.NumTaskScheduled())
	}
	eng.ExecOneTask()

	if !co.Done() || !reached {
		t.Fatal("waiter should have resumed to completion after Done()")
	}
}

func TestWaitGroupDoneBeforeCountReachesZeroDoesNotWake(t *testing.T) {
	eng := NewEngine(EngineConfig{QueueCapacity: 4, MaxRecursiveDepth: 4})
	ctx := &Context{engine: eng}

	wg := NewWaitGroup(2)

	co := NewCoroutine(func(y *Yielder) {
		wg.Wait(y)
	})

	bindLocal(ctx, eng)
	co.Resume()
	unbindLocal()

	wg.Done() // count goes 2 -> 1, should not release the waiter yet

	if eng.NumTaskScheduled() != 0 {
		t.Fatal("waiter should remain parked until the count reaches zero")
	}

	wg.Done() // count goes 1 -> 0

	if eng.NumTaskScheduled() != 1 {
		t.Fatal("waiter should be released once the count reaches zero")
	}
}

func TestWaitGroupMultipleWaitersAllResume(t *testing.T) {
	eng := NewEngine(EngineConfig{QueueCapacity: 8, MaxRecursiveDepth: 4})
	ctx := &Context{engine: eng}

	wg := NewWaitGroup(1)

	const n = 5
	cos := make([]*Coroutine, n)
	bindLocal(ctx, eng)
	for i := range cos {
		cos[i] = NewCoroutine(func(y *Yielder) { wg.Wait(y) })
		cos[i].Resume()
	}
	unbindLocal()

	wg.Done()

	if got := eng.NumTaskScheduled(); got != n {
		t.Fatalf("NumTaskScheduled = %d, want %d", got, n)
	}
	for eng.NumTaskScheduled() > 0 {
		eng.ExecOneTask()
	}
	for i, co := range cos {
		if !co.Done() {
			t.Errorf("waiter %d did not resume to completion", i)
		}
	}
}

func TestWaitGroupNotifiesObserverOnParkAndResume(t *testing.T) {
	eng := NewEngine(EngineConfig{QueueCapacity: 4, MaxRecursiveDepth: 4})
	obs := NewRecordingObserver()
	eng.SetObserver(obs)
	ctx := &Context{engine: eng}

	wg := NewWaitGroup(1)

	co := NewCoroutine(func(y *Yielder) { wg.Wait(y) })

	bindLocal(ctx, eng)
	co.Resume()
	unbindLocal()

	wg.Done()

	counts := obs.CallCounts()
	if counts["waiters_parked"] != 1 {
		t.Errorf("waiters_parked = %d, want 1", counts["waiters_parked"])
	}
	if counts["waiters_resumed"] != 1 {
		t.Errorf("waiters_resumed = %d, want 1", counts["waiters_resumed"])
	}
}

func TestWaitGroupUnregisterWaitRunsExactlyOnce(t *testing.T) {
	eng := NewEngine(EngineConfig{QueueCapacity: 4, MaxRecursiveDepth: 4})
	ctx := &Context{engine: eng}

	wg := NewWaitGroup(0) // already satisfied: exercises the no-suspend path

	bindLocal(ctx, eng)
	co := NewCoroutine(func(y *Yielder) { wg.Wait(y) })
	co.Resume()
	unbindLocal()

	if !ctx.EmptyWaitTask() {
		t.Fatal("UnregisterWait should have run even on the no-suspend path, leaving the wait counter balanced")
	}
}
