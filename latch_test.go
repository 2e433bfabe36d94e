package coro

import "testing"

func TestLatchNonPositiveCountIsPreArmed(t *testing.T) {
	l := NewLatch(0)

	reached := false
	co := NewCoroutine(func(y *Yielder) {
		l.Wait(y)
		reached = true
	})
	co.Resume()

	if !co.Done() || !reached {
		t.Fatal("a latch constructed with count <= 0 should already be satisfied")
	}
}

func TestLatchCountDownReleasesAtZero(t *testing.T) {
	eng := NewEngine(EngineConfig{QueueCapacity: 4, MaxRecursiveDepth: 4})
	ctx := &Context{engine: eng}

	l := NewLatch(2)
	co := NewCoroutine(func(y *Yielder) { l.Wait(y) })

	bindLocal(ctx, eng)
	co.Resume()
	unbindLocal()

	l.CountDown()
	if eng.NumTaskScheduled() != 0 {
		t.Fatal("latch should not release until the count reaches zero")
	}

	l.CountDown()
	if eng.NumTaskScheduled() != 1 {
		t.Fatal("latch should release its waiter once the count reaches zero")
	}
}

func TestLatchGuardCountsDownOnClose(t *testing.T) {
	l := NewLatch(1)
	guard := NewLatchGuard(l)

	reached := false
	co := NewCoroutine(func(y *Yielder) {
		l.Wait(y)
		reached = true
	})
	co.Resume()
	if co.Done() {
		t.Fatal("Wait should suspend before the guard is closed")
	}

	if err := guard.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	if !l.ev.IsSet() {
		t.Fatal("closing the guard should count the latch down to zero and set its event")
	}
	_ = reached
}

func TestLatchCountDownPastZeroIsSafe(t *testing.T) {
	l := NewLatch(1)
	l.CountDown()
	l.CountDown() // must not panic
	if !l.ev.IsSet() {
		t.Fatal("event should remain set after counting down past zero")
	}
}
