package coro

import (
	"testing"

	"github.com/behrlich/corouring/internal/uring"
)

func newTestRing(t *testing.T) uring.Ring {
	t.Helper()
	ring, err := uring.NewRing(uring.Config{Entries: 16, FixedFDCapacity: 4})
	if err != nil {
		t.Skipf("ring unavailable on this host: %v", err)
	}
	return ring
}

func TestPointerTokenRoundTrip(t *testing.T) {
	info := &IOInfo{Result: 7}
	token := pointerToToken(info)
	back := tokenToPointer(token)
	if back != info {
		t.Fatal("tokenToPointer(pointerToToken(x)) != x")
	}
}

func TestResolveCompletionReturnsWaiterAndRecordsResult(t *testing.T) {
	co := &Coroutine{}
	info := &IOInfo{waiter: co}
	token := pointerToToken(info)

	waiter, resolved := ResolveCompletion(token, -5)
	if waiter != co {
		t.Error("ResolveCompletion did not return the original waiter")
	}
	if resolved.Result != -5 {
		t.Errorf("Result = %d, want -5", resolved.Result)
	}
}

func TestSubmitNopSuspendsUntilEngineResolvesCompletion(t *testing.T) {
	ring := newTestRing(t)
	defer ring.Close()

	eng := NewEngine(EngineConfig{QueueCapacity: 4, MaxRecursiveDepth: 4})
	if err := eng.Init(uring.Config{Entries: 16, FixedFDCapacity: 4}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer eng.Deinit()
	bindLocal(nil, eng)
	defer unbindLocal()

	var gotResult int32
	co := NewCoroutine(func(y *Yielder) {
		res, err := SubmitNop(y, eng.Ring())
		if err != nil {
			t.Error(err)
		}
		gotResult = res
	})

	co.Resume()
	if co.Done() {
		t.Fatal("coroutine should be suspended waiting on the nop completion")
	}
	if eng.EmptyIO() {
		t.Fatal("engine should report in-flight IO after SubmitNop")
	}

	eng.PollSubmit()

	if eng.NumTaskScheduled() != 1 {
		t.Fatalf("expected the resolved waiter to be queued, NumTaskScheduled = %d", eng.NumTaskScheduled())
	}
	eng.ExecOneTask()

	if !co.Done() {
		t.Fatal("ExecOneTask should have resumed the coroutine to completion")
	}
	_ = gotResult
}
