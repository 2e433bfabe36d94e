package coro

import (
	"sync"
	"testing"
)

func TestBindLocalRoundTrip(t *testing.T) {
	if CurrentContext() != nil || CurrentEngine() != nil {
		t.Fatal("goroutine should start unbound")
	}

	ctx := &Context{}
	eng := &Engine{}

	bindLocal(ctx, eng)
	defer unbindLocal()

	if CurrentContext() != ctx {
		t.Error("CurrentContext() did not return the bound context")
	}
	if CurrentEngine() != eng {
		t.Error("CurrentEngine() did not return the bound engine")
	}
}

func TestUnbindLocalClearsSlot(t *testing.T) {
	bindLocal(&Context{}, &Engine{})
	unbindLocal()

	if CurrentContext() != nil {
		t.Error("CurrentContext() should be nil after unbindLocal")
	}
}

// TestBindLocalIsPerGoroutine verifies that the TLS emulation is scoped to
// the calling goroutine and does not leak across goroutines, the same
// guarantee true thread-local storage provides.
func TestBindLocalIsPerGoroutine(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(1)

	mainCtx := &Context{}
	bindLocal(mainCtx, nil)
	defer unbindLocal()

	var sawNilInOtherGoroutine bool
	go func() {
		defer wg.Done()
		sawNilInOtherGoroutine = CurrentContext() == nil
	}()
	wg.Wait()

	if !sawNilInOtherGoroutine {
		t.Error("a fresh goroutine should not see another goroutine's bound context")
	}
	if CurrentContext() != mainCtx {
		t.Error("this goroutine's binding should be unaffected by the other goroutine")
	}
}
