package coro

import "testing"

func TestRoundRobinDispatcherCycles(t *testing.T) {
	d := &RoundRobinDispatcher{}
	d.Init(3)

	want := []int{0, 1, 2, 0, 1, 2}
	for i, w := range want {
		if got := d.Dispatch(); got != w {
			t.Fatalf("Dispatch() call %d = %d, want %d", i, got, w)
		}
	}
}

func TestNoneDispatcherAlwaysZero(t *testing.T) {
	d := NoneDispatcher{}
	d.Init(8)
	for i := 0; i < 5; i++ {
		if got := d.Dispatch(); got != 0 {
			t.Fatalf("Dispatch() = %d, want 0", got)
		}
	}
}
