package coro

import (
	"unsafe"

	"github.com/behrlich/corouring/internal/uring"
)

// IOInfo is the per-operation completion record: the payload an engine's
// eventfd-driven completion path recovers from a CQE's user_data field and
// uses to resume the waiting coroutine (result plus the owning handle).
type IOInfo struct {
	Result int32
	waiter Handle
}

// pointerToToken and tokenToPointer round-trip an *IOInfo through the
// uint64 user_data field of a submission queue entry. Both are marked
// //go:noinline; `go vet`'s unsafeptr check still reports the
// integer-to-pointer conversion in tokenToPointer.
//
//go:noinline
func pointerToToken(info *IOInfo) uint64 {
	return uint64(uintptr(unsafe.Pointer(info)))
}

//go:noinline
func tokenToPointer(token uint64) *IOInfo {
	return (*IOInfo)(unsafe.Pointer(uintptr(token)))
}

// SubmitNop prepares a no-op SQE through ring and registers it with the
// current engine's batched submission accounting, suspending the calling
// coroutine body until the matching CQE arrives. It is the runtime's one
// concrete awaiter, enough to exercise the uring proxy end-to-end without a
// concrete read/write/accept/timer awaiter. The actual io_uring_submit
// syscall is deferred to the owning Engine's next PollSubmit: SubmitNop only
// reserves the SQE and bumps the pending-submit counter; the engine's own
// batched submit call does the flush.
func SubmitNop(y *Yielder, ring uring.Ring) (int32, error) {
	info := &IOInfo{waiter: y.co}

	sqe, err := ring.GetFreeSQE()
	if err != nil {
		return 0, err
	}
	sqe.PrepareNop()
	sqe.SetUserData(pointerToToken(info))

	if eng := CurrentEngine(); eng != nil {
		eng.AddIOSubmit()
	}

	y.Suspend()
	return info.Result, nil
}

// ResolveCompletion recovers the IOInfo a CQE's user_data refers to, records
// its result, and returns the coroutine handle waiting on it so the caller
// (Engine.PollSubmit) can reschedule it onto the ready queue.
func ResolveCompletion(userData uint64, res int32) (Handle, *IOInfo) {
	info := tokenToPointer(userData)
	info.Result = res
	return info.waiter, info
}
