//go:build !linux

package uring

import "sync"

// ringStub emulates the uring proxy without a kernel, for non-Linux
// development and CI. A nop SQE is "completed" immediately on Submit, and
// the eventfd's blocking read is reproduced with a buffered channel of
// pending wake values. Writes are not summed: each WaitEventFD returns the
// value of one earlier write, and a write made while the channel is full is
// dropped.
type ringStub struct {
	mu       sync.Mutex
	queued   []*sqeStub
	pending  []stubCQE
	wakeCh   chan uint64
	fixedFDs []int
	closed   bool
}

type stubCQE struct {
	userData uint64
	res      int32
}

func newPlatformRing(cfg Config) (Ring, error) {
	fdCap := cfg.FixedFDCapacity
	if fdCap <= 0 {
		fdCap = 64
	}
	fixedFDs := make([]int, fdCap)
	for i := range fixedFDs {
		fixedFDs[i] = -1
	}
	return &ringStub{
		wakeCh:   make(chan uint64, 1<<16),
		fixedFDs: fixedFDs,
	}, nil
}

func (r *ringStub) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

type sqeStub struct {
	ring     *ringStub
	userData uint64
	prepared bool
}

func (s *sqeStub) PrepareNop()                 { s.prepared = true }
func (s *sqeStub) SetUserData(userData uint64) { s.userData = userData }

func (r *ringStub) GetFreeSQE() (SQE, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sqe := &sqeStub{ring: r}
	r.queued = append(r.queued, sqe)
	return sqe, nil
}

// Submit completes every reserved nop SQE inline, since the stub has no
// kernel to hand work to, and writes 1 to the eventfd-equivalent channel
// once per entry reserved since the last Submit (matching the real ring,
// where the kernel adds 1 to the registered eventfd per CQE).
func (r *ringStub) Submit() error {
	r.mu.Lock()
	queued := r.queued
	r.queued = nil
	for _, sqe := range queued {
		if !sqe.prepared {
			continue
		}
		r.pending = append(r.pending, stubCQE{userData: sqe.userData, res: 0})
	}
	r.mu.Unlock()

	for range queued {
		select {
		case r.wakeCh <- 1:
		default:
		}
	}
	return nil
}

func (r *ringStub) EventFD() int { return -1 }

func (r *ringStub) WaitEventFD() (uint64, error) {
	v := <-r.wakeCh
	return v, nil
}

func (r *ringStub) WriteEventFD(val uint64) error {
	select {
	case r.wakeCh <- val:
	default:
	}
	return nil
}

func (r *ringStub) PeekBatchCQE(out []CQE) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(out)
	if n > len(r.pending) {
		n = len(r.pending)
	}
	for i := 0; i < n; i++ {
		out[i] = &stubCQEHandle{r.pending[i]}
	}
	r.pending = r.pending[n:]
	return n
}

type stubCQEHandle struct{ c stubCQE }

func (c *stubCQEHandle) UserData() uint64 { return c.c.userData }
func (c *stubCQEHandle) Res() int32       { return c.c.res }

func (r *ringStub) CQAdvance(n int) {}

func (r *ringStub) AssignFixedFD(fd int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, v := range r.fixedFDs {
		if v == -1 {
			r.fixedFDs[i] = fd
			return i, nil
		}
	}
	return 0, ErrNoFixedFD
}

func (r *ringStub) ReturnFixedFD(idx int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if idx < 0 || idx >= len(r.fixedFDs) {
		return
	}
	r.fixedFDs[idx] = -1
}
