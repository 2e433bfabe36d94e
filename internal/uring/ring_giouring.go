//go:build linux

package uring

import (
	"fmt"
	"sync"

	"github.com/pawelgaczynski/giouring"
	"golang.org/x/sys/unix"
)

// ringGiouring is the real io_uring-backed Ring, built on
// github.com/pawelgaczynski/giouring.
type ringGiouring struct {
	mu       sync.Mutex
	ring     *giouring.Ring
	eventFD  int
	fixedFDs []int // index -> fd, -1 if free
}

func newPlatformRing(cfg Config) (Ring, error) {
	entries := cfg.Entries
	if entries == 0 {
		entries = 256
	}

	ring, err := giouring.CreateRing(entries)
	if err != nil {
		return nil, fmt.Errorf("giouring.CreateRing: %w", err)
	}

	efd, err := unix.Eventfd(0, unix.EFD_CLOEXEC)
	if err != nil {
		ring.QueueExit()
		return nil, fmt.Errorf("eventfd: %w", err)
	}
	if err := ring.RegisterEventFd(efd); err != nil {
		unix.Close(efd)
		ring.QueueExit()
		return nil, fmt.Errorf("RegisterEventFd: %w", err)
	}

	fdCap := cfg.FixedFDCapacity
	if fdCap <= 0 {
		fdCap = 64
	}
	fixedFDs := make([]int, fdCap)
	for i := range fixedFDs {
		fixedFDs[i] = -1
	}
	if err := ring.RegisterFiles(make([]int32, fdCap)); err != nil {
		unix.Close(efd)
		ring.QueueExit()
		return nil, fmt.Errorf("RegisterFiles: %w", err)
	}

	return &ringGiouring{ring: ring, eventFD: efd, fixedFDs: fixedFDs}, nil
}

func (r *ringGiouring) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	unix.Close(r.eventFD)
	r.ring.QueueExit()
	return nil
}

type sqeGiouring struct{ sqe *giouring.SubmissionQueueEntry }

func (s *sqeGiouring) PrepareNop()                 { s.sqe.PrepareNop() }
func (s *sqeGiouring) SetUserData(userData uint64) { s.sqe.UserData = userData }

func (r *ringGiouring) GetFreeSQE() (SQE, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sqe := r.ring.GetSQE()
	if sqe == nil {
		return nil, ErrRingFull
	}
	return &sqeGiouring{sqe: sqe}, nil
}

func (r *ringGiouring) Submit() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := r.ring.Submit()
	return err
}

func (r *ringGiouring) EventFD() int { return r.eventFD }

func (r *ringGiouring) WaitEventFD() (uint64, error) {
	var buf [8]byte
	n, err := unix.Read(r.eventFD, buf[:])
	if err != nil {
		return 0, err
	}
	if n != 8 {
		return 0, fmt.Errorf("short eventfd read: %d bytes", n)
	}
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(buf[i])
	}
	return v, nil
}

func (r *ringGiouring) WriteEventFD(val uint64) error {
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(val >> (8 * i))
	}
	_, err := unix.Write(r.eventFD, buf[:])
	return err
}

type cqeGiouring struct{ cqe *giouring.CompletionQueueEvent }

func (c *cqeGiouring) UserData() uint64 { return c.cqe.UserData }
func (c *cqeGiouring) Res() int32       { return c.cqe.Res }

func (r *ringGiouring) PeekBatchCQE(out []CQE) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	raw := make([]*giouring.CompletionQueueEvent, len(out))
	n := r.ring.PeekBatchCQE(raw)
	for i := 0; i < n; i++ {
		out[i] = &cqeGiouring{cqe: raw[i]}
	}
	return n
}

func (r *ringGiouring) CQAdvance(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ring.CQAdvance(uint32(n))
}

func (r *ringGiouring) AssignFixedFD(fd int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, v := range r.fixedFDs {
		if v == -1 {
			r.fixedFDs[i] = fd
			if err := r.ring.RegisterFilesUpdate(uint32(i), []int32{int32(fd)}); err != nil {
				r.fixedFDs[i] = -1
				return 0, err
			}
			return i, nil
		}
	}
	return 0, ErrNoFixedFD
}

func (r *ringGiouring) ReturnFixedFD(idx int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if idx < 0 || idx >= len(r.fixedFDs) {
		return
	}
	r.fixedFDs[idx] = -1
	r.ring.RegisterFilesUpdate(uint32(idx), []int32{-1})
}
