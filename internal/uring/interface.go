// Package uring provides a small proxy over io_uring: reserve SQE, submit,
// block on an eventfd, drain CQEs, manage a fixed-fd pool, all behind one
// small interface with a real io_uring-backed implementation and a
// non-Linux/no-kernel stub.
package uring

import (
	"errors"

	"github.com/behrlich/corouring/internal/logging"
)

// ErrRingFull is returned when GetFreeSQE finds the submission queue full.
// SubmitNop returns it to its own caller without retrying.
var ErrRingFull = errors.New("submission queue full")

// ErrNoFixedFD is returned when the fixed-fd pool has no free slot to
// assign.
var ErrNoFixedFD = errors.New("fixed fd pool exhausted")

// SQE is a handle to a reserved submission queue entry. Only the nop
// operation is prepared by this module; PrepareNop plus SetUserData are
// therefore the entire write surface a caller needs.
type SQE interface {
	PrepareNop()
	SetUserData(userData uint64)
}

// CQE is a single completion queue entry as handed back by PeekBatchCQE.
type CQE interface {
	UserData() uint64
	Res() int32
}

// Ring is the uring proxy's interface. A single Ring is owned by exactly
// one Engine/Context pair and must never be touched from another thread.
type Ring interface {
	// Close releases the ring's kernel resources (and, for ringGiouring,
	// its eventfd).
	Close() error

	// GetFreeSQE reserves the next submission queue entry without
	// submitting it. Returns ErrRingFull if the ring's submission queue is
	// full; the caller should Submit() first and retry.
	GetFreeSQE() (SQE, error)

	// Submit flushes all SQEs reserved since the last Submit to the
	// kernel with a single io_uring_enter.
	Submit() error

	// EventFD returns the ring's registered eventfd, used by Engine to
	// block on completions/wakes with a bit-masked accumulating counter.
	EventFD() int

	// WaitEventFD blocks until the eventfd is readable (or becomes
	// nonzero in the stub's channel-backed emulation) and returns the
	// accumulated value.
	WaitEventFD() (uint64, error)

	// WriteEventFD adds val to the eventfd's accumulating counter,
	// unparking a thread blocked in WaitEventFD.
	WriteEventFD(val uint64) error

	// PeekBatchCQE drains up to len(out) completed entries without
	// blocking, returning the number filled.
	PeekBatchCQE(out []CQE) int

	// CQAdvance marks n completion entries as consumed.
	CQAdvance(n int)

	// AssignFixedFD reserves a slot in the ring's registered-file table for
	// fd and returns its index.
	AssignFixedFD(fd int) (int, error)

	// ReturnFixedFD releases a previously assigned fixed-fd slot.
	ReturnFixedFD(idx int)
}

// Config configures a new Ring.
type Config struct {
	// Entries is the submission/completion queue depth.
	Entries uint32
	// FixedFDCapacity bounds the registered-file table size.
	FixedFDCapacity int
}

// NewRing builds the platform-appropriate Ring: ringGiouring under
// build tag linux, ringStub everywhere else.
func NewRing(cfg Config) (Ring, error) {
	logger := logging.Default()
	logger.Debug("creating ring", "entries", cfg.Entries)

	ring, err := newPlatformRing(cfg)
	if err != nil {
		logger.Error("failed to create ring", "error", err)
		return nil, err
	}

	logger.Info("ring created", "entries", cfg.Entries)
	return ring, nil
}
