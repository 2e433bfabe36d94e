//go:build linux

// Package affinity pins the calling OS thread to a single CPU: each
// Context's worker thread gets its own fixed CPU rather than one shared
// across all of them.
package affinity

import "golang.org/x/sys/unix"

// Pin sets the calling OS thread's CPU affinity mask to the single CPU
// cpu. The caller must have already called runtime.LockOSThread.
func Pin(cpu int) error {
	var mask unix.CPUSet
	mask.Set(cpu)
	return unix.SchedSetaffinity(0, &mask)
}
