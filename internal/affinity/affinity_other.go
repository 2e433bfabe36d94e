//go:build !linux

package affinity

import "errors"

// Pin is a no-op stub on non-Linux platforms: CPU affinity pinning has no
// portable equivalent, and Context.Start treats this error as non-fatal.
func Pin(cpu int) error {
	return errors.New("cpu affinity pinning is only supported on linux")
}
