//go:build !linux

package affinity

import "testing"

func TestPinUnsupported(t *testing.T) {
	if err := Pin(0); err == nil {
		t.Fatal("Pin should report unsupported on non-linux platforms")
	}
}
