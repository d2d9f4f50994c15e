package host

import (
	"errors"
	"testing"
)

func TestAcquireDevLock(t *testing.T) {
	root := t.TempDir()

	first, err := AcquireDevLock(root)
	if err != nil {
		t.Fatalf("AcquireDevLock() failed: %v", err)
	}

	if _, err := AcquireDevLock(root); !errors.Is(err, ErrDevLocked) {
		t.Errorf("second AcquireDevLock() = %v, want ErrDevLocked", err)
	}

	if err := first.Unlock(); err != nil {
		t.Fatalf("Unlock() failed: %v", err)
	}
	again, err := AcquireDevLock(root)
	if err != nil {
		t.Fatalf("AcquireDevLock() after unlock failed: %v", err)
	}
	_ = again.Unlock()
}
