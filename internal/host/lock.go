package host

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/graphql-nexus/nexus-plugin-prisma/internal/config"
)

// ErrDevLocked is returned when another dev session holds the project.
var ErrDevLocked = errors.New("another nexus-prisma dev session is running for this project")

// DevLockPath returns the dev lock file of the project at root.
func DevLockPath(root string) string {
	return filepath.Join(root, config.DirName, "dev.lock")
}

// AcquireDevLock takes the project's dev lock. Release it with Unlock.
func AcquireDevLock(root string) (*flock.Flock, error) {
	path := DevLockPath(root)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}

	fl := flock.New(path)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring lock: %w", err)
	}
	if !locked {
		_ = fl.Close()
		return nil, ErrDevLocked
	}
	return fl, nil
}
