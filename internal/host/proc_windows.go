//go:build windows

package host

import (
	"errors"
	"os"
	"os/exec"
)

func setupProcessGroup(*exec.Cmd) {}

// Windows has no SIGTERM; both stop paths kill the process.
func terminateProcessGroup(cmd *exec.Cmd) error {
	return killProcessGroup(cmd)
}

func killProcessGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}
