package host

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/graphql-nexus/nexus-plugin-prisma/internal/execx"
)

// Supervisor runs the app in dev mode and restarts it on demand.
type Supervisor struct {
	// Command is the dev command line, e.g. "go run .".
	Command string
	Dir     string
	Env     []string
	Stdout  io.Writer
	Stderr  io.Writer

	// Grace is how long the app has to exit after SIGTERM before it is
	// killed.
	Grace time.Duration

	mu    sync.Mutex
	cmd   *exec.Cmd
	done  chan struct{}
	exits chan error
}

// NewSupervisor returns a Supervisor for command in dir.
func NewSupervisor(command, dir string, grace time.Duration) *Supervisor {
	return &Supervisor{
		Command: command,
		Dir:     dir,
		Grace:   grace,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		exits:   make(chan error, 1),
	}
}

// Exits reports app exits that were not caused by Stop or Restart.
func (s *Supervisor) Exits() <-chan error {
	return s.exits
}

// Running reports whether the app process is alive.
func (s *Supervisor) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd == nil {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

// Start launches the app.
func (s *Supervisor) Start(ctx context.Context) error {
	args, err := execx.SplitCommand(s.Command)
	if err != nil {
		return fmt.Errorf("invalid dev command: %w", err)
	}
	if len(args) == 0 {
		return errors.New("dev command is empty")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	cmd := exec.Command(args[0], args[1:]...)
	cmd.Dir = s.Dir
	cmd.Env = append(os.Environ(), s.Env...)
	cmd.Stdout = s.Stdout
	cmd.Stderr = s.Stderr
	setupProcessGroup(cmd)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd != nil {
		return errors.New("app already running")
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", s.Command, err)
	}
	done := make(chan struct{})
	s.cmd, s.done = cmd, done

	go func() {
		err := cmd.Wait()
		close(done)

		s.mu.Lock()
		current := s.cmd == cmd
		if current {
			s.cmd = nil
		}
		s.mu.Unlock()

		if current {
			select {
			case s.exits <- err:
			default:
			}
		}
	}()
	return nil
}

// Stop terminates the app, killing it after the grace period.
func (s *Supervisor) Stop() error {
	s.mu.Lock()
	cmd, done := s.cmd, s.done
	s.cmd = nil
	s.mu.Unlock()

	if cmd == nil {
		return nil
	}

	if err := terminateProcessGroup(cmd); err != nil {
		select {
		case <-done:
			return nil
		default:
		}
	}

	grace := s.Grace
	if grace <= 0 {
		grace = 3 * time.Second
	}
	select {
	case <-done:
		return nil
	case <-time.After(grace):
	}

	if err := killProcessGroup(cmd); err != nil {
		return fmt.Errorf("failed to kill app: %w", err)
	}
	<-done
	return nil
}

// Restart stops and starts the app.
func (s *Supervisor) Restart(ctx context.Context) error {
	if err := s.Stop(); err != nil {
		return err
	}
	return s.Start(ctx)
}
