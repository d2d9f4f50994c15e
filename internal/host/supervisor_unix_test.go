//go:build !windows

package host

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/graphql-nexus/nexus-plugin-prisma/internal/execx"
)

func newTestSupervisor(t *testing.T, command string) *Supervisor {
	t.Helper()
	s := NewSupervisor(command, t.TempDir(), 500*time.Millisecond)
	s.Stdout, s.Stderr = io.Discard, io.Discard
	return s
}

func TestSupervisorStartStop(t *testing.T) {
	s := newTestSupervisor(t, "sleep 30")
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if !s.Running() {
		t.Fatal("app should be running")
	}
	if err := s.Start(context.Background()); err == nil {
		t.Error("second Start() should fail")
	}

	start := time.Now()
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 400*time.Millisecond {
		t.Errorf("SIGTERM should stop sleep quickly, took %v", elapsed)
	}
	if s.Running() {
		t.Error("app should not be running after Stop()")
	}
	select {
	case err := <-s.Exits():
		t.Errorf("Stop() should not report an exit, got %v", err)
	default:
	}
}

func TestSupervisorKillsAfterGrace(t *testing.T) {
	s := newTestSupervisor(t, `sh -c "trap '' TERM; sleep 30"`)
	s.Grace = 100 * time.Millisecond
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	// Let the shell install its trap.
	time.Sleep(100 * time.Millisecond)
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}
	if s.Running() {
		t.Error("app should have been killed")
	}
}

func TestSupervisorRestart(t *testing.T) {
	s := newTestSupervisor(t, "sleep 30")
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	defer s.Stop()

	if err := s.Restart(context.Background()); err != nil {
		t.Fatalf("Restart() failed: %v", err)
	}
	if !s.Running() {
		t.Error("app should be running after Restart()")
	}
}

func TestSupervisorReportsExit(t *testing.T) {
	s := newTestSupervisor(t, `sh -c "exit 3"`)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	select {
	case err := <-s.Exits():
		if code := execx.GetExitCode(err); code != 3 {
			t.Errorf("exit code = %d, want 3 (err %v)", code, err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("exit not reported")
	}
	if s.Running() {
		t.Error("exited app should not be running")
	}
}
