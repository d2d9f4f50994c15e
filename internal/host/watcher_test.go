package host

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func waitForEvent(t *testing.T, fw *FileWatcher, rel string) FileEvent {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev := <-fw.Events():
			if ev.Rel == rel {
				return ev
			}
		case err := <-fw.Errors():
			t.Fatalf("watcher error: %v", err)
		case <-timeout:
			t.Fatalf("timeout waiting for event on %s", rel)
		}
	}
}

func TestFileWatcher_StartStop(t *testing.T) {
	fw, err := NewFileWatcher(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileWatcher() failed: %v", err)
	}
	if fw.IsRunning() {
		t.Error("Newly created watcher should not be running")
	}

	if err := fw.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if !fw.IsRunning() {
		t.Error("Watcher should be running after Start()")
	}
	if err := fw.Start(); err == nil {
		t.Error("Second Start() should fail when watcher is already running")
	}

	if err := fw.Stop(); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}
	if fw.IsRunning() {
		t.Error("Watcher should not be running after Stop()")
	}
}

func TestFileWatcher_SchemaEvents(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "prisma"), 0755); err != nil {
		t.Fatal(err)
	}

	fw, err := NewFileWatcher(root)
	if err != nil {
		t.Fatalf("NewFileWatcher() failed: %v", err)
	}
	defer fw.Stop()
	if err := fw.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	if err := os.WriteFile(filepath.Join(root, "prisma", "schema.prisma"), []byte("model A {\n id Int @id\n}\n"), 0644); err != nil {
		t.Fatal(err)
	}
	ev := waitForEvent(t, fw, "prisma/schema.prisma")
	if ev.Op != OpCreate && ev.Op != OpModify {
		t.Errorf("Op = %s", ev.Op)
	}
	if ev.Path != filepath.Join(root, "prisma", "schema.prisma") {
		t.Errorf("Path = %q", ev.Path)
	}
}

func TestFileWatcher_NewDirectories(t *testing.T) {
	root := t.TempDir()
	fw, err := NewFileWatcher(root)
	if err != nil {
		t.Fatalf("NewFileWatcher() failed: %v", err)
	}
	defer fw.Stop()
	if err := fw.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	if err := os.MkdirAll(filepath.Join(root, "api"), 0755); err != nil {
		t.Fatal(err)
	}
	// Give the watcher a moment to register the new directory.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(root, "api", "graphql.go"), []byte("package api\n"), 0644); err != nil {
		t.Fatal(err)
	}
	waitForEvent(t, fw, "api/graphql.go")
}

func TestFileWatcher_Pause(t *testing.T) {
	root := t.TempDir()
	fw, err := NewFileWatcher(root)
	if err != nil {
		t.Fatalf("NewFileWatcher() failed: %v", err)
	}
	defer fw.Stop()
	if err := fw.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	fw.Pause()
	if !fw.Paused() {
		t.Fatal("Paused() = false after Pause()")
	}
	if err := os.WriteFile(filepath.Join(root, "paused.go"), []byte("package main\n"), 0644); err != nil {
		t.Fatal(err)
	}
	select {
	case ev := <-fw.Events():
		t.Errorf("unexpected event while paused: %+v", ev)
	case <-time.After(200 * time.Millisecond):
	}

	fw.Resume()
	if err := os.WriteFile(filepath.Join(root, "resumed.go"), []byte("package main\n"), 0644); err != nil {
		t.Fatal(err)
	}
	waitForEvent(t, fw, "resumed.go")
}

func TestFileWatcher_SkipsHiddenAndVendored(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{".git", "node_modules", "prisma/migrations"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0755); err != nil {
			t.Fatal(err)
		}
	}

	fw, err := NewFileWatcher(root)
	if err != nil {
		t.Fatalf("NewFileWatcher() failed: %v", err)
	}
	defer fw.Stop()
	if err := fw.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	for _, f := range []string{".git/index", "node_modules/x.js", "prisma/migrations/README.md", "main.go~"} {
		if err := os.WriteFile(filepath.Join(root, f), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(root, "main.go"), []byte("package main\n"), 0644); err != nil {
		t.Fatal(err)
	}
	ev := waitForEvent(t, fw, "main.go")
	if ev.Rel != "main.go" {
		t.Errorf("Rel = %q", ev.Rel)
	}
	select {
	case ev := <-fw.Events():
		if ev.Rel != "main.go" {
			t.Errorf("unexpected event: %+v", ev)
		}
	case <-time.After(100 * time.Millisecond):
	}
}

func TestFileEventOpString(t *testing.T) {
	tests := map[EventOp]string{OpCreate: "create", OpModify: "modify", OpDelete: "delete", EventOp(9): "unknown"}
	for op, want := range tests {
		if got := op.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", op, got, want)
		}
	}
}
