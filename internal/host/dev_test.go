package host

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/graphql-nexus/nexus-plugin-prisma/internal/logging"
)

type fakeFiles struct {
	events chan FileEvent
	errors chan error
	calls  *[]string
}

func (f *fakeFiles) Events() <-chan FileEvent { return f.events }
func (f *fakeFiles) Errors() <-chan error     { return f.errors }
func (f *fakeFiles) Pause()                   { *f.calls = append(*f.calls, "pause") }
func (f *fakeFiles) Resume()                  { *f.calls = append(*f.calls, "resume") }

type fakeApp struct {
	exits chan error
	calls *[]string
}

func (a *fakeApp) Restart(context.Context) error {
	*a.calls = append(*a.calls, "app-restart")
	return nil
}
func (a *fakeApp) Exits() <-chan error { return a.exits }

type recordingFeed struct {
	mu    sync.Mutex
	kinds []string
}

func (f *recordingFeed) Publish(kind string, _ map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kinds = append(f.kinds, kind)
}

func (f *recordingFeed) Kinds() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.kinds...)
}

func newTestSession() (*session, *[]string, *fakeFiles) {
	calls := &[]string{}
	files := &fakeFiles{events: make(chan FileEvent, 10), errors: make(chan error, 1), calls: calls}
	s := &session{
		lens:  &Lens{Log: logging.Discard()},
		hooks: &Hooks{},
		files: files,
		app:   &fakeApp{exits: make(chan error, 1), calls: calls},
	}
	s.hooks.Dev.AddToWatcherSettings = WatcherSettings{
		WatchFilePatterns: []string{"./schema.prisma", "./prisma/schema.prisma"},
		Listeners: Listeners{
			App:    ListenerSettings{IgnoreFilePatterns: []string{"./prisma/**", "./schema.prisma"}},
			Plugin: ListenerSettings{AllowFilePatterns: []string{"./schema.prisma", "./prisma/schema.prisma"}},
		},
	}
	return s, calls, files
}

func runLoop(t *testing.T, s *session, files *fakeFiles, events ...FileEvent) {
	t.Helper()
	for _, ev := range events {
		files.events <- ev
	}
	close(files.events)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.loop(ctx); err != nil {
		t.Fatalf("loop() failed: %v", err)
	}
}

func TestSessionDispatch(t *testing.T) {
	s, calls, files := newTestSession()
	restarts := 0
	s.hooks.Dev.OnAfterWatcherRestart = func() { restarts++ }
	s.hooks.Dev.OnFileWatcherEvent = func(_ context.Context, ev FileEvent, w WatcherControl) error {
		*calls = append(*calls, "plugin "+ev.Rel)
		w.Pause()
		w.Restart(ev.Rel)
		return nil
	}

	runLoop(t, s, files,
		FileEvent{Rel: "main.go", Op: OpModify},
		FileEvent{Rel: "prisma/schema.prisma", Op: OpModify},
		FileEvent{Rel: "prisma/seed/main.go", Op: OpModify},
	)

	want := []string{
		"app-restart",
		"plugin prisma/schema.prisma",
		"pause",
		"resume",
		"app-restart",
	}
	if diff := cmp.Diff(want, *calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
	if restarts != 2 {
		t.Errorf("OnAfterWatcherRestart called %d times, want 2", restarts)
	}
}

func TestSessionPluginErrorDoesNotStopLoop(t *testing.T) {
	s, calls, files := newTestSession()
	s.hooks.Dev.OnFileWatcherEvent = func(context.Context, FileEvent, WatcherControl) error {
		return errors.New("generation failed")
	}
	runLoop(t, s, files,
		FileEvent{Rel: "schema.prisma"},
		FileEvent{Rel: "main.go"},
	)
	if diff := cmp.Diff([]string{"app-restart"}, *calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestSessionReportsAppExit(t *testing.T) {
	s, _, files := newTestSession()
	feed := &recordingFeed{}
	s.lens.Feed = feed
	s.app.(*fakeApp).exits <- errors.New("boom")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- s.loop(ctx) }()

	deadline := time.After(2 * time.Second)
	for len(feed.Kinds()) == 0 {
		select {
		case <-deadline:
			t.Fatal("exit not published")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	if err := <-done; err != nil {
		t.Errorf("loop() = %v", err)
	}
	close(files.events)
	if diff := cmp.Diff([]string{"exit"}, feed.Kinds()); diff != "" {
		t.Errorf("feed mismatch (-want +got):\n%s", diff)
	}
}

func TestRunCreateWritesGoMod(t *testing.T) {
	root := filepath.Join(t.TempDir(), "hello")
	lens := &Lens{Log: logging.Discard(), Layout: Layout{ProjectRoot: root, ProjectName: "hello", SourceDir: "api"}}
	var got CreateContext
	hooks := &Hooks{}
	hooks.Create.OnAfterBaseSetup = func(_ context.Context, cc CreateContext) error {
		got = cc
		return nil
	}

	if err := RunCreate(context.Background(), lens, hooks, CreateContext{Database: "SQLite"}); err != nil {
		t.Fatalf("RunCreate() failed: %v", err)
	}
	if got.Database != "SQLite" {
		t.Errorf("hook got %+v", got)
	}
	data, err := os.ReadFile(filepath.Join(root, "go.mod"))
	if err != nil {
		t.Fatalf("go.mod not written: %v", err)
	}
	if !strings.HasPrefix(string(data), "module hello") || !strings.Contains(string(data), "go "+GoVersion) {
		t.Errorf("go.mod = %q", data)
	}
	if info, err := os.Stat(filepath.Join(root, "api")); err != nil || !info.IsDir() {
		t.Errorf("source dir not created: %v", err)
	}
}

func TestRunBuildStopsOnHookError(t *testing.T) {
	boom := errors.New("generate failed")
	hooks := &Hooks{}
	hooks.Build.OnStart = func(context.Context) error { return boom }
	lens := &Lens{Log: logging.Discard(), Layout: Layout{ProjectRoot: t.TempDir()}}
	if err := RunBuild(context.Background(), lens, hooks, "false"); !errors.Is(err, boom) {
		t.Errorf("RunBuild() = %v, want %v", err, boom)
	}
}
