package host

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/graphql-nexus/nexus-plugin-prisma/internal/execx"
)

// DevOptions configure a dev session.
type DevOptions struct {
	// Command starts the app, e.g. "go run .".
	Command string
	// Grace is how long the app has to exit on restart.
	Grace time.Duration

	Stdout io.Writer
	Stderr io.Writer
}

// fileSource is the part of FileWatcher the loop uses.
type fileSource interface {
	Events() <-chan FileEvent
	Errors() <-chan error
	Pause()
	Resume()
}

// appProcess is the part of Supervisor the loop uses.
type appProcess interface {
	Restart(ctx context.Context) error
	Exits() <-chan error
}

// RunDev runs a dev session until ctx is done: it generates, starts the app,
// and watches the project. Only one session may run per project.
func RunDev(ctx context.Context, lens *Lens, hooks *Hooks, opts DevOptions) error {
	root := lens.Layout.ProjectRoot

	lock, err := AcquireDevLock(root)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()

	id := uuid.New().String()
	lens.Log.Trace("dev session %s", id)
	lens.Publish("session", map[string]any{"id": id, "root": root})

	if hooks.Dev.OnStart != nil {
		if err := hooks.Dev.OnStart(ctx); err != nil {
			return err
		}
	}

	fw, err := NewFileWatcher(root)
	if err != nil {
		return err
	}
	fw.WatchPatterns(hooks.Dev.AddToWatcherSettings.WatchFilePatterns)
	if err := fw.Start(); err != nil {
		_ = fw.Stop()
		return err
	}
	defer func() { _ = fw.Stop() }()

	sup := NewSupervisor(opts.Command, root, opts.Grace)
	if opts.Stdout != nil {
		sup.Stdout = opts.Stdout
	}
	if opts.Stderr != nil {
		sup.Stderr = opts.Stderr
	}
	lens.Log.Info("Starting %s", opts.Command)
	if err := sup.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := sup.Stop(); err != nil {
			lens.Log.Warn("%v", err)
		}
	}()

	s := &session{lens: lens, hooks: hooks, files: fw, app: sup}
	return s.loop(ctx)
}

// session dispatches watcher events from a single goroutine, in arrival
// order. Plugin handlers run to completion before the next event is read.
type session struct {
	lens  *Lens
	hooks *Hooks
	files fileSource
	app   appProcess
}

func (s *session) loop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-s.files.Events():
			if !ok {
				return nil
			}
			s.dispatch(ctx, ev)

		case err, ok := <-s.files.Errors():
			if ok {
				s.lens.Log.Warn("watcher: %v", err)
			}

		case err := <-s.app.Exits():
			if err != nil {
				s.lens.Log.Warn("App exited with code %d. Waiting for changes...", execx.GetExitCode(err))
			} else {
				s.lens.Log.Info("App exited. Waiting for changes...")
			}
			s.lens.Publish("exit", map[string]any{"code": execx.GetExitCode(err)})
		}
	}
}

func (s *session) dispatch(ctx context.Context, ev FileEvent) {
	settings := s.hooks.Dev.AddToWatcherSettings
	s.lens.Log.Trace("%s %s", ev.Op, ev.Rel)

	if s.hooks.Dev.OnFileWatcherEvent != nil && settings.Listeners.Plugin.Allows(ev.Rel) {
		if err := s.hooks.Dev.OnFileWatcherEvent(ctx, ev, &control{s: s, ctx: ctx}); err != nil {
			s.lens.Log.Error("%v", err)
		}
	}
	if settings.Listeners.App.Allows(ev.Rel) {
		s.restart(ctx, ev.Rel)
	}
}

func (s *session) restart(ctx context.Context, file string) {
	s.lens.Log.Info("%s changed, restarting...", file)
	s.lens.Publish("restart", map[string]any{"file": file})
	if err := s.app.Restart(ctx); err != nil {
		s.lens.Log.Error("%v", fmt.Errorf("restarting app: %w", err))
	}
	if s.hooks.Dev.OnAfterWatcherRestart != nil {
		s.hooks.Dev.OnAfterWatcherRestart()
	}
}

// control is the WatcherControl handed to plugins.
type control struct {
	s   *session
	ctx context.Context
}

func (c *control) Pause()  { c.s.files.Pause() }
func (c *control) Resume() { c.s.files.Resume() }

func (c *control) Restart(file string) {
	c.s.files.Resume()
	c.s.restart(c.ctx, file)
}
