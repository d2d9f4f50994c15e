// Package reactor regenerates the Prisma client when the schema file changes
// during development and asks the developer to apply their migration before
// the app restarts.
package reactor

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/graphql-nexus/nexus-plugin-prisma/internal/prompt"
	"github.com/graphql-nexus/nexus-plugin-prisma/internal/ui"
)

// DebounceWindow is how long after a restart schema events are treated as
// echoes of the restart itself.
const DebounceWindow = 50 * time.Millisecond

// WatchPatterns are the schema locations watched in dev mode.
var WatchPatterns = []string{"./schema.prisma", "./prisma/schema.prisma"}

// RestartPrompt is asked after a schema change when migrations are enabled.
const RestartPrompt = "Press Y to restart once your migration is applied"

// State is where the reactor is in handling a schema change.
type State int

const (
	Idle State = iota
	AwaitingConfirmation
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingConfirmation:
		return "awaiting-confirmation"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Generator regenerates the client.
type Generator interface {
	Generate(ctx context.Context) error
}

// Watcher controls the dev file watcher and the app it supervises.
type Watcher interface {
	Pause()
	Resume()
	// Restart restarts the app, with file as the reason.
	Restart(file string)
}

// Prompter asks yes/no questions.
type Prompter interface {
	Confirm(ctx context.Context, c prompt.Confirm) (bool, error)
}

// Logger receives progress messages.
type Logger interface {
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
}

// CommandRenderer renders tool invocations for the project's package
// manager.
type CommandRenderer interface {
	RenderRunBin(line string) string
}

// Event kinds reported through Options.OnEvent.
const (
	EventGenerate      = "generate"
	EventSchemaChanged = "schema_changed"
	EventPrompt        = "prompt"
	EventRestart       = "restart"
	EventResume        = "resume"
)

// Event describes a step taken by the reactor.
type Event struct {
	Kind string
	File string
	Err  error
}

// Options configures a Reactor.
type Options struct {
	Generator Generator
	Prompter  Prompter
	Log       Logger
	Commands  CommandRenderer

	// Migrations enables the migration instructions and restart prompt.
	Migrations bool

	// Clock defaults to time.Now.
	Clock func() time.Time

	// OnEvent, when set, is called for each step taken.
	OnEvent func(Event)
}

// Reactor reacts to dev lifecycle events. Hosts call it from a single
// goroutine; OnWatcherRestarted may also arrive while a change is being
// handled.
type Reactor struct {
	opts Options

	mu          sync.Mutex
	lastRestart time.Time
	state       State
}

// New creates a Reactor whose debounce window starts now.
func New(opts Options) *Reactor {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Reactor{
		opts:        opts,
		lastRestart: opts.Clock(),
	}
}

// State returns the current state.
func (r *Reactor) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// LastRestart returns when the app last restarted.
func (r *Reactor) LastRestart() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastRestart
}

// IsSchemaFile reports whether path names a schema file.
func IsSchemaFile(path string) bool {
	return filepath.Base(filepath.FromSlash(path)) == "schema.prisma"
}

// OnLifecycleStart generates the client when build, generate or dev
// starts. An error means the host cannot continue.
func (r *Reactor) OnLifecycleStart(ctx context.Context) error {
	r.emit(Event{Kind: EventGenerate})
	return r.opts.Generator.Generate(ctx)
}

// OnWatcherRestarted resets the debounce window.
func (r *Reactor) OnWatcherRestarted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastRestart = r.opts.Clock()
}

// OnFileChanged handles a watcher event for path. Events for other files,
// or arriving within DebounceWindow of the last restart, are ignored.
//
// The watcher is paused while the client is regenerated and the developer
// is prompted. On confirmation, or when migrations are disabled, the app is
// restarted. If the developer declines, or generation fails, the watcher is
// resumed without a restart.
func (r *Reactor) OnFileChanged(ctx context.Context, path string, w Watcher) error {
	if !IsSchemaFile(path) {
		return nil
	}

	r.mu.Lock()
	if r.opts.Clock().Sub(r.lastRestart) < DebounceWindow || r.state != Idle {
		r.mu.Unlock()
		return nil
	}
	r.state = AwaitingConfirmation
	r.mu.Unlock()
	defer r.setState(Idle)

	r.emit(Event{Kind: EventSchemaChanged, File: path})
	w.Pause()

	r.emit(Event{Kind: EventGenerate, File: path})
	if err := r.opts.Generator.Generate(ctx); err != nil {
		r.resume(w)
		r.emit(Event{Kind: EventResume, File: path, Err: err})
		return fmt.Errorf("regenerating client after change to %s: %w", path, err)
	}

	if r.opts.Migrations {
		confirmed, err := r.promptForMigration(ctx, path)
		if err != nil {
			r.resume(w)
			r.emit(Event{Kind: EventResume, File: path, Err: err})
			return err
		}
		if !confirmed {
			r.opts.Log.Info("Not restarting. Save the schema again when you are ready.")
			r.resume(w)
			r.emit(Event{Kind: EventResume, File: path})
			return nil
		}
	}

	r.emit(Event{Kind: EventRestart, File: path})
	w.Restart(path)
	return nil
}

// resume restarts the debounce window, then resumes the watcher. Events
// queued while paused belong to the change just handled.
func (r *Reactor) resume(w Watcher) {
	r.mu.Lock()
	r.lastRestart = r.opts.Clock()
	r.mu.Unlock()
	w.Resume()
}

func (r *Reactor) promptForMigration(ctx context.Context, path string) (bool, error) {
	log := r.opts.Log
	log.Info("We detected a change in your Prisma Schema file.")
	log.Info("If you're using Prisma Migrate, follow the step below:")
	log.Info("1. Run %s to create a migration file.", ui.RenderCommand(r.opts.Commands.RenderRunBin("prisma migrate save --experimental")))
	log.Info("2. Run %s to apply your migration.", ui.RenderCommand(r.opts.Commands.RenderRunBin("prisma migrate up --experimental")))

	r.emit(Event{Kind: EventPrompt, File: path})
	return r.opts.Prompter.Confirm(ctx, prompt.Confirm{
		Message: RestartPrompt,
		Initial: true,
		Yes:     "Restarting...",
		No:      "Skipping restart.",
	})
}

func (r *Reactor) setState(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = s
}

func (r *Reactor) emit(e Event) {
	if r.opts.OnEvent != nil {
		r.opts.OnEvent(e)
	}
}
