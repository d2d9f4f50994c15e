package host

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

// EventOp represents the type of file system operation.
type EventOp int

const (
	// OpCreate indicates a new file was created.
	OpCreate EventOp = iota
	// OpModify indicates an existing file was modified.
	OpModify
	// OpDelete indicates a file was deleted.
	OpDelete
)

// String returns a human-readable representation of the operation.
func (op EventOp) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpModify:
		return "modify"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// FileEvent represents a change to a file in the project.
type FileEvent struct {
	// Path is the absolute path to the file that changed.
	Path string
	// Rel is Path relative to the project root, slash-separated.
	Rel string
	// Op is the operation that occurred (create, modify, delete).
	Op EventOp
}

// skippedDirs are never watched.
var skippedDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"migrations":   true,
}

// FileWatcher watches a project tree for changes.
// It uses fsnotify for cross-platform file system event monitoring.
// Events are dropped while the watcher is paused.
type FileWatcher struct {
	watcher *fsnotify.Watcher
	root    string
	events  chan FileEvent
	errors  chan error
	done    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
	paused  atomic.Bool
	extra   []string
}

// NewFileWatcher creates a watcher for the project at root.
// The watcher must be started with Start() before it will emit events.
func NewFileWatcher(root string) (*FileWatcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &FileWatcher{
		watcher: watcher,
		root:    abs,
		events:  make(chan FileEvent, 100),
		errors:  make(chan error, 10),
		done:    make(chan struct{}),
	}, nil
}

// WatchPatterns makes sure the directories of patterns are watched even
// when they would be skipped. Call before Start.
func (fw *FileWatcher) WatchPatterns(patterns []string) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	for _, p := range patterns {
		p = strings.TrimSuffix(strings.TrimPrefix(p, "./"), "/**")
		dir := filepath.Dir(filepath.Join(fw.root, filepath.FromSlash(p)))
		fw.extra = append(fw.extra, dir)
	}
}

// Start begins watching the project tree.
func (fw *FileWatcher) Start() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.running {
		return fmt.Errorf("watcher already running")
	}

	err := filepath.WalkDir(fw.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != fw.root && skipDir(d.Name()) {
			return filepath.SkipDir
		}
		return fw.watcher.Add(path)
	})
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", fw.root, err)
	}
	for _, dir := range fw.extra {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			if err := fw.watcher.Add(dir); err != nil {
				return fmt.Errorf("failed to watch %s: %w", dir, err)
			}
		}
	}

	fw.running = true
	fw.wg.Add(1)
	go fw.processEvents()

	return nil
}

// Stop stops watching for file system events and cleans up resources.
// It blocks until the event processing goroutine has exited.
func (fw *FileWatcher) Stop() error {
	fw.mu.Lock()
	if !fw.running {
		fw.mu.Unlock()
		return fw.watcher.Close()
	}
	fw.running = false
	fw.mu.Unlock()

	close(fw.done)

	// Close the underlying watcher (this will unblock the event loop)
	if err := fw.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}

	fw.wg.Wait()

	close(fw.events)
	close(fw.errors)

	return nil
}

// Pause drops events until Resume is called.
func (fw *FileWatcher) Pause() { fw.paused.Store(true) }

// Resume delivers events again.
func (fw *FileWatcher) Resume() { fw.paused.Store(false) }

// Paused reports whether events are being dropped.
func (fw *FileWatcher) Paused() bool { return fw.paused.Load() }

// Events returns the channel that emits FileEvent notifications.
// This channel is closed when the watcher is stopped.
func (fw *FileWatcher) Events() <-chan FileEvent {
	return fw.events
}

// Errors returns the channel that emits error notifications.
// This channel is closed when the watcher is stopped.
func (fw *FileWatcher) Errors() <-chan error {
	return fw.errors
}

// IsRunning returns true if the watcher is currently running.
func (fw *FileWatcher) IsRunning() bool {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return fw.running
}

func (fw *FileWatcher) processEvents() {
	defer fw.wg.Done()

	for {
		select {
		case <-fw.done:
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}

			fw.watchNewDir(event)
			if fw.paused.Load() {
				continue
			}
			if fileEvent, ok := fw.convertEvent(event); ok {
				select {
				case fw.events <- fileEvent:
				case <-fw.done:
					return
				}
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}

			select {
			case fw.errors <- err:
			case <-fw.done:
				return
			}
		}
	}
}

// watchNewDir adds directories created after Start.
func (fw *FileWatcher) watchNewDir(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) {
		return
	}
	info, err := os.Stat(event.Name)
	if err != nil || !info.IsDir() || skipDir(info.Name()) {
		return
	}
	_ = fw.watcher.Add(event.Name)
}

// convertEvent converts an fsnotify event to a FileEvent.
// Returns (FileEvent, true) if the event should be processed,
// or (FileEvent{}, false) if the event should be ignored.
func (fw *FileWatcher) convertEvent(event fsnotify.Event) (FileEvent, bool) {
	if isEditorArtifact(filepath.Base(event.Name)) {
		return FileEvent{}, false
	}

	var op EventOp
	switch {
	case event.Has(fsnotify.Create):
		op = OpCreate
	case event.Has(fsnotify.Write):
		op = OpModify
	case event.Has(fsnotify.Remove):
		op = OpDelete
	case event.Has(fsnotify.Rename):
		// Treat rename as delete (the new name will trigger a create)
		op = OpDelete
	default:
		// Ignore chmod and other events
		return FileEvent{}, false
	}

	if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
		return FileEvent{}, false
	}

	rel, err := filepath.Rel(fw.root, event.Name)
	if err != nil || strings.HasPrefix(rel, "..") {
		return FileEvent{}, false
	}

	return FileEvent{
		Path: event.Name,
		Rel:  filepath.ToSlash(rel),
		Op:   op,
	}, true
}

func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || skippedDirs[name]
}

func isEditorArtifact(name string) bool {
	return strings.HasSuffix(name, "~") ||
		strings.HasSuffix(name, ".swp") ||
		strings.HasSuffix(name, ".swx") ||
		strings.HasPrefix(name, ".#") ||
		name == "4913"
}
