// Package logging provides the leveled logger handed to plugins through the
// host lens. It wraps the standard library logger the way the rest of the
// tree does, adding level tags and an optional rotating file sink.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/graphql-nexus/nexus-plugin-prisma/internal/debug"
	"github.com/graphql-nexus/nexus-plugin-prisma/internal/ui"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Level orders log severities.
type Level int

const (
	LevelTrace Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the lowercase level name.
func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "trace"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// Logger writes leveled messages to a terminal writer and, when configured,
// an unstyled rotating log file.
type Logger struct {
	name string

	mu      sync.Mutex
	term    *log.Logger
	file    *log.Logger
	closer  io.Closer
	minimum func() Level
}

// Options configures New.
type Options struct {
	// Name is printed as the logger prefix, e.g. "prisma".
	Name string

	// Output receives styled lines. Defaults to os.Stderr.
	Output io.Writer

	// File, when set, receives unstyled lines through lumberjack.
	File string

	// MaxSizeMB bounds each log file before rotation.
	MaxSizeMB int
}

// New creates a Logger.
func New(opts Options) *Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	l := &Logger{
		name:    opts.Name,
		term:    log.New(out, "", 0),
		minimum: levelFromDebug,
	}

	if opts.File != "" {
		size := opts.MaxSizeMB
		if size <= 0 {
			size = 10
		}
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err == nil {
			lj := &lumberjack.Logger{
				Filename:   opts.File,
				MaxSize:    size,
				MaxBackups: 3,
				MaxAge:     14,
			}
			l.file = log.New(lj, prefix(opts.Name), log.LstdFlags|log.Lmsgprefix)
			l.closer = lj
		}
	}
	return l
}

// Discard returns a logger that drops everything. Useful in tests.
func Discard() *Logger {
	return New(Options{Output: io.Discard})
}

// SetMinimum overrides the verbosity source. Mostly for tests.
func (l *Logger) SetMinimum(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.minimum = func() Level { return level }
}

// Named returns a child logger sharing sinks but with another prefix.
func (l *Logger) Named(name string) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	child := &Logger{
		name:    name,
		term:    l.term,
		minimum: l.minimum,
	}
	if l.file != nil {
		child.file = log.New(l.file.Writer(), prefix(name), log.LstdFlags|log.Lmsgprefix)
	}
	return child
}

// Close flushes and closes the file sink.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closer == nil {
		return nil
	}
	err := l.closer.Close()
	l.closer = nil
	return err
}

func (l *Logger) Trace(format string, args ...interface{}) { l.log(LevelTrace, format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.log(LevelInfo, format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.log(LevelWarn, format, args...) }
func (l *Logger) Error(format string, args ...interface{}) { l.log(LevelError, format, args...) }

func (l *Logger) log(level Level, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		l.file.Printf("%-5s %s", level, msg)
	}
	if level < l.minimum() {
		return
	}
	l.term.Print(l.format(level, msg))
}

func (l *Logger) format(level Level, msg string) string {
	var tag string
	switch level {
	case LevelTrace:
		tag = ui.RenderMuted("▲ trace")
	case LevelInfo:
		tag = ui.RenderAccent("● info ")
	case LevelWarn:
		tag = ui.RenderWarn("▲ warn ")
	case LevelError:
		tag = ui.RenderFail("■ error")
	}
	name := ""
	if l.name != "" {
		name = ui.RenderMuted(l.name+":") + " "
	}
	// Keep multi-line messages aligned under the tag.
	msg = strings.ReplaceAll(msg, "\n", "\n        ")
	return tag + " " + name + msg
}

func prefix(name string) string {
	if name == "" {
		return ""
	}
	return "[" + name + "] "
}

func levelFromDebug() Level {
	switch {
	case debug.IsVerbose():
		return LevelTrace
	case debug.IsQuiet():
		return LevelWarn
	default:
		return LevelInfo
	}
}
