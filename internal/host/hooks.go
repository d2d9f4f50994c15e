package host

import (
	"context"

	"github.com/graphql-nexus/nexus-plugin-prisma/internal/scaffold"
)

// WatcherControl lets a plugin hold the dev watcher while it works.
type WatcherControl interface {
	Pause()
	Resume()
	// Restart resumes watching and restarts the app because of file.
	Restart(file string)
}

// CreateContext is what the create flow knows about the new project.
type CreateContext struct {
	Database      scaffold.Database
	ConnectionURI string
}

// ListenerSettings filter the events a listener receives.
type ListenerSettings struct {
	IgnoreFilePatterns []string
	// AllowFilePatterns, when set, is the only set of files the listener
	// receives.
	AllowFilePatterns []string
}

// Allows reports whether the listener receives rel.
func (l ListenerSettings) Allows(rel string) bool {
	if len(l.AllowFilePatterns) > 0 && !MatchAny(l.AllowFilePatterns, rel) {
		return false
	}
	return !MatchAny(l.IgnoreFilePatterns, rel)
}

// Listeners are the two consumers of watcher events: the app, which is
// restarted, and the plugin.
type Listeners struct {
	App    ListenerSettings
	Plugin ListenerSettings
}

// WatcherSettings are contributed by plugins to the dev watcher.
type WatcherSettings struct {
	WatchFilePatterns []string
	Listeners         Listeners
}

// BuildHooks run around `nexus-prisma build`.
type BuildHooks struct {
	OnStart func(ctx context.Context) error
}

// GenerateHooks run around `nexus-prisma generate`.
type GenerateHooks struct {
	OnStart func(ctx context.Context) error
}

// CreateHooks run around `nexus-prisma create`.
type CreateHooks struct {
	OnAfterBaseSetup func(ctx context.Context, cc CreateContext) error
}

// DevHooks run around `nexus-prisma dev`.
type DevHooks struct {
	OnStart               func(ctx context.Context) error
	OnAfterWatcherRestart func()
	OnFileWatcherEvent    func(ctx context.Context, ev FileEvent, w WatcherControl) error
	AddToWatcherSettings  WatcherSettings
}

// Hooks are the extension points a worktime plugin fills in.
type Hooks struct {
	Build    BuildHooks
	Generate GenerateHooks
	Create   CreateHooks
	Dev      DevHooks
}
