// Package host drives the plugin hooks for the nexus-prisma command: it
// plays the part of the framework the plugin is installed into. The build,
// generate and create flows call their hooks once; dev runs a watch loop
// that restarts the app and forwards file events to the plugin.
package host

import (
	"path/filepath"

	"github.com/graphql-nexus/nexus-plugin-prisma/internal/logging"
	"github.com/graphql-nexus/nexus-plugin-prisma/internal/pkgmgr"
	"github.com/graphql-nexus/nexus-plugin-prisma/internal/prompt"
)

// Layout describes where the project lives.
type Layout struct {
	ProjectRoot string
	ProjectName string
	// SourceDir is relative to ProjectRoot.
	SourceDir string
}

// SourcePath joins parts onto the source directory.
func (l Layout) SourcePath(parts ...string) string {
	return filepath.Join(append([]string{l.ProjectRoot, l.SourceDir}, parts...)...)
}

// Publisher receives dev events, e.g. the dev feed.
type Publisher interface {
	Publish(kind string, fields map[string]any)
}

// Lens is what a plugin sees of the host.
type Lens struct {
	Log            *logging.Logger
	Prompt         *prompt.Console
	PackageManager *pkgmgr.Manager
	Layout         Layout

	// Feed is optional.
	Feed Publisher
}

// Publish forwards an event to the feed, if there is one.
func (l *Lens) Publish(kind string, fields map[string]any) {
	if l.Feed != nil {
		l.Feed.Publish(kind, fields)
	}
}
