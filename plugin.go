// Package prisma is the nexus-prisma plugin. It wires Prisma into the three
// lives of a GraphQL app: the worktime (generate, build, dev, create, driven
// by the nexus-prisma command), the runtime (the client in each request
// context) and the testtime (the client in tests).
package prisma

import (
	"context"
	_ "embed"
	"fmt"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/graphql-nexus/nexus-plugin-prisma/runtime"
	"github.com/graphql-nexus/nexus-plugin-prisma/settings"
	"github.com/graphql-nexus/nexus-plugin-prisma/testtime"
)

//go:embed plugin.toml
var manifestTOML []byte

// Manifest describes the plugin and its entrypoints.
type Manifest struct {
	Name        string `toml:"name"`
	Version     string `toml:"version"`
	Description string `toml:"description"`
	Docs        string `toml:"docs"`

	Prisma struct {
		// Version is the Prisma CLI version the plugin is built against.
		Version        string `toml:"version"`
		ClientProvider string `toml:"client-provider"`
	} `toml:"prisma"`

	Entrypoints struct {
		Runtime  string `toml:"runtime"`
		Worktime string `toml:"worktime"`
		Testtime string `toml:"testtime"`
	} `toml:"entrypoints"`
}

// ParseManifest decodes and checks a manifest.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	md, err := toml.Decode(string(data), &m)
	if err != nil {
		return nil, fmt.Errorf("invalid plugin manifest: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("invalid plugin manifest: unknown key %q", undecoded[0].String())
	}
	switch {
	case m.Name == "":
		return nil, fmt.Errorf("invalid plugin manifest: name is required")
	case m.Version == "":
		return nil, fmt.Errorf("invalid plugin manifest: version is required")
	case m.Entrypoints.Runtime == "" || m.Entrypoints.Worktime == "" || m.Entrypoints.Testtime == "":
		return nil, fmt.Errorf("invalid plugin manifest: runtime, worktime and testtime entrypoints are required")
	}
	return &m, nil
}

var loadManifest = sync.OnceValues(func() (*Manifest, error) {
	return ParseManifest(manifestTOML)
})

// LoadManifest returns the manifest embedded in the plugin.
func LoadManifest() (*Manifest, error) {
	return loadManifest()
}

// Plugin is the plugin entrypoint, bound to its settings.
type Plugin struct {
	Manifest *Manifest
	Settings settings.Settings
}

// New checks s and returns the plugin entrypoint.
func New(s settings.Settings) (*Plugin, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	m, err := LoadManifest()
	if err != nil {
		return nil, err
	}
	return &Plugin{Manifest: m, Settings: s}, nil
}

// Runtime returns the runtime contribution for the app in the working
// directory.
func (p *Plugin) Runtime(ctx context.Context) (*runtime.Contribution, error) {
	return runtime.Plugin(ctx, p.Settings)
}

// Testtime returns the testtime contribution for the app in the working
// directory.
func (p *Plugin) Testtime(ctx context.Context) (*testtime.App, error) {
	return testtime.Plugin(ctx, p.Settings)
}
