// Package worktime installs the Prisma plugin into the build, generate,
// dev and create hooks.
package worktime

import (
	"context"

	"github.com/graphql-nexus/nexus-plugin-prisma/internal/generator"
	"github.com/graphql-nexus/nexus-plugin-prisma/internal/host"
	"github.com/graphql-nexus/nexus-plugin-prisma/internal/pkgmgr"
	"github.com/graphql-nexus/nexus-plugin-prisma/internal/reactor"
	"github.com/graphql-nexus/nexus-plugin-prisma/internal/scaffold"
	"github.com/graphql-nexus/nexus-plugin-prisma/settings"
)

// Options complete the settings with project configuration.
type Options struct {
	// ClientProvider is the generator provider scaffolded into schemas.
	ClientProvider string
	// PrismaVersion is the pinned Prisma CLI version. Empty skips the check.
	PrismaVersion string
}

// WatcherSettings watch the schema files, keep them away from the app
// listener and send only them to the plugin.
func WatcherSettings() host.WatcherSettings {
	return host.WatcherSettings{
		WatchFilePatterns: append([]string(nil), reactor.WatchPatterns...),
		Listeners: host.Listeners{
			App: host.ListenerSettings{
				IgnoreFilePatterns: []string{"./prisma/**", "./schema.prisma"},
			},
			Plugin: host.ListenerSettings{
				AllowFilePatterns: append([]string(nil), reactor.WatchPatterns...),
			},
		},
	}
}

// Plugin is the worktime plugin, bound to a host.
type Plugin struct {
	lens    *host.Lens
	gen     *generator.Runner
	reactor *reactor.Reactor
	opts    Options
}

// Register fills hooks with the plugin's handlers.
func Register(lens *host.Lens, hooks *host.Hooks, s settings.Settings, opts Options) *Plugin {
	log := lens.Log.Named("prisma")
	log.Trace("start")

	gen := &generator.Runner{
		ProjectRoot:    lens.Layout.ProjectRoot,
		Log:            log,
		Bin:            lens.PackageManager,
		ClientProvider: opts.ClientProvider,
		PinnedVersion:  opts.PrismaVersion,
	}
	r := reactor.New(reactor.Options{
		Generator:  gen,
		Prompter:   lens.Prompt,
		Log:        log,
		Commands:   lens.PackageManager,
		Migrations: s.MigrationsEnabled(),
		OnEvent: func(e reactor.Event) {
			fields := map[string]any{"file": e.File}
			if e.Err != nil {
				fields["error"] = e.Err.Error()
			}
			lens.Publish(e.Kind, fields)
		},
	})

	p := &Plugin{lens: lens, gen: gen, reactor: r, opts: opts}

	hooks.Build.OnStart = r.OnLifecycleStart
	hooks.Generate.OnStart = r.OnLifecycleStart
	hooks.Dev.OnStart = r.OnLifecycleStart
	hooks.Dev.OnAfterWatcherRestart = r.OnWatcherRestarted
	hooks.Dev.OnFileWatcherEvent = func(ctx context.Context, ev host.FileEvent, w host.WatcherControl) error {
		return r.OnFileChanged(ctx, ev.Rel, w)
	}
	hooks.Dev.AddToWatcherSettings = WatcherSettings()
	hooks.Create.OnAfterBaseSetup = p.create

	return p
}

// Reactor returns the schema change reactor.
func (p *Plugin) Reactor() *reactor.Reactor { return p.reactor }

func (p *Plugin) create(ctx context.Context, cc host.CreateContext) error {
	layout := p.lens.Layout
	provider := p.opts.ClientProvider
	if provider == "" {
		provider = pkgmgr.GoPrismaCLI
	}
	return scaffold.Create(ctx, p.lens.Log.Named("prisma"), p.lens.PackageManager, scaffold.Options{
		Database:       cc.Database,
		ConnectionURI:  cc.ConnectionURI,
		ProjectRoot:    layout.ProjectRoot,
		ProjectName:    layout.ProjectName,
		SourceDir:      layout.SourceDir,
		ClientProvider: provider,
	})
}
