package main

import (
	"fmt"
	"path/filepath"

	prisma "github.com/graphql-nexus/nexus-plugin-prisma"
	"github.com/graphql-nexus/nexus-plugin-prisma/internal/config"
	"github.com/graphql-nexus/nexus-plugin-prisma/internal/host"
	"github.com/graphql-nexus/nexus-plugin-prisma/internal/logging"
	"github.com/graphql-nexus/nexus-plugin-prisma/internal/pkgmgr"
	"github.com/graphql-nexus/nexus-plugin-prisma/internal/prompt"
	"github.com/graphql-nexus/nexus-plugin-prisma/internal/worktime"
	"github.com/graphql-nexus/nexus-plugin-prisma/settings"
)

// project is the host side of a command: the lens the plugin sees and the
// hooks it registered.
type project struct {
	lens  *host.Lens
	hooks *host.Hooks
}

// loadProject builds the lens from the project configuration and
// registers the worktime plugin. name overrides the configured project
// name when set.
func loadProject(name string) (*project, error) {
	root := config.ProjectRoot()

	kind, err := pkgmgr.ParseKind(config.GetString("package-manager"))
	if err != nil {
		return nil, err
	}
	pm := pkgmgr.New(kind, root)
	pm.PrismaCLI = config.GetString("prisma.cli")

	manifest, err := prisma.LoadManifest()
	if err != nil {
		return nil, err
	}
	version := manifest.Prisma.Version
	if config.IsSet("prisma.version") {
		version = config.GetString("prisma.version")
	}
	provider := manifest.Prisma.ClientProvider
	if config.IsSet("generator.provider") {
		provider = config.GetString("generator.provider")
	}

	logFile := config.GetString("log.file")
	if logFile != "" && !filepath.IsAbs(logFile) {
		logFile = filepath.Join(root, logFile)
	}
	log := logging.New(logging.Options{
		File:      logFile,
		MaxSizeMB: config.GetInt("log.max-size-mb"),
	})

	if name == "" {
		name = config.GetString("project-name")
	}

	s := settings.FromConfig()
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid plugin settings: %w", err)
	}

	lens := &host.Lens{
		Log:            log,
		Prompt:         prompt.NewConsole(),
		PackageManager: pm,
		Layout: host.Layout{
			ProjectRoot: root,
			ProjectName: name,
			SourceDir:   config.GetString("source-dir"),
		},
	}
	hooks := &host.Hooks{}
	worktime.Register(lens, hooks, s, worktime.Options{
		ClientProvider: provider,
		PrismaVersion:  version,
	})

	return &project{lens: lens, hooks: hooks}, nil
}

// Close flushes the log file.
func (p *project) Close() {
	_ = p.lens.Log.Close()
}
