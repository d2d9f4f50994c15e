package generator

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/graphql-nexus/nexus-plugin-prisma/internal/execx"
	"github.com/graphql-nexus/nexus-plugin-prisma/internal/logging"
)

// versionTimeout bounds the `prisma --version` call.
const versionTimeout = 30 * time.Second

// BinRunner runs package manager binaries.
type BinRunner interface {
	RunBin(ctx context.Context, line string) error
	OutputBin(ctx context.Context, timeout time.Duration, line string) ([]byte, error)
}

// Runner runs the generators of a project's schema.
type Runner struct {
	ProjectRoot string
	Log         *logging.Logger
	Bin         BinRunner

	// ClientProvider is written into scaffolded generator blocks.
	ClientProvider string

	// PinnedVersion is the Prisma CLI version the plugin was built against.
	// Empty disables the check.
	PinnedVersion string

	// Silent suppresses the info line announcing the run.
	Silent bool

	versionOnce sync.Once
}

// Generate finds the schema, loads its environment, makes sure a client
// generator is declared, and runs `prisma generate`.
func (r *Runner) Generate(ctx context.Context) error {
	if !r.Silent {
		r.Log.Info("Running Prisma generators ...")
	}

	schemaPath, err := FindSchema(r.ProjectRoot)
	if err != nil {
		return err
	}
	if _, err := LoadEnv(r.Log, schemaPath, r.ProjectRoot); err != nil {
		return err
	}

	r.Log.Trace("loading generators...")
	gens, err := Generators(schemaPath)
	if err != nil {
		return err
	}
	r.Log.Trace("generators loaded.")

	if !HasClient(gens) {
		r.warnScaffold(schemaPath)
		if err := PrependClientGenerator(schemaPath, r.ClientProvider); err != nil {
			return err
		}
		if gens, err = Generators(schemaPath); err != nil {
			return err
		}
	}

	r.versionOnce.Do(func() { r.checkVersion(ctx) })

	rel, err := execx.RelativePath(r.ProjectRoot, schemaPath)
	if err != nil {
		rel = schemaPath
	}
	for _, g := range gens {
		r.Log.Trace("generating %s", g)
	}
	if err := r.Bin.RunBin(ctx, fmt.Sprintf("prisma generate --schema %q", rel)); err != nil {
		return fmt.Errorf("prisma generate failed: %w", err)
	}
	for _, g := range gens {
		r.Log.Trace("done generating %s", g)
	}
	return nil
}

func (r *Runner) warnScaffold(schemaPath string) {
	rel := schemaPath
	if wd, err := os.Getwd(); err == nil {
		if p, err := execx.RelativePath(wd, schemaPath); err == nil {
			rel = p
		}
	}
	r.Log.Warn("A Prisma Client generator block is needed in your Prisma Schema at %q.", rel)
	r.Log.Warn("We scaffolded one for you.")
}

func (r *Runner) checkVersion(ctx context.Context) {
	if r.PinnedVersion == "" {
		return
	}
	out, err := r.Bin.OutputBin(ctx, versionTimeout, "prisma --version")
	if err != nil {
		r.Log.Trace("could not read prisma version: %v", err)
		return
	}
	have := ParseCLIVersion(out)
	if !CompatibleVersion(r.PinnedVersion, have) {
		r.Log.Warn("Prisma CLI %s does not match the version this plugin supports (%s). Generation may fail.", have, r.PinnedVersion)
	}
}
