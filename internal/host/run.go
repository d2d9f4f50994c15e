package host

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/graphql-nexus/nexus-plugin-prisma/internal/execx"
	"golang.org/x/mod/modfile"
)

// RunGenerate runs the generate hooks.
func RunGenerate(ctx context.Context, hooks *Hooks) error {
	if hooks.Generate.OnStart == nil {
		return nil
	}
	return hooks.Generate.OnStart(ctx)
}

// RunBuild runs the build hooks, then the build command.
func RunBuild(ctx context.Context, lens *Lens, hooks *Hooks, command string) error {
	if hooks.Build.OnStart != nil {
		if err := hooks.Build.OnStart(ctx); err != nil {
			return err
		}
	}
	if command == "" {
		return nil
	}
	args, err := execx.SplitCommand(command)
	if err != nil {
		return fmt.Errorf("invalid build command: %w", err)
	}
	if len(args) == 0 {
		return nil
	}
	lens.Log.Info("Running %s", command)
	return execx.Run(ctx, execx.Spec{
		Dir:    lens.Layout.ProjectRoot,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}, args[0], args[1:]...)
}

// GoVersion is written into go.mod files created by RunCreate.
const GoVersion = "1.24"

// RunCreate sets up the project directory, then runs the create hooks.
func RunCreate(ctx context.Context, lens *Lens, hooks *Hooks, cc CreateContext) error {
	root := lens.Layout.ProjectRoot
	if err := os.MkdirAll(lens.Layout.SourcePath(), 0755); err != nil {
		return fmt.Errorf("creating project: %w", err)
	}
	if err := writeGoMod(root, lens.Layout.ProjectName); err != nil {
		return err
	}
	lens.Log.Trace("base setup done in %s", root)

	if hooks.Create.OnAfterBaseSetup == nil {
		return nil
	}
	return hooks.Create.OnAfterBaseSetup(ctx, cc)
}

// writeGoMod creates go.mod unless the project already has one.
func writeGoMod(root, module string) error {
	path := filepath.Join(root, "go.mod")
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	f := &modfile.File{}
	if err := f.AddModuleStmt(module); err != nil {
		return fmt.Errorf("creating go.mod: %w", err)
	}
	if err := f.AddGoStmt(GoVersion); err != nil {
		return fmt.Errorf("creating go.mod: %w", err)
	}
	data, err := f.Format()
	if err != nil {
		return fmt.Errorf("creating go.mod: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
