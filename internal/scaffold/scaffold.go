package scaffold

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/graphql-nexus/nexus-plugin-prisma/internal/logging"
	"github.com/graphql-nexus/nexus-plugin-prisma/internal/ui"
	"golang.org/x/mod/modfile"
)

// ErrNoDatabase is returned when the create flow runs without a database.
// Hosts must not install the plugin without one, so this is a programming
// error rather than a user mistake.
var ErrNoDatabase = errors.New("should never happen: the Prisma plugin was installed without choosing a database")

// DefaultClientPackage is the directory the generated client is written to.
const DefaultClientPackage = "db"

// SeedCommand runs the scaffolded seed program.
const SeedCommand = "go run ./prisma/seed"

// Runner runs and renders package manager commands.
type Runner interface {
	RunBin(ctx context.Context, line string) error
	RenderRunBin(line string) string
	RenderRunScript(script string) string
}

// Options describes the project being created.
type Options struct {
	Database      Database
	ConnectionURI string

	ProjectRoot string
	ProjectName string
	// SourceDir receives the GraphQL module, relative to ProjectRoot.
	SourceDir string

	ClientProvider string
}

// File is one scaffolded file.
type File struct {
	// Path is relative to the project root.
	Path    string
	Content string
	// Append adds Content to an existing file instead of replacing it.
	Append bool
}

// Files renders the files for opts without touching the disk.
func Files(opts Options) ([]File, error) {
	if !opts.Database.Valid() {
		return nil, ErrNoDatabase
	}
	data := Data{
		Datasource:     RenderDatasource(opts.Database),
		ClientProvider: opts.ClientProvider,
		ClientPackage:  DefaultClientPackage,
		ConnectionURI:  RenderConnectionURI(opts.Database, opts.ConnectionURI, opts.ProjectName),
		ModulePath:     modulePath(opts.ProjectRoot, opts.ProjectName),
		SourcePackage:  sourcePackage(opts.SourceDir),
	}

	specs := []struct {
		path, tmpl string
		append     bool
	}{
		{".gitignore", "gitignore.tmpl", true},
		{"prisma/schema.prisma", "schema.prisma.tmpl", false},
		{"prisma/.env", "env.tmpl", false},
		{"prisma/seed/main.go", "seed.go.tmpl", false},
		{filepath.ToSlash(filepath.Join(sourceDirOrDot(opts.SourceDir), "graphql.go")), "graphql.go.tmpl", false},
	}

	files := make([]File, 0, len(specs))
	for _, s := range specs {
		content, err := Render(s.tmpl, data)
		if err != nil {
			return nil, err
		}
		files = append(files, File{Path: s.path, Content: content, Append: s.append})
	}
	return files, nil
}

// Write writes files under root.
func Write(root string, files []File) error {
	for _, f := range files {
		path := filepath.Join(root, filepath.FromSlash(f.Path))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", f.Path, err)
		}
		if f.Append {
			if err := appendFile(path, f.Content); err != nil {
				return fmt.Errorf("failed to append to %s: %w", f.Path, err)
			}
			continue
		}
		if err := os.WriteFile(path, []byte(f.Content), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.Path, err)
		}
	}
	return nil
}

func appendFile(path, content string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Create writes the project files, then either prepares the development
// database or prints the steps to do it by hand. A database is prepared
// when a connection URI was given or the database is SQLite.
func Create(ctx context.Context, log *logging.Logger, run Runner, opts Options) error {
	files, err := Files(opts)
	if err != nil {
		return err
	}
	if err := Write(opts.ProjectRoot, files); err != nil {
		return err
	}

	if opts.ConnectionURI != "" || opts.Database == SQLite {
		log.Info("Initializing development database...")
		for _, line := range []string{
			"prisma migrate save --create-db --name init --experimental",
			"prisma migrate up -c --experimental",
		} {
			if err := run.RunBin(ctx, line); err != nil {
				return err
			}
		}
		log.Info("Generating Prisma Client...")
		if err := run.RunBin(ctx, "prisma generate"); err != nil {
			return err
		}
		log.Info("Seeding development database...")
		return run.RunBin(ctx, SeedCommand)
	}

	steps := strings.Join(ManualSteps(run, opts.Database), "\n")
	log.Info("%s", strings.TrimRight(ui.RenderMarkdown(steps), "\n"))
	return nil
}

// ManualSteps are the instructions printed when the database cannot be
// prepared automatically, as markdown list items.
func ManualSteps(run Runner, d Database) []string {
	cmd := func(s string) string { return "`" + s + "`" }
	return []string{
		fmt.Sprintf("1. Please setup your %s and fill in the connection uri in your %s file.", d, cmd("prisma/.env")),
		fmt.Sprintf("2. Run %s to create your first migration file.", cmd(run.RenderRunBin("prisma migrate save --experimental"))),
		fmt.Sprintf("3. Run %s to migrate your database.", cmd(run.RenderRunBin("prisma migrate up --experimental"))),
		fmt.Sprintf("4. Run %s to generate the Prisma Client.", cmd(run.RenderRunBin("prisma generate"))),
		fmt.Sprintf("5. Run %s to seed your database.", cmd(run.RenderRunBin(SeedCommand))),
		fmt.Sprintf("6. Run %s to start working.", cmd(run.RenderRunScript("dev"))),
	}
}

// modulePath reads the module path from the project's go.mod, falling back
// to the project name.
func modulePath(root, projectName string) string {
	data, err := os.ReadFile(filepath.Join(root, "go.mod"))
	if err == nil {
		if p := modfile.ModulePath(data); p != "" {
			return p
		}
	}
	return projectName
}

func sourceDirOrDot(dir string) string {
	if dir == "" {
		return "."
	}
	return dir
}

func sourcePackage(dir string) string {
	base := filepath.Base(sourceDirOrDot(dir))
	if base == "." || base == string(filepath.Separator) {
		return "main"
	}
	return strings.ReplaceAll(base, "-", "_")
}
