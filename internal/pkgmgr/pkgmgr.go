// Package pkgmgr renders and runs tool binaries the way the project's
// package manager would: `npx prisma …`, `yarn -s prisma …`, or for Go
// projects `go run github.com/steebchen/prisma-client-go …`.
package pkgmgr

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/graphql-nexus/nexus-plugin-prisma/internal/execx"
)

// Kind identifies a package manager.
type Kind string

const (
	KindGo   Kind = "go"
	KindNPM  Kind = "npm"
	KindYarn Kind = "yarn"
	KindPNPM Kind = "pnpm"
)

// GoPrismaCLI is how Go projects invoke the Prisma CLI.
const GoPrismaCLI = "go run github.com/steebchen/prisma-client-go"

// ParseKind validates a package manager name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindGo, KindNPM, KindYarn, KindPNPM:
		return k, nil
	case "":
		return KindGo, nil
	default:
		return "", fmt.Errorf("unknown package manager %q (want go, npm, yarn or pnpm)", s)
	}
}

// Manager runs binaries for a project.
type Manager struct {
	Kind Kind
	Dir  string
	Env  []string

	Stdout io.Writer
	Stderr io.Writer

	// PrismaCLI overrides how the `prisma` binary is invoked.
	PrismaCLI string
}

// New returns a Manager for the project at dir.
func New(kind Kind, dir string) *Manager {
	return &Manager{Kind: kind, Dir: dir}
}

// BinArgs resolves a "bin arg…" line into argv.
func (m *Manager) BinArgs(line string) ([]string, error) {
	args, err := execx.SplitCommand(line)
	if err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("empty command")
	}

	bin, rest := args[0], args[1:]
	if bin == "prisma" && m.PrismaCLI != "" {
		prefix, err := execx.SplitCommand(m.PrismaCLI)
		if err != nil {
			return nil, fmt.Errorf("invalid prisma command: %w", err)
		}
		return append(prefix, rest...), nil
	}
	// The Go toolchain is never installed through a package manager.
	if bin == "go" {
		return args, nil
	}

	switch m.Kind {
	case KindNPM:
		return append([]string{"npx", bin}, rest...), nil
	case KindYarn:
		return append([]string{"yarn", "-s", bin}, rest...), nil
	case KindPNPM:
		return append([]string{"pnpm", "exec", bin}, rest...), nil
	default:
		if bin == "prisma" {
			prefix, _ := execx.SplitCommand(GoPrismaCLI)
			return append(prefix, rest...), nil
		}
		return args, nil
	}
}

// RenderRunBin returns the command a user would type to run line.
func (m *Manager) RenderRunBin(line string) string {
	args, err := m.BinArgs(line)
	if err != nil {
		return line
	}
	return strings.Join(args, " ")
}

// RenderRunScript returns the command running a project script such as "dev".
func (m *Manager) RenderRunScript(script string) string {
	switch m.Kind {
	case KindNPM:
		return "npm run " + script
	case KindYarn:
		return "yarn " + script
	case KindPNPM:
		return "pnpm run " + script
	default:
		return "nexus-prisma " + script
	}
}

// RunBin runs line in the project directory with output streamed.
func (m *Manager) RunBin(ctx context.Context, line string) error {
	args, err := m.BinArgs(line)
	if err != nil {
		return err
	}
	return execx.Run(ctx, execx.Spec{
		Dir:    m.Dir,
		Env:    m.Env,
		Stdout: m.Stdout,
		Stderr: m.Stderr,
	}, args[0], args[1:]...)
}

// OutputBin runs line and returns its stdout.
func (m *Manager) OutputBin(ctx context.Context, timeout time.Duration, line string) ([]byte, error) {
	args, err := m.BinArgs(line)
	if err != nil {
		return nil, err
	}
	return execx.ExecContext(ctx, timeout, m.Dir, m.Env, args[0], args[1:]...)
}
