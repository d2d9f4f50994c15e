// Package execx runs external tools (the Prisma CLI, the package manager,
// the supervised dev process) and parses their output.
package execx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/shlex"
)

// ===================
// Command Execution Utilities
// ===================

// ExecContext executes a command with timeout and context support and
// returns its stdout. Stderr is folded into the error on failure.
//
// Example:
//
//	output, err := ExecContext(ctx, 30*time.Second, root, nil, "npx", "prisma", "--version")
func ExecContext(ctx context.Context, timeout time.Duration, workDir string, env []string, name string, args ...string) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = workDir
	if env != nil {
		cmd.Env = env
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return stdout.Bytes(), fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
		}
		return stdout.Bytes(), err
	}

	return stdout.Bytes(), nil
}

// Spec describes a streaming command run.
type Spec struct {
	Dir    string
	Env    []string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Run executes name with output streamed to the writers in spec, which
// default to the process's own stdout and stderr.
func Run(ctx context.Context, spec Spec, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = spec.Dir
	if spec.Env != nil {
		cmd.Env = spec.Env
	}
	cmd.Stdin = spec.Stdin
	cmd.Stdout = spec.Stdout
	cmd.Stderr = spec.Stderr
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Run(); err != nil {
		return &CommandError{Command: CommandString(name, args...), Err: err}
	}
	return nil
}

// CommandError is a failed streaming run. It keeps the child's exit code.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	if code := GetExitCode(e.Err); code > 0 {
		return fmt.Sprintf("`%s` exited with code %d", e.Command, code)
	}
	return fmt.Sprintf("`%s` failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// CommandString renders name and args for messages.
func CommandString(name string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, name)
	for _, a := range args {
		if a == "" || strings.ContainsAny(a, " \t\"'") {
			a = fmt.Sprintf("%q", a)
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

// SplitCommand splits a command line into words using shell quoting rules.
// It does no variable expansion.
func SplitCommand(line string) ([]string, error) {
	args, err := shlex.Split(line)
	if err != nil {
		return nil, fmt.Errorf("cannot split %q: %w", line, err)
	}
	return args, nil
}

// ===================
// Output Parsing Utilities
// ===================

// ParseLines splits command output into non-empty, trimmed lines.
func ParseLines(output []byte) []string {
	if len(output) == 0 {
		return nil
	}

	lines := strings.Split(string(output), "\n")
	result := make([]string, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			result = append(result, line)
		}
	}

	return result
}

// ParseKeyValue parses "key: value" lines, as printed by `prisma --version`.
func ParseKeyValue(output []byte) map[string]string {
	result := make(map[string]string)

	for _, line := range ParseLines(output) {
		parts := strings.SplitN(line, ":", 2)
		if len(parts) == 2 {
			result[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}
	}

	return result
}

// ===================
// Path Utilities
// ===================

// RelativePath returns target relative to base using forward slashes.
func RelativePath(base, target string) (string, error) {
	rel, err := filepath.Rel(filepath.Clean(base), filepath.Clean(target))
	if err != nil {
		return "", fmt.Errorf("cannot determine relative path: %w", err)
	}
	return filepath.ToSlash(rel), nil
}

// ===================
// Error Utilities
// ===================

// GetExitCode returns the exit code carried by err, 0 for nil and -1 when
// err is not an exit error.
func GetExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
