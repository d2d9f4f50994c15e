// Package prompt asks the developer yes/no questions. On a terminal it uses
// a huh confirm field; otherwise it reads a single line from the input.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// ErrNoInput is returned when the input closes before an answer is read.
var ErrNoInput = errors.New("no answer: input closed")

// Confirm describes a yes/no question.
type Confirm struct {
	Message string
	// Initial is the answer taken on an empty line.
	Initial bool
	// Yes and No are printed after the corresponding answer, when set.
	Yes string
	No  string
}

// Console prompts on a terminal or a plain stream.
type Console struct {
	In  io.Reader
	Out io.Writer

	// Interactive forces the huh form on or off. Nil means detect from In.
	Interactive *bool

	once  sync.Once
	lines chan readResult
}

type readResult struct {
	line string
	err  error
}

// NewConsole prompts on stdin/stderr.
func NewConsole() *Console {
	return &Console{In: os.Stdin, Out: os.Stderr}
}

// Confirm asks c and returns the answer.
func (p *Console) Confirm(ctx context.Context, c Confirm) (bool, error) {
	var (
		answer bool
		err    error
	)
	if p.interactive() {
		answer, err = p.confirmForm(ctx, c)
	} else {
		answer, err = p.confirmLine(ctx, c)
	}
	if err != nil {
		return false, err
	}

	switch {
	case answer && c.Yes != "":
		fmt.Fprintln(p.Out, c.Yes)
	case !answer && c.No != "":
		fmt.Fprintln(p.Out, c.No)
	}
	return answer, nil
}

func (p *Console) interactive() bool {
	if p.Interactive != nil {
		return *p.Interactive
	}
	f, ok := p.In.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (p *Console) confirmForm(ctx context.Context, c Confirm) (bool, error) {
	answer := c.Initial
	field := huh.NewConfirm().
		Title(c.Message).
		Affirmative("Yes").
		Negative("No").
		Value(&answer)

	form := huh.NewForm(huh.NewGroup(field)).
		WithInput(p.In).
		WithOutput(p.Out).
		WithShowHelp(false)

	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, fmt.Errorf("prompt failed: %w", err)
	}
	return answer, nil
}

func (p *Console) confirmLine(ctx context.Context, c Confirm) (bool, error) {
	hint := "(y/N)"
	if c.Initial {
		hint = "(Y/n)"
	}
	fmt.Fprintf(p.Out, "%s %s ", c.Message, hint)

	p.once.Do(func() {
		p.lines = make(chan readResult, 1)
		go p.readLines()
	})

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case r, ok := <-p.lines:
		if !ok {
			return false, ErrNoInput
		}
		if r.err != nil && r.line == "" {
			if errors.Is(r.err, io.EOF) {
				return false, ErrNoInput
			}
			return false, fmt.Errorf("failed to read answer: %w", r.err)
		}
		return parseAnswer(r.line, c.Initial), nil
	}
}

// readLines feeds p.lines from a single reader for the life of the
// console. A line typed after a cancelled prompt answers the next one.
func (p *Console) readLines() {
	defer close(p.lines)
	r := bufio.NewReader(p.In)
	for {
		line, err := r.ReadString('\n')
		p.lines <- readResult{line, err}
		if err != nil {
			return
		}
	}
}

func parseAnswer(line string, initial bool) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "":
		return initial
	case "y", "yes":
		return true
	default:
		return false
	}
}
