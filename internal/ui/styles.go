// Package ui provides terminal styling shared by the CLI and the plugin
// output. Colors are dropped when NO_COLOR is set or stdout is not a terminal.
package ui

import (
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

var (
	AccentStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#005FAF", Dark: "#5FAFFF"}).Bold(true)
	PassStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#00875F", Dark: "#5FD787"})
	WarnStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#AF8700", Dark: "#FFD75F"})
	FailStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#AF0000", Dark: "#FF5F5F"}).Bold(true)
	CommandStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#00AF00", Dark: "#87FF87"})
	MutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#808080", Dark: "#8A8A8A"})
	BoldStyle    = lipgloss.NewStyle().Bold(true)
)

var profileOnce sync.Once

// Init picks the color profile once per process.
func Init() {
	profileOnce.Do(func() {
		if !ShouldUseColor() {
			lipgloss.SetColorProfile(termenv.Ascii)
			return
		}
		lipgloss.SetColorProfile(termenv.NewOutput(os.Stdout).EnvColorProfile())
	})
}

// ShouldUseColor honors NO_COLOR and CLICOLOR_FORCE.
func ShouldUseColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("CLICOLOR_FORCE") != "" && os.Getenv("CLICOLOR_FORCE") != "0" {
		return true
	}
	return IsTerminal(os.Stdout)
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}

func RenderAccent(s string) string  { Init(); return AccentStyle.Render(s) }
func RenderPass(s string) string    { Init(); return PassStyle.Render(s) }
func RenderWarn(s string) string    { Init(); return WarnStyle.Render(s) }
func RenderFail(s string) string    { Init(); return FailStyle.Render(s) }
func RenderCommand(s string) string { Init(); return CommandStyle.Render(s) }
func RenderMuted(s string) string   { Init(); return MutedStyle.Render(s) }
func RenderBold(s string) string    { Init(); return BoldStyle.Render(s) }

// RenderMarkdown renders md for the terminal. Without color support, or if
// glamour fails, the markdown is returned untouched.
func RenderMarkdown(md string) string {
	if !ShouldUseColor() {
		return md
	}
	out, err := glamour.Render(md, "auto")
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n") + "\n"
}
