package ui

import (
	"strings"
	"testing"
)

func TestRenderWithoutColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	if ShouldUseColor() {
		t.Fatal("ShouldUseColor() should be false with NO_COLOR")
	}

	tests := []struct {
		name   string
		render func(string) string
	}{
		{"accent", RenderAccent},
		{"pass", RenderPass},
		{"warn", RenderWarn},
		{"fail", RenderFail},
		{"command", RenderCommand},
		{"muted", RenderMuted},
		{"bold", RenderBold},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.render("hello"); !strings.Contains(got, "hello") {
				t.Errorf("render lost text: %q", got)
			}
		})
	}
}

func TestRenderMarkdownPlain(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	md := "1. Run `prisma generate`\n"
	if got := RenderMarkdown(md); got != md {
		t.Errorf("RenderMarkdown() = %q, want input unchanged", got)
	}
}
