package cmdmux

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestConsoleCommandColor(t *testing.T) {
	spec := mustCommandString(t, "api", "echo hi")
	cc := NewConsoleCommand(spec)

	if cc.styled {
		t.Error("fresh ConsoleCommand reports a chosen color")
	}
	if cc.Spec() != spec {
		t.Error("Spec() does not return the wrapped spec")
	}

	if got := cc.Color(lipgloss.Color("99")); got != cc {
		t.Error("Color() must return the command for chaining")
	}
	if !cc.styled {
		t.Error("Color() did not mark the command as styled")
	}
}

func TestDefaultPaletteDistinct(t *testing.T) {
	seen := make(map[lipgloss.Color]bool, len(defaultPalette))
	for _, c := range defaultPalette {
		if seen[c] {
			t.Errorf("palette color %q repeats", c)
		}
		seen[c] = true
	}
	if len(defaultPalette) < 4 {
		t.Errorf("palette has %d colors, too few to tell commands apart", len(defaultPalette))
	}
}

func TestRendererStylizeFallbacks(t *testing.T) {
	// Writer facade: no styles at all.
	rd := &renderer{}
	if got := rd.stylize("api", "text"); got != "text" {
		t.Errorf("nil styles: got %q, want %q", got, "text")
	}

	// Console facade with a style registered for another command.
	rd = &renderer{styles: map[string]lipgloss.Style{
		"other": lipgloss.NewStyle(),
	}}
	if got := rd.stylize("api", "text"); got != "text" {
		t.Errorf("unknown name: got %q, want %q", got, "text")
	}
}
