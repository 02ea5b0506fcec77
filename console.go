package cmdmux

import (
	"os"

	"github.com/charmbracelet/lipgloss"
)

// ConsoleCommand wraps a CommandSpec with console routing metadata: the
// style used for this command's rendered prefix. Commands that never pick a
// color are assigned visually distinct ones from the default palette.
type ConsoleCommand struct {
	*CommandSpec

	style  lipgloss.Style
	styled bool
}

// NewConsoleCommand wraps spec for the console facade.
func NewConsoleCommand(spec *CommandSpec) *ConsoleCommand {
	return &ConsoleCommand{CommandSpec: spec}
}

// Color sets the foreground color used for this command's prefix. Returns
// the command for chaining.
func (c *ConsoleCommand) Color(color lipgloss.TerminalColor) *ConsoleCommand {
	c.style = lipgloss.NewStyle().Foreground(color)
	c.styled = true
	return c
}

// defaultPalette supplies distinct ANSI colors for commands that did not
// choose one.
var defaultPalette = []lipgloss.Color{
	lipgloss.Color("4"), // blue
	lipgloss.Color("2"), // green
	lipgloss.Color("5"), // magenta
	lipgloss.Color("6"), // cyan
	lipgloss.Color("3"), // yellow
	lipgloss.Color("1"), // red
}

// ExecuteConsole launches the group and renders every message to standard
// out with a colored per-command prefix. The returned Handle behaves like
// the one from Execute, except that the message stream is consumed
// internally and Join also waits for the final message to be printed.
func (r *Runner) ExecuteConsole() (*Handle, error) {
	styles := make(map[string]lipgloss.Style, len(r.commands))
	next := 0
	for _, c := range r.commands {
		name := c.Spec().Name
		if cc, ok := c.(*ConsoleCommand); ok && cc.styled {
			styles[name] = cc.style
			continue
		}
		styles[name] = lipgloss.NewStyle().
			Foreground(defaultPalette[next%len(defaultPalette)])
		next++
	}

	return r.executeRendered(&renderer{
		w:           os.Stdout,
		styles:      styles,
		quiet:       r.quiet,
		handleFlags: r.handleFlags,
		templates:   r.templates,
		single:      len(r.commands) == 1,
		observer:    r.observer,
	})
}
