package cmdmux

import (
	shellwords "github.com/mattn/go-shellwords"

	"github.com/randomizedcoder/go-cmd-mux/internal/preflight"
)

// CommandSpec describes one child process to run: a caller-chosen name, an
// executable with its argument list, an optional working directory, and
// environment overrides merged over the inherited environment.
//
// Specs are immutable once a run starts. A CommandSpec is itself a Command
// and can be passed directly to Runner.Command for the channel API; the
// ConsoleCommand and WriterCommand adapters wrap a spec with
// facade-specific routing metadata.
type CommandSpec struct {
	Name       string
	Executable string
	Args       []string
	Dir        string
	Env        map[string]string
}

// Command is implemented by every command flavor the Runner accepts.
type Command interface {
	// Spec returns the underlying process description.
	Spec() *CommandSpec
}

// Spec implements Command.
func (c *CommandSpec) Spec() *CommandSpec { return c }

// NewCommand builds a CommandSpec from an executable and an argument list.
// It fails with ErrEmptyCommand if name or executable is empty, and with
// CommandNotFoundError if the executable cannot be resolved.
func NewCommand(name, executable string, args ...string) (*CommandSpec, error) {
	return newSpec(name, executable, args)
}

// NewCommandString builds a CommandSpec from a raw command-line string,
// tokenized shell-words style. Quoting is supported; pipes, redirects, and
// logical operators are not. Wrap those in an explicit `sh -c "..."`.
func NewCommandString(name, commandLine string) (*CommandSpec, error) {
	words, err := shellwords.Parse(commandLine)
	if err != nil {
		return nil, &ParseError{Input: commandLine, Err: err}
	}
	if len(words) == 0 {
		return nil, ErrEmptyCommand
	}
	return newSpec(name, words[0], words[1:])
}

func newSpec(name, executable string, args []string) (*CommandSpec, error) {
	if name == "" || executable == "" {
		return nil, ErrEmptyCommand
	}
	if err := preflight.CheckExecutable(executable, ""); err != nil {
		return nil, &CommandNotFoundError{Executable: executable}
	}
	return &CommandSpec{
		Name:       name,
		Executable: executable,
		Args:       args,
		Env:        make(map[string]string),
	}, nil
}

// SetDir sets the working directory the process starts in. A relative
// executable path is re-checked against the new directory.
func (c *CommandSpec) SetDir(dir string) error {
	if err := preflight.CheckExecutable(c.Executable, dir); err != nil {
		return &CommandNotFoundError{Executable: c.Executable}
	}
	c.Dir = dir
	return nil
}

// SetEnv adds one environment override, merged over the inherited
// environment at spawn time. Returns the spec for chaining.
func (c *CommandSpec) SetEnv(key, value string) *CommandSpec {
	if c.Env == nil {
		c.Env = make(map[string]string)
	}
	c.Env[key] = value
	return c
}
