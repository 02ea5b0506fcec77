package cmdmux

import (
	"errors"
	"fmt"
)

// ErrEmptyCommand is returned when a command is constructed with an empty
// name or an empty executable.
var ErrEmptyCommand = errors.New("empty command name or executable")

// CommandNotFoundError is returned when the executable of a command under
// construction cannot be resolved, either on the PATH or relative to the
// command's working directory.
type CommandNotFoundError struct {
	Executable string
}

func (e *CommandNotFoundError) Error() string {
	return fmt.Sprintf("command not found: %s", e.Executable)
}

// ParseError is returned when a raw command-line string cannot be
// tokenized.
type ParseError struct {
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse command string %q: %v", e.Input, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// DuplicateNameError is returned by Execute when two submitted commands
// share a name. Duplicate names would make output routing and signal
// targeting ambiguous, so they are rejected before anything is spawned.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("duplicate command name: %s", e.Name)
}

// NotFoundError is returned by ControlHandle.SignalOne when the named
// command was never submitted or has no live process at this instant.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no running process named %s", e.Name)
}
