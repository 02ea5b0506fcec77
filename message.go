package cmdmux

// LineEnding identifies the terminator style detected for one captured line
// of command output.
type LineEnding int

const (
	// LineEndingLF is a bare line feed (\n), the usual Unix ending. Lines
	// flushed at end of stream without an explicit terminator also report
	// LineEndingLF.
	LineEndingLF LineEnding = iota

	// LineEndingCR is a bare carriage return (\r), used by CLI tools that
	// rewrite the current line for progress output.
	LineEndingCR

	// LineEndingCRLF is a carriage return followed by a line feed (\r\n),
	// the Windows and network-protocol ending.
	LineEndingCRLF
)

// String returns a human-readable name for the line ending.
func (e LineEnding) String() string {
	switch e {
	case LineEndingLF:
		return "lf"
	case LineEndingCR:
		return "cr"
	case LineEndingCRLF:
		return "crlf"
	default:
		return "unknown"
	}
}

// OutputMessage is one event on the multiplexed output feed.
type OutputMessage struct {
	// Name is the caller-chosen label of the command this event belongs to.
	Name string

	// Payload carries the event-specific data. Dispatch on its concrete
	// type: StartPayload, StdoutPayload, StderrPayload, DonePayload, or
	// ErrorPayload.
	Payload Payload
}

// Payload is the event-specific part of an OutputMessage.
type Payload interface {
	payload()
}

// StartPayload signals that a command's process has been spawned. A command
// under RestartOnFailure emits one StartPayload per spawn attempt.
type StartPayload struct{}

// StdoutPayload carries one logical line of standard output, terminator
// stripped.
type StdoutPayload struct {
	Ending LineEnding
	Line   []byte
}

// StderrPayload carries one logical line of standard error, terminator
// stripped.
type StderrPayload struct {
	Ending LineEnding
	Line   []byte
}

// DonePayload signals that a command's process has exited. ExitCode is nil
// when the process terminated without an exit status, such as when it was
// killed by a signal.
type DonePayload struct {
	ExitCode *int
}

// ErrorPayload reports a runtime failure with a command: a spawn error, a
// pipe I/O error, or a wait error. Commands that merely exit non-zero
// report that through DonePayload, not ErrorPayload.
type ErrorPayload struct {
	Err error
}

func (StartPayload) payload()  {}
func (StdoutPayload) payload() {}
func (StderrPayload) payload() {}
func (DonePayload) payload()   {}
func (ErrorPayload) payload()  {}

// ExitResult is the terminal outcome of one submitted command. ExitCode is
// nil when the command never produced an exit status (spawn failure, wait
// failure, or death by signal).
type ExitResult struct {
	Name     string
	ExitCode *int
}
