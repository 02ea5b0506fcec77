package cmdmux

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// WriterCommand wraps a CommandSpec for the writer facade. It carries no
// extra metadata today; the distinct type keeps writer-bound commands
// separate from the other facade flavors.
type WriterCommand struct {
	*CommandSpec
}

// NewWriterCommand wraps spec for the writer facade.
func NewWriterCommand(spec *CommandSpec) *WriterCommand {
	return &WriterCommand{CommandSpec: spec}
}

// ExecuteWriter launches the group and renders every message, uncolored, to
// w. All commands share the one writer; callers wanting per-command sinks
// should use the channel API. Join also waits for the final message to be
// written.
func (r *Runner) ExecuteWriter(w io.Writer) (*Handle, error) {
	return r.executeRendered(&renderer{
		w:           w,
		quiet:       r.quiet,
		handleFlags: r.handleFlags,
		templates:   r.templates,
		single:      len(r.commands) == 1,
		observer:    r.observer,
	})
}

// renderer drains the message stream of one group and prints each message
// through the configured templates. The console facade adds per-command
// lipgloss styles; the writer facade leaves styles nil.
type renderer struct {
	w           io.Writer
	styles      map[string]lipgloss.Style
	quiet       bool
	handleFlags bool
	templates   Templates
	single      bool
	observer    func(OutputMessage)
}

// executeRendered launches the group and attaches a render goroutine that
// owns the message stream.
func (r *Runner) executeRendered(rd *renderer) (*Handle, error) {
	h, err := r.Execute()
	if err != nil {
		return nil, err
	}
	var wg sync.WaitGroup
	h.render = &wg
	wg.Add(1)
	go func() {
		defer wg.Done()
		rd.drain(h.Messages())
	}()
	return h, nil
}

func (rd *renderer) drain(msgs <-chan OutputMessage) {
	for msg := range msgs {
		if rd.observer != nil {
			rd.observer(msg)
		}
		rd.print(msg)
	}
}

func (rd *renderer) print(msg OutputMessage) {
	flagO, flagE := "", ""
	if rd.handleFlags {
		flagO, flagE = " (o)", " (e)"
	}
	switch p := msg.Payload.(type) {
	case StartPayload:
		if rd.quiet {
			return
		}
		rd.line(msg.Name, renderTemplate(rd.templates.Start, msg.Name, "", nil, ""))
	case DonePayload:
		if rd.quiet {
			return
		}
		rd.line(msg.Name, renderTemplate(rd.templates.Done, msg.Name, "", p.ExitCode, ""))
	case StdoutPayload:
		rd.payload(msg.Name, flagO, p.Ending, p.Line)
	case StderrPayload:
		rd.payload(msg.Name, flagE, p.Ending, p.Line)
	case ErrorPayload:
		rd.line(msg.Name, renderTemplate(rd.templates.Error, msg.Name, "", nil, p.Err.Error()))
	}
}

func (rd *renderer) line(name, s string) {
	fmt.Fprintln(rd.w, rd.stylize(name, s))
}

func (rd *renderer) payload(name, flag string, ending LineEnding, line []byte) {
	prefix := rd.stylize(name, renderTemplate(rd.templates.Payload, name, flag, nil, ""))

	// A single command rewriting its line with bare carriage returns keeps
	// that behavior on the output; with several commands interleaved, every
	// line gets its own row.
	term := "\n"
	if rd.single && ending == LineEndingCR {
		term = "\r"
	}
	fmt.Fprintf(rd.w, "%s %s%s", prefix, line, term)
}

func (rd *renderer) stylize(name, s string) string {
	if rd.styles == nil {
		return s
	}
	style, ok := rd.styles[name]
	if !ok {
		return s
	}
	return style.Render(s)
}
