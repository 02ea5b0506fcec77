package cmdmux

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"
)

// RestartPolicy selects what happens after a command's process exits with a
// failure status.
type RestartPolicy int

const (
	// Continue lets a failed command die and leaves the rest of the group
	// running. This is the default.
	Continue RestartPolicy = iota

	// RestartOnFailure respawns a command while it keeps exiting with a
	// failure status, stopping on the first success. There is no retry cap
	// and no backoff: a permanently failing command restarts indefinitely.
	RestartOnFailure

	// KillGroupOnFailure force-terminates every command in the group as
	// soon as any one of them fails.
	KillGroupOnFailure
)

// String returns a human-readable name for the policy.
func (p RestartPolicy) String() string {
	switch p {
	case Continue:
		return "continue"
	case RestartOnFailure:
		return "restart"
	case KillGroupOnFailure:
		return "kill"
	default:
		return "unknown"
	}
}

// Runner assembles a set of commands plus shared run options and launches
// them as one supervised group. The zero value is not usable; start from
// NewRunner.
type Runner struct {
	commands    []Command
	policy      RestartPolicy
	quiet       bool
	handleFlags bool
	templates   Templates
	logger      *slog.Logger
	observer    func(OutputMessage)
}

// NewRunner returns a Runner with no commands and default options.
func NewRunner() *Runner {
	return &Runner{
		templates: DefaultTemplates(),
		logger:    slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)})),
	}
}

// Command appends commands to the group. All commands in one group should
// come from the same facade flavor; mixing flavors is not rejected, but
// facade metadata of foreign flavors is ignored.
func (r *Runner) Command(cmds ...Command) *Runner {
	r.commands = append(r.commands, cmds...)
	return r
}

// Restart sets the shared restart policy. The default is Continue.
func (r *Runner) Restart(p RestartPolicy) *Runner {
	r.policy = p
	return r
}

// Quiet suppresses the start and done housekeeping lines in the console and
// writer facades. Payload and error lines are always rendered.
func (r *Runner) Quiet(quiet bool) *Runner {
	r.quiet = quiet
	return r
}

// ShowHandleFlags enables the " (o)" / " (e)" stream markers in the console
// and writer facades. The default is off.
func (r *Runner) ShowHandleFlags(show bool) *Runner {
	r.handleFlags = show
	return r
}

// SetTemplates replaces the facade message templates. See Templates for the
// supported placeholders.
func (r *Runner) SetTemplates(t Templates) *Runner {
	r.templates = t
	return r
}

// Logger sets the logger for supervisor lifecycle events. The default
// discards everything.
func (r *Runner) Logger(l *slog.Logger) *Runner {
	if l != nil {
		r.logger = l
	}
	return r
}

// Observe registers a callback invoked for every message a facade renders,
// before it is printed. It is only consulted by ExecuteConsole and
// ExecuteWriter; with the channel API the caller already sees every
// message. The callback runs on the facade's render goroutine.
func (r *Runner) Observe(fn func(OutputMessage)) *Runner {
	r.observer = fn
	return r
}

// Execute launches every command and returns a Handle exposing the live
// message stream, the join surface, and group control. It fails without
// spawning anything if two commands share a name.
func (r *Runner) Execute() (*Handle, error) {
	specs := make([]*CommandSpec, 0, len(r.commands))
	seen := make(map[string]struct{}, len(r.commands))
	for _, c := range r.commands {
		spec := c.Spec()
		if _, dup := seen[spec.Name]; dup {
			return nil, &DuplicateNameError{Name: spec.Name}
		}
		seen[spec.Name] = struct{}{}
		specs = append(specs, spec)
	}

	queue := newMsgQueue()
	barrier := NewKillBarrier()
	registry := newPIDRegistry(specs)

	h := &Handle{
		queue:   queue,
		barrier: barrier,
		pids:    registry,
		done:    make(chan struct{}),
		results: make([]ExitResult, len(specs)),
	}

	var wg sync.WaitGroup
	for i, spec := range specs {
		w := &worker{
			spec:    spec,
			policy:  r.policy,
			out:     queue,
			barrier: barrier,
			pid:     registry.slots[i],
			logger:  r.logger,
		}
		wg.Add(1)
		go func(i int, w *worker) {
			defer wg.Done()
			defer func() {
				if p := recover(); p != nil {
					h.recordPanic(i, w.spec.Name, p)
				}
			}()
			h.results[i] = w.run()
		}(i, w)
	}

	go func() {
		wg.Wait()
		queue.close()
		close(h.done)
	}()

	return h, nil
}

// recordPanic captures a worker panic as a handle-level error. The panicked
// command still yields a terminal result with no exit code, so Join keeps
// its one-result-per-command shape.
func (h *Handle) recordPanic(i int, name string, p any) {
	h.results[i] = ExitResult{Name: name}
	h.errMu.Lock()
	if h.err == nil {
		h.err = fmt.Errorf("worker for command %s panicked: %v", name, p)
	}
	h.errMu.Unlock()
}
