package cmdmux

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"syscall"
)

// worker owns one command's full spawn/monitor/restart lifecycle. One
// worker goroutine runs per submitted command; each live spawn attempt adds
// two reader goroutines (stdout, stderr) and one watcher goroutine bound to
// the group's KillBarrier.
type worker struct {
	spec    *CommandSpec
	policy  RestartPolicy
	out     *msgQueue
	barrier *KillBarrier
	pid     *pidSlot
	logger  *slog.Logger

	// Current process handle, shared under mu with the attempt's watcher
	// goroutine. Nil outside a live attempt.
	mu   sync.Mutex
	proc *os.Process
}

// run loops spawn attempts until the restart policy terminates the command.
// It returns exactly one terminal ExitResult.
func (w *worker) run() ExitResult {
	for {
		code, restart := w.runOnce()
		if !restart {
			return ExitResult{Name: w.spec.Name, ExitCode: code}
		}
		w.logger.Info("command_restarting", "command", w.spec.Name)
	}
}

// runOnce performs a single spawn attempt. It reports the attempt's exit
// code (nil when the process never ran or died without a status) and
// whether the policy asks for another attempt.
func (w *worker) runOnce() (code *int, restart bool) {
	cmd := exec.Command(w.spec.Executable, w.spec.Args...)
	cmd.Dir = w.spec.Dir
	cmd.Env = mergedEnv(w.spec.Env)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return w.spawnFailed(err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		// The stdout pipe is already open and Start will never run to close
		// it; under RestartOnFailure a leak here would compound per attempt.
		stdout.Close()
		return w.spawnFailed(err)
	}
	if err := cmd.Start(); err != nil {
		return w.spawnFailed(err)
	}

	w.emit(StartPayload{})

	// Record the pid before the readers start so a control lookup never
	// finds a running command without a pid.
	w.pid.set(cmd.Process.Pid)
	defer w.pid.clear()

	w.mu.Lock()
	w.proc = cmd.Process
	w.mu.Unlock()

	w.logger.Info("command_started",
		"command", w.spec.Name,
		"pid", cmd.Process.Pid,
	)

	var readers sync.WaitGroup
	readers.Add(2)
	go func() {
		defer readers.Done()
		w.readStream(stdout, true)
	}()
	go func() {
		defer readers.Done()
		w.readStream(stderr, false)
	}()

	attemptDone := make(chan struct{})
	defer close(attemptDone)
	go w.watch(attemptDone)

	// Both pipes must hit EOF before Wait, which closes them. The readers
	// keep draining even while a kill is in flight, so output buffered in
	// the pipes is never lost.
	readers.Wait()

	waitErr := cmd.Wait()

	w.mu.Lock()
	w.proc = nil
	w.mu.Unlock()

	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			// Wait itself failed; the attempt has no exit status.
			w.emit(ErrorPayload{Err: waitErr})
			w.logger.Error("command_wait_failed",
				"command", w.spec.Name,
				"error", waitErr,
			)
			return nil, false
		}
	}

	state := cmd.ProcessState
	code = exitCode(state)
	w.emit(DonePayload{ExitCode: code})
	w.logger.Info("command_exited",
		"command", w.spec.Name,
		"exit_code", codeString(code),
	)

	switch w.policy {
	case RestartOnFailure:
		return code, !state.Success()
	case KillGroupOnFailure:
		if !state.Success() {
			w.logger.Warn("group_kill_initiated", "command", w.spec.Name)
			w.barrier.InitiateKill()
		}
		return code, false
	default: // Continue
		return code, false
	}
}

// spawnFailed reports a pipe or spawn error and resolves the policy branch
// for an attempt that never produced a process.
func (w *worker) spawnFailed(err error) (*int, bool) {
	w.emit(ErrorPayload{Err: err})
	w.logger.Error("command_spawn_failed",
		"command", w.spec.Name,
		"error", err,
	)
	switch w.policy {
	case RestartOnFailure:
		return nil, true
	case KillGroupOnFailure:
		w.barrier.InitiateKill()
		return nil, false
	default:
		return nil, false
	}
}

// readStream drains one pipe to EOF, emitting one message per logical line.
func (w *worker) readStream(r io.Reader, isStdout bool) {
	lr := NewLineReader(r)
	for {
		ending, line, ok := lr.Next()
		if !ok {
			break
		}
		// The reader reuses its buffer between lines.
		line = append([]byte(nil), line...)
		if isStdout {
			w.emit(StdoutPayload{Ending: ending, Line: line})
		} else {
			w.emit(StderrPayload{Ending: ending, Line: line})
		}
	}
	if err := lr.Err(); err != nil {
		w.emit(ErrorPayload{Err: err})
	}
}

// watch force-kills the current attempt's child once the group kill gate
// opens. It exits quietly when the attempt ends first. Killing an
// already-exited child is benign and the error is discarded.
func (w *worker) watch(attemptDone <-chan struct{}) {
	select {
	case <-w.barrier.Done():
	case <-attemptDone:
		return
	}

	w.mu.Lock()
	proc := w.proc
	w.mu.Unlock()

	if proc != nil {
		_ = proc.Kill()
	}
}

func (w *worker) emit(p Payload) {
	w.out.push(OutputMessage{Name: w.spec.Name, Payload: p})
}

// mergedEnv merges overrides over the inherited environment. Later entries
// win in os/exec, so appending the overrides is sufficient. Nil means
// inherit unchanged.
func mergedEnv(overrides map[string]string) []string {
	if len(overrides) == 0 {
		return nil
	}
	env := os.Environ()
	for k, v := range overrides {
		env = append(env, k+"="+v)
	}
	return env
}

// exitCode maps a process state to its optional exit code. A process killed
// by a signal has no exit status.
func exitCode(state *os.ProcessState) *int {
	if state == nil {
		return nil
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return nil
	}
	c := state.ExitCode()
	return &c
}

func codeString(code *int) string {
	if code == nil {
		return "(none)"
	}
	return strconv.Itoa(*code)
}
