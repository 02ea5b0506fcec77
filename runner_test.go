package cmdmux

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const joinTimeout = 15 * time.Second

// mustJoin joins the handle with a deadline so a wedged group fails the test
// instead of hanging the run.
func mustJoin(t *testing.T, h *Handle) []ExitResult {
	t.Helper()
	type joined struct {
		results []ExitResult
		err     error
	}
	ch := make(chan joined, 1)
	go func() {
		results, err := h.Join()
		ch <- joined{results, err}
	}()
	select {
	case j := <-ch:
		if j.err != nil {
			t.Fatalf("Join() error: %v", j.err)
		}
		return j.results
	case <-time.After(joinTimeout):
		t.Fatal("Join() did not return")
		return nil
	}
}

// drainAll reads the message stream to completion. Safe to call after Join;
// the queue buffers without bound so nothing is lost.
func drainAll(h *Handle) []OutputMessage {
	var msgs []OutputMessage
	for m := range h.Messages() {
		msgs = append(msgs, m)
	}
	return msgs
}

func mustCommandString(t *testing.T, name, line string) *CommandSpec {
	t.Helper()
	spec, err := NewCommandString(name, line)
	if err != nil {
		t.Fatalf("NewCommandString(%q, %q): %v", name, line, err)
	}
	return spec
}

func countStarts(msgs []OutputMessage, name string) int {
	n := 0
	for _, m := range msgs {
		if m.Name != name {
			continue
		}
		if _, ok := m.Payload.(StartPayload); ok {
			n++
		}
	}
	return n
}

func stdoutLines(msgs []OutputMessage, name string) []string {
	var lines []string
	for _, m := range msgs {
		if m.Name != name {
			continue
		}
		if p, ok := m.Payload.(StdoutPayload); ok {
			lines = append(lines, string(p.Line))
		}
	}
	return lines
}

func TestExecuteResultsInSubmissionOrder(t *testing.T) {
	h, err := NewRunner().
		Command(
			mustCommandString(t, "three", `sh -c "exit 3"`),
			mustCommandString(t, "zero", `sh -c "exit 0"`),
			mustCommandString(t, "seven", `sh -c "exit 7"`),
		).
		Execute()
	if err != nil {
		t.Fatalf("Execute(): %v", err)
	}

	results := mustJoin(t, h)
	wantNames := []string{"three", "zero", "seven"}
	wantCodes := []int{3, 0, 7}
	if len(results) != len(wantNames) {
		t.Fatalf("got %d results, want %d", len(results), len(wantNames))
	}
	for i, r := range results {
		if r.Name != wantNames[i] {
			t.Errorf("result %d: name %q, want %q", i, r.Name, wantNames[i])
		}
		if r.ExitCode == nil || *r.ExitCode != wantCodes[i] {
			t.Errorf("result %d: exit code %s, want %d", i, codeString(r.ExitCode), wantCodes[i])
		}
	}
}

func TestExecuteCapturesOrderedOutput(t *testing.T) {
	h, err := NewRunner().
		Command(mustCommandString(t, "printer", `sh -c "printf 'one\ntwo\nthree\n'"`)).
		Execute()
	if err != nil {
		t.Fatalf("Execute(): %v", err)
	}
	mustJoin(t, h)

	msgs := drainAll(h)
	lines := stdoutLines(msgs, "printer")
	want := []string{"one", "two", "three"}
	if len(lines) != len(want) {
		t.Fatalf("got lines %v, want %v", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, lines[i], want[i])
		}
	}

	// Per-command message order: Start first, Done last.
	if _, ok := msgs[0].Payload.(StartPayload); !ok || msgs[0].Name != "printer" {
		t.Errorf("first message = %+v, want StartPayload", msgs[0])
	}
	last := msgs[len(msgs)-1]
	if _, ok := last.Payload.(DonePayload); !ok {
		t.Errorf("last message = %+v, want DonePayload", last)
	}
}

func TestExecuteSeparatesStreams(t *testing.T) {
	h, err := NewRunner().
		Command(mustCommandString(t, "both", `sh -c "echo out; echo err 1>&2"`)).
		Execute()
	if err != nil {
		t.Fatalf("Execute(): %v", err)
	}
	mustJoin(t, h)

	var gotOut, gotErr string
	for _, m := range drainAll(h) {
		switch p := m.Payload.(type) {
		case StdoutPayload:
			gotOut = string(p.Line)
		case StderrPayload:
			gotErr = string(p.Line)
		}
	}
	if gotOut != "out" || gotErr != "err" {
		t.Errorf("stdout %q stderr %q, want out / err", gotOut, gotErr)
	}
}

func TestKillGroupOnFailure(t *testing.T) {
	start := time.Now()
	h, err := NewRunner().
		Restart(KillGroupOnFailure).
		Command(
			mustCommandString(t, "failer", `sh -c "exit 1"`),
			mustCommandString(t, "sleeper", "sleep 30"),
		).
		Execute()
	if err != nil {
		t.Fatalf("Execute(): %v", err)
	}

	results := mustJoin(t, h)
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Errorf("group took %v to die, the sleeper was not killed", elapsed)
	}

	byName := make(map[string]ExitResult, len(results))
	for _, r := range results {
		byName[r.Name] = r
	}
	if r := byName["failer"]; r.ExitCode == nil || *r.ExitCode != 1 {
		t.Errorf("failer exit code %s, want 1", codeString(r.ExitCode))
	}
	// Killed by signal, so no exit status.
	if r := byName["sleeper"]; r.ExitCode != nil {
		t.Errorf("sleeper exit code %s, want none", codeString(r.ExitCode))
	}

	msgs := drainAll(h)
	if n := countStarts(msgs, "failer"); n != 1 {
		t.Errorf("failer started %d times, want 1", n)
	}
	if n := countStarts(msgs, "sleeper"); n != 1 {
		t.Errorf("sleeper started %d times, want 1", n)
	}
}

func TestRestartOnFailure(t *testing.T) {
	flag := filepath.Join(t.TempDir(), "flag")

	// Fails on the first run, creates the flag file, succeeds on the second.
	spec := mustCommandString(t, "flaky",
		`sh -c "if [ -f \"$FLAG_FILE\" ]; then exit 0; else : > \"$FLAG_FILE\"; exit 1; fi"`)
	spec.SetEnv("FLAG_FILE", flag)

	h, err := NewRunner().
		Restart(RestartOnFailure).
		Command(spec).
		Execute()
	if err != nil {
		t.Fatalf("Execute(): %v", err)
	}

	results := mustJoin(t, h)
	if results[0].ExitCode == nil || *results[0].ExitCode != 0 {
		t.Fatalf("final exit code %s, want 0", codeString(results[0].ExitCode))
	}

	msgs := drainAll(h)
	if n := countStarts(msgs, "flaky"); n != 2 {
		t.Errorf("flaky started %d times, want 2", n)
	}
}

func TestContinuePolicyLeavesGroupRunning(t *testing.T) {
	h, err := NewRunner().
		Command(
			mustCommandString(t, "failer", `sh -c "exit 1"`),
			mustCommandString(t, "worker", `sh -c "sleep 0.3; echo done"`),
		).
		Execute()
	if err != nil {
		t.Fatalf("Execute(): %v", err)
	}
	results := mustJoin(t, h)

	byName := make(map[string]ExitResult, len(results))
	for _, r := range results {
		byName[r.Name] = r
	}
	if r := byName["worker"]; r.ExitCode == nil || *r.ExitCode != 0 {
		t.Errorf("worker exit code %s, want 0 (failer must not take it down)",
			codeString(r.ExitCode))
	}

	lines := stdoutLines(drainAll(h), "worker")
	if len(lines) != 1 || lines[0] != "done" {
		t.Errorf("worker output %v, want [done]", lines)
	}
}

func TestDuplicateNamesRejected(t *testing.T) {
	_, err := NewRunner().
		Command(
			mustCommandString(t, "same", "echo a"),
			mustCommandString(t, "same", "echo b"),
		).
		Execute()

	var dup *DuplicateNameError
	if !errors.As(err, &dup) {
		t.Fatalf("Execute() error = %v, want DuplicateNameError", err)
	}
	if dup.Name != "same" {
		t.Errorf("duplicate name %q, want %q", dup.Name, "same")
	}
}

func TestJoinWithoutDraining(t *testing.T) {
	h, err := NewRunner().
		Command(mustCommandString(t, "chatty", `sh -c "seq 1 500"`)).
		Execute()
	if err != nil {
		t.Fatalf("Execute(): %v", err)
	}

	// Join first; the queue must buffer everything without a consumer.
	mustJoin(t, h)

	lines := stdoutLines(drainAll(h), "chatty")
	if len(lines) != 500 {
		t.Errorf("got %d buffered lines after Join, want 500", len(lines))
	}
}

func TestKillStopsLongRunningGroup(t *testing.T) {
	h, err := NewRunner().
		Command(mustCommandString(t, "sleeper", "sleep 30")).
		Execute()
	if err != nil {
		t.Fatalf("Execute(): %v", err)
	}

	// Kill as soon as the spawn is visible on the stream.
	for m := range h.Messages() {
		if _, ok := m.Payload.(StartPayload); ok {
			break
		}
	}
	h.Kill()
	h.Kill() // idempotent

	results := mustJoin(t, h)
	if results[0].ExitCode != nil {
		t.Errorf("killed sleeper exit code %s, want none", codeString(results[0].ExitCode))
	}
}

func TestExecuteEmptyGroup(t *testing.T) {
	h, err := NewRunner().Execute()
	if err != nil {
		t.Fatalf("Execute(): %v", err)
	}
	h.Kill() // no-op

	results := mustJoin(t, h)
	if len(results) != 0 {
		t.Errorf("got %d results, want 0", len(results))
	}
	if msgs := drainAll(h); len(msgs) != 0 {
		t.Errorf("got %d messages, want 0", len(msgs))
	}
}

func TestSpawnFailureReportsError(t *testing.T) {
	// A plain file passes construction (it stats fine) but cannot be
	// executed, forcing the failure onto the spawn path.
	path := filepath.Join(t.TempDir(), "not-executable")
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	spec, err := NewCommand("bad", path)
	if err != nil {
		t.Fatalf("NewCommand(): %v", err)
	}

	h, err := NewRunner().Command(spec).Execute()
	if err != nil {
		t.Fatalf("Execute(): %v", err)
	}
	results := mustJoin(t, h)
	if results[0].ExitCode != nil {
		t.Errorf("spawn-failed command exit code %s, want none", codeString(results[0].ExitCode))
	}

	msgs := drainAll(h)
	var sawError bool
	for _, m := range msgs {
		switch m.Payload.(type) {
		case ErrorPayload:
			sawError = true
		case StartPayload:
			t.Error("StartPayload emitted for a process that never spawned")
		}
	}
	if !sawError {
		t.Error("no ErrorPayload for the failed spawn")
	}
}

// Output already written by a child must reach the stream even when the
// group is killed right afterwards: the watcher only kills the process, and
// the readers keep draining the pipes to EOF.
func TestOutputBeforeKillSurvives(t *testing.T) {
	h, err := NewRunner().
		Command(mustCommandString(t, "talker", `sh -c "echo before; sleep 30"`)).
		Execute()
	if err != nil {
		t.Fatalf("Execute(): %v", err)
	}

	// Kill only once the line is visible, so the write beat the kill.
	sawLine := false
	for m := range h.Messages() {
		if p, ok := m.Payload.(StdoutPayload); ok && string(p.Line) == "before" {
			sawLine = true
			break
		}
	}
	if !sawLine {
		t.Fatal("stream closed before the child's output arrived")
	}
	h.Kill()

	results := mustJoin(t, h)
	if results[0].ExitCode != nil {
		t.Errorf("killed talker exit code %s, want none", codeString(results[0].ExitCode))
	}

	// The remainder of the stream still carries the terminal Done.
	sawDone := false
	for _, m := range drainAll(h) {
		if _, ok := m.Payload.(DonePayload); ok {
			sawDone = true
		}
	}
	if !sawDone {
		t.Error("no DonePayload after the kill")
	}
}

// A worker panic must surface from Join as an error while keeping the
// one-result-per-command shape. The path is not reachable through the
// public API, so this drives the recovery bookkeeping directly.
func TestJoinReportsWorkerPanic(t *testing.T) {
	q := newMsgQueue()
	h := &Handle{
		queue:   q,
		barrier: NewKillBarrier(),
		done:    make(chan struct{}),
		results: make([]ExitResult, 2),
	}

	zero := 0
	h.results[0] = ExitResult{Name: "ok", ExitCode: &zero}
	h.recordPanic(1, "boom", "lost the plot")
	h.recordPanic(0, "ok", "second panic") // first error wins
	q.close()
	close(h.done)

	results, err := h.Join()
	if err == nil {
		t.Fatal("Join() returned no error after a worker panic")
	}
	if !strings.Contains(err.Error(), "boom") || !strings.Contains(err.Error(), "panicked") {
		t.Errorf("Join() error = %q, want the first panic's command name", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[1].Name != "boom" || results[1].ExitCode != nil {
		t.Errorf("panicked worker result = %+v, want name boom and no exit code", results[1])
	}
}

func TestRestartPolicyString(t *testing.T) {
	tests := []struct {
		policy RestartPolicy
		want   string
	}{
		{Continue, "continue"},
		{RestartOnFailure, "restart"},
		{KillGroupOnFailure, "kill"},
		{RestartPolicy(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.policy.String(); got != tt.want {
			t.Errorf("RestartPolicy(%d).String() = %q, want %q", tt.policy, got, tt.want)
		}
	}
}
