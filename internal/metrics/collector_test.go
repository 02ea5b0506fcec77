package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func intPtr(v int) *int { return &v }

func TestCollectorLifecycleCounters(t *testing.T) {
	c := NewCollector(2)

	if got := testutil.ToFloat64(c.commandsTotal); got != 2 {
		t.Errorf("cmdmux_commands = %v, want 2", got)
	}

	c.CommandStarted(false)
	c.CommandStarted(false)
	c.CommandStarted(true) // respawn

	if got := testutil.ToFloat64(c.startsTotal); got != 3 {
		t.Errorf("cmdmux_starts_total = %v, want 3", got)
	}
	if got := testutil.ToFloat64(c.restartsTotal); got != 1 {
		t.Errorf("cmdmux_restarts_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.activeCommands); got != 3 {
		t.Errorf("cmdmux_active_commands = %v, want 3", got)
	}

	c.CommandExited(intPtr(0))
	c.CommandExited(intPtr(1))
	c.CommandExited(nil)

	if got := testutil.ToFloat64(c.activeCommands); got != 0 {
		t.Errorf("cmdmux_active_commands after exits = %v, want 0", got)
	}
	if got := testutil.ToFloat64(c.exitsTotal.WithLabelValues(OutcomeSuccess)); got != 1 {
		t.Errorf("success exits = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.exitsTotal.WithLabelValues(OutcomeFailure)); got != 1 {
		t.Errorf("failure exits = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.exitsTotal.WithLabelValues(OutcomeNone)); got != 1 {
		t.Errorf("no-status exits = %v, want 1", got)
	}
}

func TestCollectorOutputCounters(t *testing.T) {
	c := NewCollector(1)

	c.OutputLine("stdout", 5)
	c.OutputLine("stdout", 7)
	c.OutputLine("stderr", 3)

	if got := testutil.ToFloat64(c.outputLines.WithLabelValues("stdout")); got != 2 {
		t.Errorf("stdout lines = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.outputBytes.WithLabelValues("stdout")); got != 12 {
		t.Errorf("stdout bytes = %v, want 12", got)
	}
	if got := testutil.ToFloat64(c.outputLines.WithLabelValues("stderr")); got != 1 {
		t.Errorf("stderr lines = %v, want 1", got)
	}
}

func TestCollectorErrorAndKillCounters(t *testing.T) {
	c := NewCollector(1)

	c.RuntimeError()
	c.RuntimeError()
	c.GroupKillInitiated()

	if got := testutil.ToFloat64(c.runtimeErrors); got != 2 {
		t.Errorf("cmdmux_runtime_errors_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.groupKills); got != 1 {
		t.Errorf("cmdmux_group_kills_total = %v, want 1", got)
	}
}

// Separate collectors must not share a registry, so concurrent runs and
// parallel tests never trip duplicate registration.
func TestCollectorsAreIndependent(t *testing.T) {
	a := NewCollector(1)
	b := NewCollector(1)

	a.CommandStarted(false)

	if got := testutil.ToFloat64(b.startsTotal); got != 0 {
		t.Errorf("second collector saw the first one's starts: %v", got)
	}
	if a.Registry() == b.Registry() {
		t.Error("collectors share a registry")
	}
}
