// Package metrics provides Prometheus metrics collection and export for
// go-cmd-mux runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Exit outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeNone    = "none" // exited without a status (signal, spawn failure)
)

// Collector tracks command lifecycle and output metrics for one run. Each
// Collector owns its own registry so concurrent runs and tests do not trip
// over duplicate registrations.
type Collector struct {
	registry *prometheus.Registry

	commandsTotal  prometheus.Gauge
	activeCommands prometheus.Gauge
	startsTotal    prometheus.Counter
	restartsTotal  prometheus.Counter
	exitsTotal     *prometheus.CounterVec
	outputLines    *prometheus.CounterVec
	outputBytes    *prometheus.CounterVec
	runtimeErrors  prometheus.Counter
	groupKills     prometheus.Counter
}

// NewCollector creates a Collector for a run of the given command count.
func NewCollector(commands int) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),

		commandsTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cmdmux_commands",
			Help: "Number of commands submitted to this run",
		}),
		activeCommands: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cmdmux_active_commands",
			Help: "Commands with a live process right now",
		}),
		startsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cmdmux_starts_total",
			Help: "Total process spawns, including restarts",
		}),
		restartsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cmdmux_restarts_total",
			Help: "Total respawns after a failed exit",
		}),
		exitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cmdmux_exits_total",
			Help: "Total process exits by outcome",
		}, []string{"outcome"}),
		outputLines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cmdmux_output_lines_total",
			Help: "Captured output lines by stream",
		}, []string{"stream"}),
		outputBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cmdmux_output_bytes_total",
			Help: "Captured output bytes by stream, terminators excluded",
		}, []string{"stream"}),
		runtimeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cmdmux_runtime_errors_total",
			Help: "Spawn, pipe, and wait errors reported on the stream",
		}),
		groupKills: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cmdmux_group_kills_total",
			Help: "Times the group kill gate was opened",
		}),
	}

	c.registry.MustRegister(
		c.commandsTotal,
		c.activeCommands,
		c.startsTotal,
		c.restartsTotal,
		c.exitsTotal,
		c.outputLines,
		c.outputBytes,
		c.runtimeErrors,
		c.groupKills,
	)

	c.commandsTotal.Set(float64(commands))
	return c
}

// Registry returns the collector's registry, for serving or gathering.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CommandStarted records one spawn. restart is true for respawns after a
// failed exit.
func (c *Collector) CommandStarted(restart bool) {
	c.startsTotal.Inc()
	c.activeCommands.Inc()
	if restart {
		c.restartsTotal.Inc()
	}
}

// CommandExited records one exit. A nil code means the process terminated
// without an exit status.
func (c *Collector) CommandExited(code *int) {
	c.activeCommands.Dec()
	switch {
	case code == nil:
		c.exitsTotal.WithLabelValues(OutcomeNone).Inc()
	case *code == 0:
		c.exitsTotal.WithLabelValues(OutcomeSuccess).Inc()
	default:
		c.exitsTotal.WithLabelValues(OutcomeFailure).Inc()
	}
}

// OutputLine records one captured line on the named stream ("stdout" or
// "stderr").
func (c *Collector) OutputLine(stream string, bytes int) {
	c.outputLines.WithLabelValues(stream).Inc()
	c.outputBytes.WithLabelValues(stream).Add(float64(bytes))
}

// RuntimeError records one Error payload observed on the stream.
func (c *Collector) RuntimeError() {
	c.runtimeErrors.Inc()
}

// GroupKillInitiated records the group kill gate opening.
func (c *Collector) GroupKillInitiated() {
	c.groupKills.Inc()
}
