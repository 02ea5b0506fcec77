// Package stats aggregates per-command lifecycle statistics for the exit
// summary: uptime percentiles via a t-digest, exit-code tallies, and
// start/restart counts.
package stats

import (
	"sync"
	"time"

	"github.com/influxdata/tdigest"
)

// Aggregator collects uptimes and exit outcomes across all spawn attempts
// of a run. Safe for concurrent use.
type Aggregator struct {
	mu sync.Mutex

	digest  *tdigest.TDigest
	samples int

	exitCodes map[int]int
	noStatus  int

	starts   int
	restarts int
}

// NewAggregator returns an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		// ~100 centroids keeps the digest around 10KB regardless of the
		// number of samples.
		digest:    tdigest.NewWithCompression(100),
		exitCodes: make(map[int]int),
	}
}

// RecordStart records one spawn attempt. restart is true for respawns.
func (a *Aggregator) RecordStart(restart bool) {
	a.mu.Lock()
	a.starts++
	if restart {
		a.restarts++
	}
	a.mu.Unlock()
}

// RecordExit records one exit with its uptime. A nil code means the process
// ended without an exit status.
func (a *Aggregator) RecordExit(code *int, uptime time.Duration) {
	a.mu.Lock()
	a.digest.Add(uptime.Seconds(), 1)
	a.samples++
	if code == nil {
		a.noStatus++
	} else {
		a.exitCodes[*code]++
	}
	a.mu.Unlock()
}

// Quantile returns the uptime at quantile q, or zero with no samples.
func (a *Aggregator) Quantile(q float64) time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.samples == 0 {
		return 0
	}
	return time.Duration(a.digest.Quantile(q) * float64(time.Second))
}

// Snapshot captures the aggregated view for summary formatting.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	codes := make(map[int]int, len(a.exitCodes))
	for k, v := range a.exitCodes {
		codes[k] = v
	}

	s := Snapshot{
		ExitCodes:     codes,
		NoStatusExits: a.noStatus,
		TotalStarts:   a.starts,
		TotalRestarts: a.restarts,
	}
	if a.samples > 0 {
		s.UptimeP50 = time.Duration(a.digest.Quantile(0.50) * float64(time.Second))
		s.UptimeP95 = time.Duration(a.digest.Quantile(0.95) * float64(time.Second))
		s.UptimeP99 = time.Duration(a.digest.Quantile(0.99) * float64(time.Second))
	}
	return s
}

// Snapshot is a point-in-time copy of the aggregated statistics.
type Snapshot struct {
	ExitCodes     map[int]int
	NoStatusExits int
	TotalStarts   int
	TotalRestarts int

	UptimeP50 time.Duration
	UptimeP95 time.Duration
	UptimeP99 time.Duration
}
