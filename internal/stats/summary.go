package stats

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// SummaryConfig holds run-level context for summary formatting.
type SummaryConfig struct {
	// Commands is the number of commands submitted.
	Commands int

	// Duration is the total run duration.
	Duration time.Duration

	// MetricsAddr is the Prometheus endpoint address, empty if disabled.
	MetricsAddr string
}

// FormatExitSummary formats aggregated stats for display at program exit.
func FormatExitSummary(snap Snapshot, cfg SummaryConfig) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString("═══════════════════════════════════════════════════════════════════\n")
	b.WriteString("                      go-cmd-mux Exit Summary\n")
	b.WriteString("═══════════════════════════════════════════════════════════════════\n")
	fmt.Fprintf(&b, "Run Duration:           %s\n", FormatDuration(cfg.Duration))
	fmt.Fprintf(&b, "Commands:               %d\n", cfg.Commands)
	b.WriteString("\n")

	if snap.UptimeP50 > 0 || snap.UptimeP95 > 0 {
		b.WriteString("Uptime Distribution:\n")
		fmt.Fprintf(&b, "  P50 (median):         %s\n", FormatDuration(snap.UptimeP50))
		fmt.Fprintf(&b, "  P95:                  %s\n", FormatDuration(snap.UptimeP95))
		fmt.Fprintf(&b, "  P99:                  %s\n", FormatDuration(snap.UptimeP99))
		b.WriteString("\n")
	}

	b.WriteString("Lifecycle:\n")
	fmt.Fprintf(&b, "  Total Starts:         %d\n", snap.TotalStarts)
	fmt.Fprintf(&b, "  Total Restarts:       %d\n", snap.TotalRestarts)
	b.WriteString("\n")

	if len(snap.ExitCodes) > 0 || snap.NoStatusExits > 0 {
		b.WriteString("Exit Codes:\n")
		codes := make([]int, 0, len(snap.ExitCodes))
		for code := range snap.ExitCodes {
			codes = append(codes, code)
		}
		sort.Ints(codes)
		for _, code := range codes {
			fmt.Fprintf(&b, "  %3d %-16s %d\n", code, exitCodeLabel(code), snap.ExitCodes[code])
		}
		if snap.NoStatusExits > 0 {
			fmt.Fprintf(&b, "  %3s %-16s %d\n", "-", "(no status)", snap.NoStatusExits)
		}
		b.WriteString("\n")
	}

	if cfg.MetricsAddr != "" {
		fmt.Fprintf(&b, "Metrics endpoint was: http://%s/metrics\n", cfg.MetricsAddr)
	}
	b.WriteString("═══════════════════════════════════════════════════════════════════\n")
	return b.String()
}

// FormatDuration formats a duration as HH:MM:SS.
func FormatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// exitCodeLabel returns a human-readable label for common exit codes.
func exitCodeLabel(code int) string {
	switch code {
	case 0:
		return "(clean)"
	case 1:
		return "(error)"
	case 137:
		return "(SIGKILL)"
	case 143:
		return "(SIGTERM)"
	default:
		return ""
	}
}
