package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

// envList is a custom flag type for repeatable -env flags.
type envList []string

func (e *envList) String() string {
	return strings.Join(*e, ", ")
}

func (e *envList) Set(value string) error {
	if !strings.Contains(value, "=") {
		return fmt.Errorf("expected KEY=VALUE, got %q", value)
	}
	*e = append(*e, value)
	return nil
}

// ParseFlags parses command-line flags. It returns the Config and the
// positional command specs ("name=command line", or a bare command line).
func ParseFlags() (*Config, []string, error) {
	cfg := DefaultConfig()
	var env envList

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `go-cmd-mux - run several commands concurrently with multiplexed output

Usage:
  go-cmd-mux [flags] "name=command line" ["name=command line" ...]

Run Options:
`)
		printFlagCategory([]string{"restart", "quiet", "handle-flags", "dir", "env"})

		fmt.Fprintf(os.Stderr, "\nOutput Routing:\n")
		printFlagCategory([]string{"writer"})

		fmt.Fprintf(os.Stderr, "\nObservability:\n")
		printFlagCategory([]string{"metrics", "summary", "log-format", "log-level", "v"})

		fmt.Fprintf(os.Stderr, "\nDiagnostics:\n")
		printFlagCategory([]string{"skip-preflight"})

		fmt.Fprintf(os.Stderr, `
Examples:
  # Two commands, colored console output
  go-cmd-mux "api=./bin/api" "worker=./bin/worker --queue jobs"

  # Kill the whole group when any command fails
  go-cmd-mux -restart kill "db=postgres -D ./data" "api=./bin/api"

  # Restart failing commands forever, log to a file, expose metrics
  go-cmd-mux -restart restart -writer run.log -metrics 127.0.0.1:17092 \
    "crawler=./bin/crawl --all"

`)
	}

	flag.StringVar(&cfg.Restart, "restart", cfg.Restart, `Failure policy: "continue", "restart", "kill"`)
	flag.BoolVar(&cfg.Quiet, "quiet", cfg.Quiet, "Suppress start/done housekeeping lines")
	flag.BoolVar(&cfg.HandleFlags, "handle-flags", cfg.HandleFlags, "Mark output lines with (o)/(e) stream flags")
	flag.StringVar(&cfg.Dir, "dir", cfg.Dir, "Working directory for every command")
	flag.Var(&env, "env", "Add KEY=VALUE to every command's environment (can repeat)")

	flag.StringVar(&cfg.WriterPath, "writer", cfg.WriterPath, "Append rendered output to this file instead of the console")

	flag.StringVar(&cfg.MetricsAddr, "metrics", cfg.MetricsAddr, "Serve Prometheus metrics on this address (empty = disabled)")
	flag.BoolVar(&cfg.Summary, "summary", cfg.Summary, "Print an exit summary with uptime percentiles")
	flag.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, `Log format: "json" or "text"`)
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	flag.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Verbose supervisor logging (debug level)")

	flag.BoolVar(&cfg.SkipPreflight, "skip-preflight", cfg.SkipPreflight, "Skip preflight checks")
	flag.BoolVar(&cfg.Version, "version", false, "Print version and exit")

	flag.Parse()

	cfg.Env = env

	args := flag.Args()
	if len(args) == 0 && !cfg.Version {
		flag.Usage()
		return nil, nil, fmt.Errorf("no commands given")
	}

	return cfg, args, nil
}

// printFlagCategory prints the named flags in declaration style.
func printFlagCategory(names []string) {
	for _, name := range names {
		f := flag.Lookup(name)
		if f == nil {
			continue
		}
		fmt.Fprintf(os.Stderr, "  -%-16s %s", f.Name, f.Usage)
		if f.DefValue != "" && f.DefValue != "false" {
			fmt.Fprintf(os.Stderr, " (default %q)", f.DefValue)
		}
		fmt.Fprintln(os.Stderr)
	}
}
