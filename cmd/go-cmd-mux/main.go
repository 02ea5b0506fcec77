// go-cmd-mux runs several commands concurrently and multiplexes their
// output into one stream, with restart policies, signal forwarding, and
// optional Prometheus metrics.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	cmdmux "github.com/randomizedcoder/go-cmd-mux"
	"github.com/randomizedcoder/go-cmd-mux/internal/config"
	"github.com/randomizedcoder/go-cmd-mux/internal/logging"
	"github.com/randomizedcoder/go-cmd-mux/internal/metrics"
	"github.com/randomizedcoder/go-cmd-mux/internal/preflight"
	"github.com/randomizedcoder/go-cmd-mux/internal/stats"
)

var version = "dev" // set via -ldflags "-X main.version=..."

func main() {
	os.Exit(run())
}

func run() int {
	cfg, args, err := config.ParseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	if cfg.Version {
		fmt.Printf("go-cmd-mux %s\n", version)
		return 0
	}

	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	logger := logging.NewLogger(cfg.LogFormat, cfg.LogLevel, cfg.Verbose)
	logging.SetDefault(logger)

	specs, err := buildSpecs(cfg, args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	if !cfg.SkipPreflight {
		executables := make([]string, len(specs))
		for i, s := range specs {
			executables[i] = s.Executable
		}
		result := preflight.RunAll(executables)
		if !result.Passed {
			preflight.PrintResults(result)
			return 1
		}
	}

	var collector *metrics.Collector
	var server *metrics.Server
	if cfg.MetricsAddr != "" {
		collector = metrics.NewCollector(len(specs))
		server = metrics.NewServer(cfg.MetricsAddr, collector.Registry(), logger)
		if err := server.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: metrics server: %v\n", err)
			return 1
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			server.Shutdown(ctx)
		}()
	}

	agg := stats.NewAggregator()
	started := time.Now()

	runner := cmdmux.NewRunner().
		Restart(policyFromString(cfg.Restart)).
		Quiet(cfg.Quiet).
		ShowHandleFlags(cfg.HandleFlags).
		Logger(logger).
		Observe(newObserver(agg, collector))
	for _, s := range specs {
		runner.Command(s)
	}

	var sink *os.File
	if cfg.WriterPath != "" {
		sink, err = os.OpenFile(cfg.WriterPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		defer sink.Close()
	}

	var handle *cmdmux.Handle
	if sink != nil {
		handle, err = runner.ExecuteWriter(sink)
	} else {
		handle, err = runner.ExecuteConsole()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Warn("signal_received", "signal", sig.String())
		if collector != nil {
			collector.GroupKillInitiated()
		}
		handle.Kill()
		// A second signal means the group is not dying; bail out hard.
		<-sigCh
		os.Exit(130)
	}()

	results, joinErr := handle.Join()
	signal.Stop(sigCh)

	if cfg.Summary {
		fmt.Print(stats.FormatExitSummary(agg.Snapshot(), stats.SummaryConfig{
			Commands:    len(specs),
			Duration:    time.Since(started),
			MetricsAddr: cfg.MetricsAddr,
		}))
	}

	if joinErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", joinErr)
		return 1
	}

	exit := 0
	for _, r := range results {
		if r.ExitCode == nil || *r.ExitCode != 0 {
			exit = 1
		}
	}
	return exit
}

// buildSpecs turns "name=command line" positionals into command specs.
// Positionals without a name get cmd1, cmd2, ... in submission order.
func buildSpecs(cfg *config.Config, args []string) ([]*cmdmux.CommandSpec, error) {
	specs := make([]*cmdmux.CommandSpec, 0, len(args))
	for i, arg := range args {
		name, cmdline := splitNamedArg(arg)
		if name == "" {
			name = fmt.Sprintf("cmd%d", i+1)
		}

		spec, err := cmdmux.NewCommandString(name, cmdline)
		if err != nil {
			return nil, fmt.Errorf("command %q: %w", arg, err)
		}
		if cfg.Dir != "" {
			if err := spec.SetDir(cfg.Dir); err != nil {
				return nil, fmt.Errorf("command %q: %w", arg, err)
			}
		}
		for _, e := range cfg.Env {
			key, value, _ := strings.Cut(e, "=")
			spec.SetEnv(key, value)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// splitNamedArg splits a "name=command line" positional. The name part must
// not contain whitespace, so VAR=val prefixes inside a bare command line are
// not mistaken for names.
func splitNamedArg(arg string) (name, cmdline string) {
	before, after, found := strings.Cut(arg, "=")
	if !found || before == "" || strings.ContainsAny(before, " \t/") {
		return "", arg
	}
	return before, after
}

// newObserver feeds rendered messages into the stats aggregator and, when
// metrics are enabled, the Prometheus collector. It runs on the facade's
// render goroutine, so the per-command start times need no locking.
func newObserver(agg *stats.Aggregator, collector *metrics.Collector) func(cmdmux.OutputMessage) {
	startedAt := make(map[string]time.Time)

	return func(msg cmdmux.OutputMessage) {
		switch p := msg.Payload.(type) {
		case cmdmux.StartPayload:
			_, restart := startedAt[msg.Name]
			startedAt[msg.Name] = time.Now()
			agg.RecordStart(restart)
			if collector != nil {
				collector.CommandStarted(restart)
			}
		case cmdmux.DonePayload:
			uptime := time.Since(startedAt[msg.Name])
			agg.RecordExit(p.ExitCode, uptime)
			if collector != nil {
				collector.CommandExited(p.ExitCode)
			}
		case cmdmux.StdoutPayload:
			if collector != nil {
				collector.OutputLine("stdout", len(p.Line))
			}
		case cmdmux.StderrPayload:
			if collector != nil {
				collector.OutputLine("stderr", len(p.Line))
			}
		case cmdmux.ErrorPayload:
			if collector != nil {
				collector.RuntimeError()
			}
		}
	}
}

// policyFromString maps the validated -restart flag to a policy.
func policyFromString(s string) cmdmux.RestartPolicy {
	switch s {
	case "restart":
		return cmdmux.RestartOnFailure
	case "kill":
		return cmdmux.KillGroupOnFailure
	default:
		return cmdmux.Continue
	}
}
