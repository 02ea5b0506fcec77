// Package cmdmux runs a named set of independent child processes
// concurrently, multiplexes their stdout/stderr into a single
// ordered-per-stream event feed, and tracks each process's exit outcome.
//
// There are three ways to consume a running group:
//
//   - Channel API: Runner.Execute returns a Handle whose Messages channel
//     carries every OutputMessage. The caller processes output itself.
//   - Console API: Runner.ExecuteConsole prints every message to standard
//     out with a colored per-command prefix.
//   - Writer API: Runner.ExecuteWriter prints every message, uncolored, to
//     an arbitrary io.Writer such as a log file.
//
// A group is launched with a shared restart policy. Continue lets a failed
// command die on its own, RestartOnFailure respawns it until it succeeds,
// and KillGroupOnFailure tears the whole group down as soon as any command
// fails. Independently of the policy, Handle.Kill force-terminates every
// child, and Handle.Control exposes per-command signal delivery.
//
//	build, _ := cmdmux.NewCommandString("build", "make all")
//	serve, _ := cmdmux.NewCommandString("serve", "python3 -m http.server")
//
//	h, err := cmdmux.NewRunner().
//		Command(build, serve).
//		Restart(cmdmux.KillGroupOnFailure).
//		ExecuteConsole()
//	if err != nil {
//		log.Fatal(err)
//	}
//	results, err := h.Join()
//
// Within one command's stdout or stderr, line order is preserved. No order
// is guaranteed between the two streams of one command, nor between
// commands; the feed is an interleaved log keyed by command name.
package cmdmux
