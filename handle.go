package cmdmux

import "sync"

// Handle controls a launched command group: the live message stream, the
// blocking join surface, and the group kill switch.
type Handle struct {
	queue   *msgQueue
	barrier *KillBarrier
	pids    *pidRegistry
	done    chan struct{}

	// results is written by worker goroutines at distinct indices and read
	// only after done is closed.
	results []ExitResult

	errMu sync.Mutex
	err   error

	// render is set by the console and writer facades so Join also waits
	// for the last message to be printed.
	render *sync.WaitGroup
}

// Messages returns the live output stream. The channel stays open until
// every producer (every worker and every reader goroutine) has finished;
// it may be drained during the run or after Join returns, and messages are
// never dropped in between.
func (h *Handle) Messages() <-chan OutputMessage {
	return h.queue.out
}

// Join blocks until every command has produced its terminal result and
// returns the results in submission order, one per submitted command. A
// panic inside any worker goroutine is recovered and reported as the
// returned error rather than crashing the process.
func (h *Handle) Join() ([]ExitResult, error) {
	<-h.done
	if h.render != nil {
		h.render.Wait()
	}
	h.errMu.Lock()
	err := h.err
	h.errMu.Unlock()
	return h.results, err
}

// Kill force-terminates every child in the group without waiting for them
// to complete. It is idempotent and a safe no-op when nothing is running.
//
// Kill alone does not end a group running under RestartOnFailure: a killed
// child exits without a success status, so its worker respawns it and the
// replacement is killed in turn, indefinitely. Under Continue and
// KillGroupOnFailure the group terminates and Join returns.
func (h *Handle) Kill() {
	h.barrier.InitiateKill()
}

// Control returns the signal and kill surface for the running group.
func (h *Handle) Control() *ControlHandle {
	return &ControlHandle{pids: h.pids, barrier: h.barrier}
}
