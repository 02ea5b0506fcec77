package cmdmux

import "sync"

// KillBarrier is a one-shot broadcast gate used to cancel a whole command
// group. The gate starts closed; the first call to InitiateKill opens it
// for every past and future waiter, and it never closes again.
//
// Every worker's watcher goroutine parks on the gate. Any one worker (or an
// external caller via Handle.Kill) can open it, at which point all watchers
// force-terminate their children.
type KillBarrier struct {
	once sync.Once
	ch   chan struct{}
}

// NewKillBarrier returns a closed gate.
func NewKillBarrier() *KillBarrier {
	return &KillBarrier{ch: make(chan struct{})}
}

// Wait blocks the calling goroutine until the gate has been opened. If
// InitiateKill already ran, Wait returns immediately.
func (b *KillBarrier) Wait() { <-b.ch }

// Done returns a channel that is closed once the gate opens, for use in
// select statements.
func (b *KillBarrier) Done() <-chan struct{} { return b.ch }

// InitiateKill opens the gate. It is safe to call from any goroutine, any
// number of times; every call after the first is a no-op.
func (b *KillBarrier) InitiateKill() {
	b.once.Do(func() { close(b.ch) })
}
