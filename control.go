package cmdmux

import (
	"os"
	"sync"
)

// pidSlot holds the OS process id of a command's current spawn attempt. It
// is overwritten on every respawn and cleared once the attempt's process
// has been reaped.
type pidSlot struct {
	name string

	mu   sync.Mutex
	pid  int
	live bool
}

func (s *pidSlot) set(pid int) {
	s.mu.Lock()
	s.pid = pid
	s.live = true
	s.mu.Unlock()
}

func (s *pidSlot) clear() {
	s.mu.Lock()
	s.live = false
	s.mu.Unlock()
}

func (s *pidSlot) get() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pid, s.live
}

// pidRegistry is the supervisor-owned registry of per-command pid slots,
// shared by reference with the ControlHandle. Slots are in submission
// order.
type pidRegistry struct {
	slots []*pidSlot
}

func newPIDRegistry(specs []*CommandSpec) *pidRegistry {
	r := &pidRegistry{slots: make([]*pidSlot, len(specs))}
	for i, spec := range specs {
		r.slots[i] = &pidSlot{name: spec.Name}
	}
	return r
}

func (r *pidRegistry) lookup(name string) *pidSlot {
	for _, s := range r.slots {
		if s.name == name {
			return s
		}
	}
	return nil
}

// ControlHandle is the post-launch surface for signaling or killing
// specific or all running children. Obtain one from Handle.Control.
type ControlHandle struct {
	pids    *pidRegistry
	barrier *KillBarrier
}

// SignalOne delivers sig to the named command's current process. It returns
// a NotFoundError when the command was never submitted or has no live
// process at this instant, or the operating system's delivery error.
//
// Signal delivery is platform-dependent; on platforms without arbitrary
// signal delivery it degrades to termination.
func (c *ControlHandle) SignalOne(name string, sig os.Signal) error {
	slot := c.pids.lookup(name)
	if slot == nil {
		return &NotFoundError{Name: name}
	}
	pid, ok := slot.get()
	if !ok {
		return &NotFoundError{Name: name}
	}
	return signalPID(pid, sig)
}

// SignalAll attempts delivery to every live child. It is best effort: a
// failed delivery is swallowed and does not prevent attempting the rest.
func (c *ControlHandle) SignalAll(sig os.Signal) {
	for _, slot := range c.pids.slots {
		if pid, ok := slot.get(); ok {
			_ = signalPID(pid, sig)
		}
	}
}

// KillAll force-terminates the whole group, equivalent to Handle.Kill.
func (c *ControlHandle) KillAll() {
	c.barrier.InitiateKill()
}

func signalPID(pid int, sig os.Signal) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return proc.Signal(sig)
}
