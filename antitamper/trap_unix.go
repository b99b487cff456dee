//go:build unix

package antitamper

import (
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// Signal probe defaults.
const (
	DefaultTrapSignal = unix.SIGTRAP
	DefaultSignalWait = 200 * time.Millisecond
)

// SignalProbe detects a tracer that swallows a trap signal before the process
// gets to handle it.
type SignalProbe struct {
	// Signal is raised at the process. Defaults to SIGTRAP.
	Signal syscall.Signal
	// Wait bounds how long the runtime may take to deliver the signal to our
	// handler. Defaults to DefaultSignalWait.
	Wait time.Duration
}

// trapGuard holds a temporary subscription to a signal. Releasing it hands the
// signal back to whatever disposition was in place before: other subscribers
// keep theirs, and with none left the runtime default applies again.
type trapGuard struct {
	ch chan os.Signal
}

func acquireTrap(sig os.Signal) *trapGuard {
	g := &trapGuard{ch: make(chan os.Signal, 1)}
	signal.Notify(g.ch, sig)
	return g
}

func (g *trapGuard) release() {
	signal.Stop(g.ch)
}

// Detect raises the trap signal and reports whether it never reached the
// handler installed for the duration of the call. An ignored signal is left
// alone and reported as not detected.
func (p SignalProbe) Detect() bool {
	sig := p.Signal
	if sig == 0 {
		sig = DefaultTrapSignal
	}
	wait := p.Wait
	if wait <= 0 {
		wait = DefaultSignalWait
	}
	if signal.Ignored(sig) {
		return false
	}

	probeMu.Lock()
	defer probeMu.Unlock()

	g := acquireTrap(sig)
	defer g.release()

	var pending atomic.Bool
	pending.Store(true)
	if err := unix.Kill(os.Getpid(), sig); err != nil {
		return false
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-g.ch:
		pending.Store(false)
	case <-timer.C:
	}

	if pending.Load() {
		Log().Debug("signal probe: trap signal was intercepted", "signal", sig, "wait", wait)
		return true
	}
	return false
}
