//go:build !unix

package antitamper

import (
	"syscall"
	"time"
)

// Signal probe defaults.
const (
	DefaultTrapSignal = syscall.Signal(5)
	DefaultSignalWait = 200 * time.Millisecond
)

// SignalProbe is unsupported outside Unix and never detects anything.
type SignalProbe struct {
	Signal syscall.Signal
	Wait   time.Duration
}

// Detect always reports false.
func (p SignalProbe) Detect() bool {
	return false
}
