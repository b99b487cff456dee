package antitamper

import "sync/atomic"

// traceDetected latches a positive result of the kernel-backed trace probe.
// Tracing cannot be released from the inside, so once seen it stays seen.
var traceDetected atomic.Bool

// TraceProbe detects an attached tracer, or a ptrace implementation that has
// been replaced, by asking the kernel to trace the process.
type TraceProbe struct {
	// ProcMount is the procfs mount point. Defaults to /proc.
	ProcMount string
	// SelfTrace overrides how the two consecutive self-trace requests are
	// issued and returns the outcome of each. A nil second error means the
	// second request succeeded. A probe with a custom SelfTrace does not share
	// the process-wide latch.
	SelfTrace func() (first, second error)
}

// Detect reports whether the process is traced. For the kernel-backed probe a
// positive answer is sticky for the rest of the process lifetime.
func (p TraceProbe) Detect() bool {
	if p.SelfTrace != nil {
		return p.detect()
	}
	if traceDetected.Load() {
		return true
	}
	if p.detect() {
		traceDetected.Store(true)
		return true
	}
	return false
}

// judgeSelfTrace interprets two consecutive self-trace requests. The first
// fails when a tracer is already attached; a genuine second request fails
// because the first one succeeded.
func judgeSelfTrace(first, second error) bool {
	if first != nil {
		Log().Debug("trace probe: self-trace refused", "error", first)
		return true
	}
	if second == nil {
		Log().Debug("trace probe: repeated self-trace succeeded")
		return true
	}
	return false
}
