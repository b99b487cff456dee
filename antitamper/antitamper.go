// Package antitamper detects debuggers and tracers attached to, or
// interfering with, the current process.
//
// Every probe is a cheap heuristic that reports true when it sees a
// fingerprint of tracing activity and false otherwise, including when the
// information it needs cannot be read. Probes never take corrective action.
//
// Probes that touch process-wide state (the environment and the trap signal
// disposition) are serialised internally, but they still mutate that state
// briefly: code running concurrently in the same process may observe the
// sentinel environment variable or receive the raised trap signal.
//
// On Linux the trace probe re-executes the host binary with
// ANTITAMPER_SELF_TRACE=1 set, and this package's init turns that process into
// the self-trace helper and exits it. Packages the host does not order before
// this one run their init in the helper too, and a host started with that
// variable set exits during initialisation.
package antitamper

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"syscall"
	"time"
)

// probeMu serialises probes that mutate process-wide state.
var probeMu sync.Mutex

// Probe names in canonical evaluation order.
const (
	ProbeEnvironment = "environment"
	ProbeFingerprint = "fingerprint"
	ProbeAncestry    = "ancestry"
	ProbeSignal      = "signal"
	ProbeTrace       = "trace"
)

var descriptions = map[string]string{
	ProbeEnvironment: "library injection via LD_PRELOAD or a tampered environment",
	ProbeFingerprint: "interactive debugger side effects (launch command, terminal size, leaked descriptors)",
	ProbeAncestry:    "parent process is a known debugging tool",
	ProbeSignal:      "trap signal intercepted before reaching the process",
	ProbeTrace:       "tracer attached or ptrace replaced",
}

// Description returns a one-line summary of what a built-in probe looks for,
// or "" for an unknown name.
func Description(name string) string {
	return descriptions[name]
}

var (
	// ErrUnknownProbe is returned when a probe name is not registered.
	ErrUnknownProbe = errors.New("unknown probe")
	// ErrDuplicateProbe is returned when a probe name is registered twice.
	ErrDuplicateProbe = errors.New("probe already registered")
)

// ProbeFunc runs a single check and reports whether it detected anything.
type ProbeFunc func() bool

// Result is the outcome of one probe in a registry run.
type Result struct {
	Probe    string
	Detected bool
	// Skipped is set for probes not evaluated because an earlier probe
	// already detected something.
	Skipped bool
}

// Registry is an ordered set of named probes.
type Registry struct {
	mu     sync.RWMutex
	order  []string
	probes map[string]ProbeFunc
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{probes: make(map[string]ProbeFunc)}
}

// Register appends a probe. Probes run in registration order.
func (r *Registry) Register(name string, fn ProbeFunc) error {
	if name == "" {
		return errors.New("probe name is required")
	}
	if fn == nil {
		return fmt.Errorf("probe %q: nil function", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.probes[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateProbe, name)
	}
	r.order = append(r.order, name)
	r.probes[name] = fn
	return nil
}

// Names returns the registered probe names in evaluation order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// Check runs a single probe by name.
func (r *Registry) Check(name string) (bool, error) {
	r.mu.RLock()
	fn, ok := r.probes[name]
	r.mu.RUnlock()
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownProbe, name)
	}
	return fn(), nil
}

// Subset returns a registry holding only the named probes, in this
// registry's order.
func (r *Registry) Subset(names ...string) (*Registry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, name := range names {
		if _, ok := r.probes[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownProbe, name)
		}
	}
	sub := NewRegistry()
	for _, name := range r.order {
		if slices.Contains(names, name) {
			sub.order = append(sub.order, name)
			sub.probes[name] = r.probes[name]
		}
	}
	return sub, nil
}

// Run evaluates the probes in order. Unless exhaustive is set it stops at the
// first detection and marks the remaining probes as skipped, so their side
// effects do not happen.
func (r *Registry) Run(exhaustive bool) []Result {
	r.mu.RLock()
	order := slices.Clone(r.order)
	probes := make([]ProbeFunc, len(order))
	for i, name := range order {
		probes[i] = r.probes[name]
	}
	r.mu.RUnlock()

	results := make([]Result, len(order))
	detected := false
	for i, name := range order {
		results[i].Probe = name
		if detected && !exhaustive {
			results[i].Skipped = true
			continue
		}
		if probes[i]() {
			results[i].Detected = true
			detected = true
		}
	}
	return results
}

// Any reports whether any probe detects something, stopping at the first
// that does.
func (r *Registry) Any() bool {
	for _, res := range r.Run(false) {
		if res.Detected {
			return true
		}
	}
	return false
}

// Detected reports whether any result is a detection.
func Detected(results []Result) bool {
	return slices.ContainsFunc(results, func(res Result) bool { return res.Detected })
}

type options struct {
	env       Environment
	procMount string
	trap      syscall.Signal
	wait      time.Duration
	tools     ToolSet
}

// Option configures the default probe set built by New.
type Option func(*options)

// WithEnvironment sets the environment seen by the environment and
// fingerprint probes.
func WithEnvironment(env Environment) Option {
	return func(o *options) { o.env = env }
}

// WithProcMount sets the procfs mount point.
func WithProcMount(path string) Option {
	return func(o *options) { o.procMount = path }
}

// WithTrapSignal sets the signal raised by the signal probe.
func WithTrapSignal(sig syscall.Signal) Option {
	return func(o *options) { o.trap = sig }
}

// WithSignalWait sets how long the signal probe waits for delivery.
func WithSignalWait(d time.Duration) Option {
	return func(o *options) { o.wait = d }
}

// WithTools replaces the tool name set used by the ancestry probe.
func WithTools(tools ...string) Option {
	return func(o *options) { o.tools = ToolSet(slices.Clone(tools)) }
}

// New returns a registry with the built-in probes in canonical order.
func New(opts ...Option) *Registry {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	r := NewRegistry()
	// Names are distinct constants; registration cannot fail.
	_ = r.Register(ProbeEnvironment, EnvironmentProbe{Env: o.env}.Detect)
	_ = r.Register(ProbeFingerprint, FingerprintProbe{Env: o.env, ProcMount: o.procMount}.Detect)
	_ = r.Register(ProbeAncestry, AncestryProbe{ProcMount: o.procMount, Tools: o.tools}.Detect)
	_ = r.Register(ProbeSignal, SignalProbe{Signal: o.trap, Wait: o.wait}.Detect)
	_ = r.Register(ProbeTrace, TraceProbe{ProcMount: o.procMount}.Detect)
	return r
}

// CheckEnvironment runs the environment probe against the real environment.
func CheckEnvironment() bool { return EnvironmentProbe{}.Detect() }

// CheckFingerprint runs the debugger fingerprint probe.
func CheckFingerprint() bool { return FingerprintProbe{}.Detect() }

// CheckAncestry runs the parent process probe.
func CheckAncestry() bool { return AncestryProbe{}.Detect() }

// CheckSignal runs the trap signal probe.
func CheckSignal() bool { return SignalProbe{}.Detect() }

// CheckTrace runs the ptrace probe.
func CheckTrace() bool { return TraceProbe{}.Detect() }

// CheckAll runs the built-in probes in canonical order and reports whether
// any of them detected something.
func CheckAll() bool { return New().Any() }
