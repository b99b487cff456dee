package antitamper

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"
)

// Default bounds of the randomised interval between monitor checks.
const (
	DefaultMinInterval = 5 * time.Second
	DefaultMaxInterval = 10 * time.Second
)

// Monitor runs a registry's probes periodically and latches the first
// detection. It only reports; reacting is up to OnDetect.
type Monitor struct {
	registry *Registry

	// OnDetect is called once, from the monitoring goroutine, on the first
	// detection.
	OnDetect func(results []Result)
	// MinInterval and MaxInterval bound the random delay between checks.
	MinInterval time.Duration
	MaxInterval time.Duration

	detected   atomic.Bool
	mu         sync.Mutex
	detectedAt time.Time
	results    []Result
}

// NewMonitor creates a Monitor over r.
func NewMonitor(r *Registry) *Monitor {
	return &Monitor{
		registry:    r,
		MinInterval: DefaultMinInterval,
		MaxInterval: DefaultMaxInterval,
	}
}

// Start runs the monitoring loop. It should be called in a goroutine.
// Returns when ctx is cancelled.
func (m *Monitor) Start(ctx context.Context) {
	// Check immediately at startup before entering the loop.
	m.check()

	for {
		timer := time.NewTimer(m.nextInterval())
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			m.check()
		}
	}
}

// IsCompromised reports whether any check has detected something.
func (m *Monitor) IsCompromised() bool {
	return m.detected.Load()
}

// DetectedAt returns the time of the first detection, or the zero time.
func (m *Monitor) DetectedAt() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.detectedAt
}

// Results returns the probe results of the first detecting check.
func (m *Monitor) Results() []Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Result(nil), m.results...)
}

func (m *Monitor) check() {
	if m.detected.Load() {
		return
	}
	results := m.registry.Run(false)
	if !Detected(results) {
		return
	}
	if m.detected.CompareAndSwap(false, true) {
		m.mu.Lock()
		m.detectedAt = time.Now()
		m.results = results
		m.mu.Unlock()
		Log().Warn("tracing activity detected", "probes", detectedNames(results))
		if m.OnDetect != nil {
			m.OnDetect(results)
		}
	}
}

// nextInterval picks a random delay in [MinInterval, MaxInterval] so checks
// are not evenly spaced.
func (m *Monitor) nextInterval() time.Duration {
	lo, hi := m.MinInterval, m.MaxInterval
	if lo <= 0 {
		lo = DefaultMinInterval
	}
	if hi < lo {
		hi = lo
	}
	if hi == lo {
		return lo
	}
	return lo + time.Duration(rand.Int63n(int64(hi-lo)+1))
}

func detectedNames(results []Result) []string {
	var names []string
	for _, res := range results {
		if res.Detected {
			names = append(names, res.Probe)
		}
	}
	return names
}
