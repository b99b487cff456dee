//go:build unix

package process

import (
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"
)

// DefaultStopGrace is how long Stop waits after SIGTERM before sending SIGKILL.
const DefaultStopGrace = 10 * time.Second

// Manager monitors the lifecycle of a helper child process.
type Manager struct {
	cmd     *exec.Cmd
	exited  chan struct{}
	exitErr error
	mu      sync.Mutex

	// StopGrace overrides DefaultStopGrace when positive.
	StopGrace time.Duration
}

// Launch starts binaryPath as a child process with no arguments. env contains
// additional environment variables appended to the current environment. The
// child's standard streams are left unconnected.
func Launch(binaryPath string, env []string) (*Manager, error) {
	cmd := exec.Command(binaryPath)
	cmd.Env = append(os.Environ(), env...)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("launch helper: %w", err)
	}

	m := &Manager{
		cmd:    cmd,
		exited: make(chan struct{}),
	}

	go func() {
		m.exitErr = cmd.Wait()
		close(m.exited)
	}()

	return m, nil
}

// Wait blocks until the child process exits and returns its exit error (nil for exit code 0).
func (m *Manager) Wait() error {
	<-m.exited
	return m.exitErr
}

// Exited returns a channel that is closed when the process exits.
func (m *Manager) Exited() <-chan struct{} {
	return m.exited
}

// ExitCode returns the child's exit code, or -1 if it has not exited or was
// killed by a signal.
func (m *Manager) ExitCode() int {
	select {
	case <-m.exited:
		return m.cmd.ProcessState.ExitCode()
	default:
		return -1
	}
}

// WaitTimeout waits up to d for the child to exit and stops it otherwise.
// It reports whether the child exited on its own.
func (m *Manager) WaitTimeout(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-m.exited:
		return true
	case <-timer.C:
		m.Stop() //nolint:errcheck
		return false
	}
}

// Signal sends an OS signal to the child process.
func (m *Manager) Signal(sig os.Signal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cmd.Process != nil {
		m.cmd.Process.Signal(sig) //nolint:errcheck
	}
}

func (m *Manager) stopGrace() time.Duration {
	if m.StopGrace > 0 {
		return m.StopGrace
	}
	return DefaultStopGrace
}
