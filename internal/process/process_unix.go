//go:build unix

package process

import (
	"syscall"
	"time"
)

// Stop sends SIGTERM and waits up to the stop grace period for the process to
// exit. If it has not exited by then, SIGKILL is sent unconditionally; SIGKILL
// also ends a child held in a ptrace stop.
func (m *Manager) Stop() error {
	m.Signal(syscall.SIGTERM)

	select {
	case <-m.exited:
		return m.exitErr
	case <-time.After(m.stopGrace()):
		m.Signal(syscall.SIGKILL)
		<-m.exited
		return m.exitErr
	}
}
