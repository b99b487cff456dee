//go:build linux

package antitamper

import (
	"github.com/prometheus/procfs"
	"golang.org/x/sys/unix"
)

// descriptorLeak opens the filesystem root and checks whether the descriptor
// it got is above the baseline while some other descriptor refers to this
// process's own executable. The Go runtime keeps descriptors of its own, so
// the number alone says nothing; a tracer that opened the binary before
// starting it leaves those handles behind.
func (p FingerprintProbe) descriptorLeak() bool {
	fd, err := unix.Open("/", unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return false
	}
	defer unix.Close(fd) //nolint:errcheck

	if fd <= p.baseline() {
		return false
	}

	fs, err := procfs.NewFS(procMount(p.ProcMount))
	if err != nil {
		return false
	}
	self, err := fs.Self()
	if err != nil {
		return false
	}
	if n := executableHandles(self); n > 0 {
		Log().Debug("fingerprint probe: descriptors on own executable", "fd", fd, "count", n)
		return true
	}
	return false
}

// executableHandles counts the open descriptors of proc that point at its
// executable.
func executableHandles(proc procfs.Proc) int {
	exe, err := proc.Executable()
	if err != nil || exe == "" {
		return 0
	}
	targets, err := proc.FileDescriptorTargets()
	if err != nil {
		return 0
	}
	var n int
	for _, t := range targets {
		if t == exe {
			n++
		}
	}
	return n
}
