package antitamper

import (
	"os"

	"github.com/mitchellh/go-ps"
	"github.com/prometheus/procfs"
)

func procMount(mount string) string {
	if mount == "" {
		return procfs.DefaultMountPoint
	}
	return mount
}

// AncestryProbe detects a debugging tool running as the parent process.
type AncestryProbe struct {
	// ProcMount is the procfs mount point. Defaults to /proc.
	ProcMount string
	// Tools overrides the known tool name set.
	Tools ToolSet
	// ParentPID overrides os.Getppid.
	ParentPID func() int
}

// Detect reports whether the parent's process name, or failing that the first
// word of its command line, names a known tool. Without procfs the process
// table is consulted instead. Lookup failures report false.
func (p AncestryProbe) Detect() bool {
	tools := p.Tools
	if tools == nil {
		tools = ToolSet(knownTools[:])
	}
	ppid := os.Getppid()
	if p.ParentPID != nil {
		ppid = p.ParentPID()
	}
	if ppid <= 0 {
		return false
	}

	fs, err := procfs.NewFS(procMount(p.ProcMount))
	if err != nil {
		return p.detectProcessTable(ppid, tools)
	}
	parent, err := fs.Proc(ppid)
	if err != nil {
		return false
	}

	if status, err := parent.NewStatus(); err == nil {
		if name := lastComponent(status.Name); tools.Match(name) {
			Log().Debug("ancestry probe: parent status names a known tool", "ppid", ppid, "name", name)
			return true
		}
	}

	args, err := parent.CmdLine()
	if err != nil || len(args) == 0 {
		return false
	}
	if name := lastComponent(args[0]); tools.Match(name) {
		Log().Debug("ancestry probe: parent cmdline names a known tool", "ppid", ppid, "name", name)
		return true
	}
	return false
}

func (p AncestryProbe) detectProcessTable(ppid int, tools ToolSet) bool {
	parent, err := ps.FindProcess(ppid)
	if err != nil || parent == nil {
		return false
	}
	if name := lastComponent(parent.Executable()); tools.Match(name) {
		Log().Debug("ancestry probe: parent process names a known tool", "ppid", ppid, "name", name)
		return true
	}
	return false
}
