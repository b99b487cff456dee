package antitamper

// Debugger side effects looked for by FingerprintProbe.
const (
	// CommandVar is the shell variable holding the path of the command that
	// started the current process.
	CommandVar = "_"
	// DebuggerName is matched exactly against the last component of CommandVar.
	DebuggerName = "gdb"
	// DefaultFDBaseline is the highest descriptor number a freshly started
	// process is expected to hand out for its first open.
	DefaultFDBaseline = 3
)

// gdb exports the terminal geometry to the program it runs.
var terminalVars = [...]string{"LINES", "COLUMNS"}

// FingerprintProbe detects an interactive debugger from the side effects it
// leaves in the debugged process.
type FingerprintProbe struct {
	Env Environment
	// ProcMount is the procfs mount point used by the descriptor check.
	ProcMount string
	// FDBaseline overrides DefaultFDBaseline when positive.
	FDBaseline int
}

// Detect reports whether the debugger was named as the launching command,
// whether terminal geometry variables are exported, or whether descriptors on
// the executable were leaked into the process.
func (p FingerprintProbe) Detect() bool {
	env := p.Env
	if env == nil {
		env = OSEnvironment{}
	}

	if cmd, ok := env.LookupEnv(CommandVar); ok && lastComponent(cmd) == DebuggerName {
		Log().Debug("fingerprint probe: launched by debugger", "var", CommandVar, "value", cmd)
		return true
	}

	for _, v := range terminalVars {
		if _, ok := env.LookupEnv(v); ok {
			Log().Debug("fingerprint probe: terminal geometry exported", "var", v)
			return true
		}
	}

	return p.descriptorLeak()
}

func (p FingerprintProbe) baseline() int {
	if p.FDBaseline > 0 {
		return p.FDBaseline
	}
	return DefaultFDBaseline
}
