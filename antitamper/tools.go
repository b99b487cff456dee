package antitamper

import "strings"

// knownTools are substrings of executable names used by common debuggers,
// tracers and memory checkers.
var knownTools = [...]string{
	"gdb",
	"r2",
	"radare2",
	"ltrace",
	"strace",
	"valgrind",
}

// KnownTools returns a copy of the built-in tool name set.
func KnownTools() []string {
	return append([]string(nil), knownTools[:]...)
}

// ToolSet is a set of substrings identifying debugging tool executables.
// Matching is case-sensitive and has no wildcards.
type ToolSet []string

// Match reports whether name contains any member of the set.
func (s ToolSet) Match(name string) bool {
	if name == "" {
		return false
	}
	for _, tool := range s {
		if tool != "" && strings.Contains(name, tool) {
			return true
		}
	}
	return false
}

// MatchTool reports whether the final path component of s contains a known
// tool name.
func MatchTool(s string) bool {
	return ToolSet(knownTools[:]).Match(lastComponent(s))
}

// lastComponent returns everything after the last '/' in s, or s itself.
// Unlike path.Base it does not trim trailing slashes or clean the input.
func lastComponent(s string) string {
	if i := strings.LastIndexByte(s, '/'); i >= 0 {
		return s[i+1:]
	}
	return s
}
