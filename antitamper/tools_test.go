package antitamper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchTool(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"bare gdb", "gdb", true},
		{"absolute strace", "/usr/bin/strace", true},
		{"valgrind", "valgrind", true},
		{"radare2", "/opt/radare2/bin/radare2", true},
		{"ltrace", "ltrace", true},
		{"unrelated shell", "bash", false},
		{"unrelated absolute", "/bin/bash", false},
		{"empty", "", false},
		{"tool in directory only", "/usr/gdb/bin/bash", false},
		{"case sensitive", "GDB", false},
		{"trailing slash", "/usr/bin/gdb/", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchTool(tt.in))
		})
	}
}

func TestToolSetMatch(t *testing.T) {
	set := ToolSet{"lldb", ""}
	assert.True(t, set.Match("lldb-server"))
	assert.False(t, set.Match("gdb"))
	assert.False(t, set.Match(""))
	assert.False(t, ToolSet(nil).Match("gdb"))
}

func TestKnownToolsIsCopy(t *testing.T) {
	tools := KnownTools()
	assert.Contains(t, tools, "gdb")
	tools[0] = "bash"
	assert.True(t, MatchTool("gdb"))
	assert.False(t, MatchTool("bash"))
}

func TestLastComponent(t *testing.T) {
	assert.Equal(t, "gdb", lastComponent("/usr/bin/gdb"))
	assert.Equal(t, "gdb", lastComponent("gdb"))
	assert.Equal(t, "", lastComponent("/usr/bin/"))
}
