package antitamper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprintProbe_Environment(t *testing.T) {
	tests := []struct {
		name string
		env  mapEnv
		want bool
	}{
		{"clean", mapEnv{"_": "/usr/bin/env"}, false},
		{"launched by gdb", mapEnv{"_": "/usr/bin/gdb"}, true},
		{"bare gdb", mapEnv{"_": "gdb"}, true},
		{"gdb prefix is not gdb", mapEnv{"_": "/usr/bin/gdbserver"}, false},
		{"LINES exported", mapEnv{"LINES": "24"}, true},
		{"COLUMNS exported", mapEnv{"COLUMNS": "80"}, true},
		{"empty COLUMNS still counts", mapEnv{"COLUMNS": ""}, true},
		{"nothing set", mapEnv{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// An empty procfs tree keeps the descriptor check inconclusive.
			p := FingerprintProbe{Env: tt.env, ProcMount: t.TempDir()}
			assert.Equal(t, tt.want, p.Detect())
		})
	}
}

func TestFingerprintProbe_Baseline(t *testing.T) {
	assert.Equal(t, DefaultFDBaseline, FingerprintProbe{}.baseline())
	assert.Equal(t, 7, FingerprintProbe{FDBaseline: 7}.baseline())
}
