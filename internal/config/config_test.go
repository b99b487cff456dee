package config

import (
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var known = []string{"environment", "fingerprint", "ancestry", "signal", "trace"}

func validConfig() *Config {
	return &Config{
		Format:      FormatTable,
		ProcMount:   "/proc",
		TrapSignal:  "TRAP",
		SignalWait:  200 * time.Millisecond,
		MinInterval: 5 * time.Second,
		MaxInterval: 10 * time.Second,
	}
}

func TestValidate_OK(t *testing.T) {
	cfg := validConfig()
	cfg.Probes = []string{"trace", "signal"}
	assert.NoError(t, cfg.Validate(known))
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown probe", func(c *Config) { c.Probes = []string{"ptrace"} }},
		{"unknown format", func(c *Config) { c.Format = "xml" }},
		{"empty proc mount", func(c *Config) { c.ProcMount = "" }},
		{"missing proc mount", func(c *Config) { c.ProcMount = filepath.Join("/nonexistent", "no-such-proc") }},
		{"bad signal", func(c *Config) { c.TrapSignal = "NOPE" }},
		{"zero wait", func(c *Config) { c.SignalWait = 0 }},
		{"zero interval", func(c *Config) { c.MinInterval = 0 }},
		{"inverted interval", func(c *Config) { c.MaxInterval = time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate(known))
		})
	}
}

func TestValidate_CustomProcMount(t *testing.T) {
	cfg := validConfig()
	cfg.ProcMount = t.TempDir()
	assert.NoError(t, cfg.Validate(known))
}

func TestSignal(t *testing.T) {
	for _, in := range []string{"TRAP", "SIGTRAP", "trap", "5"} {
		cfg := validConfig()
		cfg.TrapSignal = in
		sig, err := cfg.Signal()
		require.NoError(t, err, in)
		assert.Equal(t, syscall.Signal(5), sig, in)
	}
}
