package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"syscall"
	"time"

	"github.com/moby/sys/signal"
	"github.com/prometheus/procfs"
)

// Report formats accepted by the CLI.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

var formats = []string{FormatTable, FormatJSON, FormatYAML}

type Config struct {
	Probes     []string // empty selects every probe
	Exhaustive bool     // run every probe instead of stopping at the first detection
	Format     string
	ProcMount  string
	TrapSignal string // signal name or number, e.g. "TRAP", "SIGTRAP", "5"
	SignalWait time.Duration

	MinInterval  time.Duration
	MaxInterval  time.Duration
	ExitOnDetect bool

	Verbose bool
}

// Validate checks the configuration against the set of known probe names.
// Fails fast on the first error.
func (c *Config) Validate(known []string) error {
	for _, name := range c.Probes {
		if !slices.Contains(known, name) {
			return fmt.Errorf("unknown probe %q (known: %v)", name, known)
		}
	}

	if !slices.Contains(formats, c.Format) {
		return fmt.Errorf("unsupported format %q (supported: %v)", c.Format, formats)
	}

	if c.ProcMount == "" {
		return errors.New("proc mount point is required")
	}
	if c.ProcMount != procfs.DefaultMountPoint {
		if _, err := os.Stat(c.ProcMount); err != nil {
			return fmt.Errorf("proc mount point not found: %w", err)
		}
	}

	if _, err := c.Signal(); err != nil {
		return err
	}
	if c.SignalWait <= 0 {
		return errors.New("signal wait must be positive")
	}

	if c.MinInterval <= 0 {
		return errors.New("minimum interval must be positive")
	}
	if c.MaxInterval < c.MinInterval {
		return fmt.Errorf("maximum interval %s is below minimum interval %s", c.MaxInterval, c.MinInterval)
	}

	return nil
}

// Signal parses TrapSignal.
func (c *Config) Signal() (syscall.Signal, error) {
	sig, err := signal.ParseSignal(c.TrapSignal)
	if err != nil {
		return 0, fmt.Errorf("invalid trap signal: %w", err)
	}
	return sig, nil
}
