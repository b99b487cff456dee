package antitamper

import (
	"os"

	"github.com/google/uuid"
)

// PreloadVar is the loader variable used to inject shared libraries.
const PreloadVar = "LD_PRELOAD"

// Environment is the process environment as seen by the probes.
// Tests substitute it to simulate tampered getenv/setenv implementations.
type Environment interface {
	LookupEnv(key string) (string, bool)
	Setenv(key, value string) error
	Unsetenv(key string) error
}

// OSEnvironment is the real process environment.
type OSEnvironment struct{}

func (OSEnvironment) LookupEnv(key string) (string, bool) { return os.LookupEnv(key) }
func (OSEnvironment) Setenv(key, value string) error      { return os.Setenv(key, value) }
func (OSEnvironment) Unsetenv(key string) error           { return os.Unsetenv(key) }

// EnvironmentProbe detects library injection through PreloadVar and
// environment accessors that do not return what was stored.
type EnvironmentProbe struct {
	Env Environment
	// Sentinel produces the value written during the round-trip check.
	// Defaults to a random UUID.
	Sentinel func() string
}

// Detect reports whether PreloadVar is already present, or whether a value
// written to it does not read back unchanged. A pre-existing PreloadVar is
// left as it is; the sentinel is always removed before returning.
func (p EnvironmentProbe) Detect() bool {
	env := p.Env
	if env == nil {
		env = OSEnvironment{}
	}

	probeMu.Lock()
	defer probeMu.Unlock()

	if _, ok := env.LookupEnv(PreloadVar); ok {
		Log().Debug("environment probe: preload variable is set", "var", PreloadVar)
		return true
	}

	want := uuid.NewString()
	if p.Sentinel != nil {
		want = p.Sentinel()
	}
	if err := env.Setenv(PreloadVar, want); err != nil {
		Log().Debug("environment probe: cannot set sentinel", "error", err)
		return false
	}
	defer env.Unsetenv(PreloadVar) //nolint:errcheck

	if got, ok := env.LookupEnv(PreloadVar); !ok || got != want {
		Log().Debug("environment probe: sentinel did not read back", "var", PreloadVar)
		return true
	}
	return false
}
