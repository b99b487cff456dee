//go:build unix

package process

import (
	"os"
	"os/signal"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMain intercepts test binary execution so the binary can be re-launched as a
// controlled subprocess in process lifecycle tests. Each PROCESS_TEST_HELPER value
// causes the subprocess to behave deterministically without running any tests.
func TestMain(m *testing.M) {
	switch os.Getenv("PROCESS_TEST_HELPER") {
	case "exit0":
		os.Exit(0)
	case "exit11":
		os.Exit(11)
	case "sleep":
		time.Sleep(60 * time.Second)
		os.Exit(0)
	case "stubborn":
		signal.Ignore(syscall.SIGTERM)
		time.Sleep(60 * time.Second)
		os.Exit(0)
	}
	os.Exit(m.Run())
}

// TestLaunchAndWait launches the test binary itself (configured to exit immediately)
// and verifies that Wait returns nil for a clean exit.
func TestLaunchAndWait(t *testing.T) {
	m, err := Launch(os.Args[0], []string{"PROCESS_TEST_HELPER=exit0"})
	require.NoError(t, err)
	require.NoError(t, m.Wait())
	assert.Equal(t, 0, m.ExitCode())
}

// TestExitedChannel verifies that the channel from Exited() is closed when the process exits.
func TestExitedChannel(t *testing.T) {
	m, err := Launch(os.Args[0], []string{"PROCESS_TEST_HELPER=exit0"})
	require.NoError(t, err)
	select {
	case <-m.Exited():
		// ok
	case <-time.After(5 * time.Second):
		t.Fatal("Exited() channel was not closed within 5 seconds")
	}
}

// TestExitCodePreserved verifies that a non-zero exit code is propagated.
func TestExitCodePreserved(t *testing.T) {
	m, err := Launch(os.Args[0], []string{"PROCESS_TEST_HELPER=exit11"})
	require.NoError(t, err)
	assert.Error(t, m.Wait())
	assert.Equal(t, 11, m.ExitCode())
}

func TestExitCodeBeforeExit(t *testing.T) {
	m, err := Launch(os.Args[0], []string{"PROCESS_TEST_HELPER=sleep"})
	require.NoError(t, err)
	assert.Equal(t, -1, m.ExitCode())
	m.StopGrace = time.Second
	m.Stop() //nolint:errcheck
}

// TestWaitTimeoutStops verifies a child that outlives the timeout is stopped.
func TestWaitTimeoutStops(t *testing.T) {
	m, err := Launch(os.Args[0], []string{"PROCESS_TEST_HELPER=sleep"})
	require.NoError(t, err)

	assert.False(t, m.WaitTimeout(100*time.Millisecond))
	select {
	case <-m.Exited():
	default:
		t.Fatal("child still running after WaitTimeout")
	}
	assert.Equal(t, -1, m.ExitCode(), "killed by signal")
}

// TestStopEscalates verifies SIGKILL follows when SIGTERM is ignored.
func TestStopEscalates(t *testing.T) {
	m, err := Launch(os.Args[0], []string{"PROCESS_TEST_HELPER=stubborn"})
	require.NoError(t, err)
	// Give the helper time to ignore SIGTERM.
	time.Sleep(200 * time.Millisecond)
	m.StopGrace = 500 * time.Millisecond

	done := make(chan error, 1)
	go func() { done <- m.Stop() }()
	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("Stop did not return within 15 seconds")
	}
}

func TestLaunchMissingBinary(t *testing.T) {
	_, err := Launch("/nonexistent/helper", nil)
	assert.Error(t, err)
}
