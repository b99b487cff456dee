package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/tusharlock10/sentinel-adbg/antitamper"
	"github.com/tusharlock10/sentinel-adbg/internal/config"
)

// Status values of a probe entry.
const (
	StatusDetected = "DETECTED"
	StatusClean    = "CLEAN"
	StatusSkipped  = "SKIPPED"
)

// Entry is the outcome of one probe.
type Entry struct {
	Probe       string `json:"probe" yaml:"probe"`
	Status      string `json:"status" yaml:"status"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Report is the outcome of one `adbg check` run.
type Report struct {
	ID        string    `json:"id" yaml:"id"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	PID       int       `json:"pid" yaml:"pid"`
	PPID      int       `json:"ppid" yaml:"ppid"`
	Detected  bool      `json:"detected" yaml:"detected"`
	Probes    []Entry   `json:"probes" yaml:"probes"`
}

// New builds a report from registry results.
func New(results []antitamper.Result) *Report {
	r := &Report{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		PID:       os.Getpid(),
		PPID:      os.Getppid(),
		Detected:  antitamper.Detected(results),
		Probes:    make([]Entry, 0, len(results)),
	}
	for _, res := range results {
		status := StatusClean
		switch {
		case res.Skipped:
			status = StatusSkipped
		case res.Detected:
			status = StatusDetected
		}
		r.Probes = append(r.Probes, Entry{
			Probe:       res.Probe,
			Status:      status,
			Description: antitamper.Description(res.Probe),
		})
	}
	return r
}

// Write renders the report to w in the given format.
func (r *Report) Write(w io.Writer, format string) error {
	switch format {
	case config.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case config.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	case config.FormatTable:
		return r.writeTable(w)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

func (r *Report) writeTable(w io.Writer) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Probe", "Status", "Checks for"})

	rows := make([][]string, 0, len(r.Probes))
	for _, e := range r.Probes {
		rows = append(rows, []string{e.Probe, e.Status, e.Description})
	}
	if err := table.Bulk(rows); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	verdict := "no tracing activity detected"
	if r.Detected {
		verdict = "tracing activity detected"
	}
	_, err := fmt.Fprintf(w, "%s (pid %d, ppid %d)\n", verdict, r.PID, r.PPID)
	return err
}
