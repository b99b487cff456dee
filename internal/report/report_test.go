package report

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/tusharlock10/sentinel-adbg/antitamper"
	"github.com/tusharlock10/sentinel-adbg/internal/config"
)

var sample = []antitamper.Result{
	{Probe: antitamper.ProbeEnvironment},
	{Probe: antitamper.ProbeFingerprint, Detected: true},
	{Probe: antitamper.ProbeTrace, Skipped: true},
}

func TestNew(t *testing.T) {
	r := New(sample)
	assert.True(t, r.Detected)
	assert.NotEmpty(t, r.ID)
	require.Len(t, r.Probes, 3)
	assert.Equal(t, StatusClean, r.Probes[0].Status)
	assert.Equal(t, StatusDetected, r.Probes[1].Status)
	assert.Equal(t, StatusSkipped, r.Probes[2].Status)
	assert.Equal(t, antitamper.Description(antitamper.ProbeTrace), r.Probes[2].Description)

	assert.False(t, New(sample[:1]).Detected)
}

func TestWrite_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(sample).Write(&buf, config.FormatJSON))

	var got Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.True(t, got.Detected)
	assert.Len(t, got.Probes, 3)
}

func TestWrite_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(sample).Write(&buf, config.FormatYAML))

	var got map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, true, got["detected"])
	assert.Len(t, got["probes"], 3)
}

func TestWrite_Table(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(sample).Write(&buf, config.FormatTable))

	out := buf.String()
	assert.Contains(t, out, antitamper.ProbeFingerprint)
	assert.Contains(t, out, StatusDetected)
	assert.Contains(t, out, StatusSkipped)
	assert.Contains(t, out, "tracing activity detected")
}

func TestWrite_UnknownFormat(t *testing.T) {
	assert.Error(t, New(sample).Write(&bytes.Buffer{}, "xml"))
}
