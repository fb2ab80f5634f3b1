package observability

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "info", "json")

	logger.Debug("hidden")
	logger.Warn("skipping line", "file", "data_tn.tdv", "line", 7)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "skipping line", entry["msg"])
	assert.Equal(t, "data_tn.tdv", entry["file"])
	assert.InDelta(t, 7.0, entry["line"], 0)
}

func TestNewLogger_TextDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "debug", "text")

	logger.Debug("opening source", "file", "data_wa.tdv")

	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "file=data_wa.tdv")
}

func TestNewLogger_ErrorLevelFiltersWarn(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "error", "text")

	logger.Warn("ignored")
	assert.Empty(t, buf.String())
}

func TestMetricsForTesting_Independent(t *testing.T) {
	a := NewMetricsForTesting()
	b := NewMetricsForTesting()

	a.LinesRead.Inc()
	a.LinesSkipped.WithLabelValues(ReasonMalformed).Inc()

	assert.InDelta(t, 1.0, testutil.ToFloat64(a.LinesRead), 0)
	assert.InDelta(t, 0.0, testutil.ToFloat64(b.LinesRead), 0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(a.LinesSkipped.WithLabelValues(ReasonMalformed)), 0)
}

func TestWriteTextfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "climate.prom")
	require.NoError(t, WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "go_goroutines")
}
