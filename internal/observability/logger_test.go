package observability

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "info", "json")

	logger.Debug("hidden")
	logger.Info("history cache hit", "area_id", "54511")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "history cache hit", line["msg"])
	assert.Equal(t, "54511", line["area_id"])
}

func TestNewLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "debug", "TEXT")

	logger.Debug("visible")
	assert.Contains(t, buf.String(), "msg=visible")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("bogus"))
}

func TestNewMetricsForTesting_Independent(t *testing.T) {
	a := NewMetricsForTesting()
	b := NewMetricsForTesting()

	a.CacheLookups.WithLabelValues("hit").Inc()

	assert.InDelta(t, 1, testutil.ToFloat64(a.CacheLookups.WithLabelValues("hit")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(b.CacheLookups.WithLabelValues("hit")), 0)
}

func TestNewUnregisteredMetrics_StaysOffDefaultRegistry(t *testing.T) {
	m := NewUnregisteredMetrics()
	m.UpstreamRequests.WithLabelValues("success").Inc()
	m.RelayRequests.WithLabelValues("2xx").Inc()

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, f := range families {
		assert.NotContains(t, f.GetName(), "weather_history_")
	}

	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(m.UpstreamRequests))
	assert.Equal(t, 1, testutil.CollectAndCount(m.UpstreamRequests))
}
