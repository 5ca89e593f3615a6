package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	m := New()

	m.RunProcessed("proxy", 250*time.Millisecond)
	m.RunProcessed("proxy", time.Second)
	m.RunSkipped("proxy", "open")
	m.SliceEmitted()
	m.MessagesCounted(40)
	m.MessagesCounted(-3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RunsProcessed.WithLabelValues("proxy")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsSkipped.WithLabelValues("proxy", "open")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SlicesEmitted))
	assert.Equal(t, 40.0, testutil.ToFloat64(m.Messages))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RunDuration))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RunProcessed("features", time.Second)
		m.RunSkipped("features", "range")
		m.SliceEmitted()
		m.MessagesCounted(10)
	})
	assert.Nil(t, m.Registry())
	assert.NoError(t, m.WriteTextfile(filepath.Join(t.TempDir(), "never.prom")))
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := New()
	m.RunProcessed("features", time.Second)
	m.SliceEmitted()

	path := filepath.Join(t.TempDir(), "swptool.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `swptool_runs_processed_total{mode="features"} 1`)
	assert.Contains(t, text, "swptool_slices_emitted_total 1")
	assert.Contains(t, text, "swptool_runs_duration_seconds_bucket")
}
