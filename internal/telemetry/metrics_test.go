package telemetry

import (
	"context"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/beamline-core/internal/factory"
	"github.com/nerrad567/beamline-core/internal/health"
)

func sampleReport() *health.Report {
	return &health.Report{
		RunID:     uuid.New(),
		Beamline:  "i22",
		StartedAt: time.Unix(1790000000, 0),
		Duration:  1500 * time.Millisecond,
		Connected: []string{"saxs", "i0"},
		Failures: []health.Failure{
			{Device: "waxs", Kind: factory.KindTimedOut, Error: "slow"},
		},
	}
}

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestObserveReport(t *testing.T) {
	m := New()
	m.ObserveReport(sampleReport())

	out := scrape(t, m)
	for _, want := range []string{
		`beamline_connect_runs_total{beamline="i22",outcome="failed"} 1`,
		`beamline_device_failures_total{beamline="i22",kind="timed_out"} 1`,
		`beamline_devices_connected{beamline="i22"} 2`,
		`beamline_devices_failed{beamline="i22"} 1`,
		`beamline_device_up{beamline="i22",device="saxs"} 1`,
		`beamline_device_up{beamline="i22",device="waxs"} 0`,
		`beamline_last_run_timestamp_seconds{beamline="i22"} 1.79e+09`,
		`beamline_connect_run_duration_seconds_count{beamline="i22"} 1`,
		`go_goroutines`,
	} {
		assert.Contains(t, out, want)
	}
}

func TestSetDeviceUp(t *testing.T) {
	m := New()
	m.ObserveReport(sampleReport())
	m.SetDeviceUp("i22", "waxs", true)

	assert.Contains(t, scrape(t, m), `beamline_device_up{beamline="i22",device="waxs"} 1`)
}

func TestInstancesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.ObserveReport(sampleReport())

	assert.NotContains(t, scrape(t, b), `beamline_connect_runs_total{`)
}

func TestSinkWritesTextfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "beamline.prom")
	s := NewSink(New(), path)
	assert.Equal(t, "metrics", s.Name())

	require.NoError(t, s.Record(context.Background(), sampleReport()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `beamline_devices_connected{beamline="i22"} 2`)
}

func TestSinkWithoutTextfile(t *testing.T) {
	m := New()
	require.NoError(t, NewSink(m, "").Record(context.Background(), sampleReport()))
	assert.Contains(t, scrape(t, m), `beamline_devices_failed{beamline="i22"} 1`)
}
