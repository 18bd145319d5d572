package telemetry

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nerrad567/beamline-core/internal/health"
)

const namespace = "beamline"

// Metrics holds the connection metrics on a private registry so that
// several instances (one per test, say) never collide.
type Metrics struct {
	registry *prometheus.Registry

	runs           *prometheus.CounterVec
	deviceFailures *prometheus.CounterVec
	connected      *prometheus.GaugeVec
	failed         *prometheus.GaugeVec
	deviceUp       *prometheus.GaugeVec
	lastRun        *prometheus.GaugeVec
	duration       *prometheus.HistogramVec
}

// New creates the metrics and registers them, together with the Go and
// process collectors, on a new registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "connect_runs_total",
				Help:      "Bulk connection runs by outcome",
			},
			[]string{"beamline", "outcome"},
		),
		deviceFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "device_failures_total",
				Help:      "Devices that failed to build or connect, by failure kind",
			},
			[]string{"beamline", "kind"},
		),
		connected: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "devices_connected",
				Help:      "Devices connected in the latest run",
			},
			[]string{"beamline"},
		),
		failed: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "devices_failed",
				Help:      "Devices not connected in the latest run",
			},
			[]string{"beamline"},
		),
		deviceUp: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "device_up",
				Help:      "1 if the device is connected, 0 otherwise",
			},
			[]string{"beamline", "device"},
		),
		lastRun: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time the latest run started",
			},
			[]string{"beamline"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "connect_run_duration_seconds",
				Help:      "Wall time of bulk connection runs",
				Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"beamline"},
		),
	}

	m.registry.MustRegister(
		m.runs,
		m.deviceFailures,
		m.connected,
		m.failed,
		m.deviceUp,
		m.lastRun,
		m.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry the metrics live on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveReport updates every metric from one run.
func (m *Metrics) ObserveReport(r *health.Report) {
	outcome := "ok"
	if !r.OK() {
		outcome = "failed"
	}
	m.runs.WithLabelValues(r.Beamline, outcome).Inc()
	m.connected.WithLabelValues(r.Beamline).Set(float64(len(r.Connected)))
	m.failed.WithLabelValues(r.Beamline).Set(float64(len(r.Failures)))
	m.lastRun.WithLabelValues(r.Beamline).Set(float64(r.StartedAt.Unix()))
	m.duration.WithLabelValues(r.Beamline).Observe(r.Duration.Seconds())

	for _, name := range r.Connected {
		m.deviceUp.WithLabelValues(r.Beamline, name).Set(1)
	}
	for _, f := range r.Failures {
		m.deviceUp.WithLabelValues(r.Beamline, f.Device).Set(0)
		m.deviceFailures.WithLabelValues(r.Beamline, string(f.Kind)).Inc()
	}
}

// SetDeviceUp records a single device's state outside a bulk run, as when
// a device is retried on its own.
func (m *Metrics) SetDeviceUp(beamline, device string, up bool) {
	v := 0.0
	if up {
		v = 1
	}
	m.deviceUp.WithLabelValues(beamline, device).Set(v)
}

// WriteTextfile writes the registry to path for the node exporter's
// textfile collector. The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

// Sink adapts Metrics to health.Sink, writing the textfile after each
// report when a path is set.
type Sink struct {
	metrics  *Metrics
	textfile string
}

// NewSink returns a sink updating m. textfile may be empty.
func NewSink(m *Metrics, textfile string) *Sink {
	return &Sink{metrics: m, textfile: textfile}
}

// Name returns "metrics".
func (s *Sink) Name() string { return "metrics" }

// Record updates the metrics from r.
func (s *Sink) Record(_ context.Context, r *health.Report) error {
	s.metrics.ObserveReport(r)
	if s.textfile == "" {
		return nil
	}
	return s.metrics.WriteTextfile(s.textfile)
}

var _ health.Sink = (*Sink)(nil)
