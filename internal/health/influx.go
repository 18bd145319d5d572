package health

import (
	"context"

	"github.com/nerrad567/beamline-core/internal/infrastructure/influxdb"
)

// PointWriter is the part of the InfluxDB client the sink needs.
type PointWriter interface {
	WriteConnectRun(r influxdb.ConnectRun)
	WriteDeviceConnect(d influxdb.DeviceConnect)
}

// InfluxSink writes one run point and one point per device.
type InfluxSink struct {
	client PointWriter
}

// NewInfluxSink creates a sink writing through client.
func NewInfluxSink(client PointWriter) *InfluxSink {
	return &InfluxSink{client: client}
}

// Name returns "influxdb".
func (s *InfluxSink) Name() string { return "influxdb" }

// Record queues the points. Writes are asynchronous, so delivery errors
// surface through the client's error callback instead.
func (s *InfluxSink) Record(_ context.Context, r *Report) error {
	at := r.StartedAt.Add(r.Duration)
	s.client.WriteConnectRun(influxdb.ConnectRun{
		Beamline:  r.Beamline,
		Mock:      r.Mock,
		Connected: len(r.Connected),
		Failed:    len(r.Failures),
		Duration:  r.Duration,
		At:        at,
	})
	for _, name := range r.Connected {
		s.client.WriteDeviceConnect(influxdb.DeviceConnect{Beamline: r.Beamline, Device: name, At: at})
	}
	for _, f := range r.Failures {
		s.client.WriteDeviceConnect(influxdb.DeviceConnect{
			Beamline: r.Beamline,
			Device:   f.Device,
			Kind:     string(f.Kind),
			At:       at,
		})
	}
	return nil
}
