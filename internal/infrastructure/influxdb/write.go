package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	// MeasurementConnectRun holds one point per bulk connection run.
	MeasurementConnectRun = "connect_run"

	// MeasurementDeviceConnect holds one point per device per run.
	MeasurementDeviceConnect = "device_connect"
)

// ConnectRun summarises one bulk connection run.
type ConnectRun struct {
	Beamline  string
	Mock      bool
	Connected int
	Failed    int
	Duration  time.Duration
	At        time.Time
}

// DeviceConnect is the outcome for one device in a run. Kind is empty on
// success and names the failure kind otherwise.
type DeviceConnect struct {
	Beamline string
	Device   string
	Kind     string
	At       time.Time
}

func connectRunPoint(r ConnectRun) *write.Point {
	return write.NewPoint(
		MeasurementConnectRun,
		map[string]string{
			"beamline": r.Beamline,
			"mock":     strconv.FormatBool(r.Mock),
		},
		map[string]interface{}{
			"connected":   int64(r.Connected),
			"failed":      int64(r.Failed),
			"duration_ms": r.Duration.Milliseconds(),
		},
		r.At,
	)
}

func deviceConnectPoint(d DeviceConnect) *write.Point {
	kind := d.Kind
	if kind == "" {
		kind = "none"
	}
	return write.NewPoint(
		MeasurementDeviceConnect,
		map[string]string{
			"beamline": d.Beamline,
			"device":   d.Device,
			"kind":     kind,
		},
		map[string]interface{}{
			"connected": d.Kind == "",
		},
		d.At,
	)
}

// WriteConnectRun records a run summary.
func (c *Client) WriteConnectRun(r ConnectRun) {
	c.WritePoint(connectRunPoint(r))
}

// WriteDeviceConnect records one device outcome.
func (c *Client) WriteDeviceConnect(d DeviceConnect) {
	c.WritePoint(deviceConnectPoint(d))
}

// WritePoint queues p for the next batch. Points written after Close are
// dropped.
func (c *Client) WritePoint(p *write.Point) {
	if !c.IsOpen() {
		return
	}
	c.writeAPI.WritePoint(p)
}
