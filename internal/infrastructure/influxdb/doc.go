// Package influxdb provides InfluxDB connectivity for beamline-core.
//
// It wraps the official influxdb-client-go v2 library for connection
// management, point writing and health monitoring.
//
// # Purpose
//
// Every bulk connection run is written as time-series data so that
// flaky devices show up as trends rather than one-off log lines:
//   - connect_run: one point per run (connected, failed, duration_ms)
//   - device_connect: one point per device per run, tagged with the
//     failure kind ("none" when it connected)
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteConnectRun(influxdb.ConnectRun{Beamline: "i22", Connected: 11, Failed: 1})
//
// # Thread Safety
//
// All methods are safe for concurrent use. Writes are non-blocking and
// batched according to batch_size and flush_interval; asynchronous write
// errors are delivered to the SetOnError callback.
package influxdb
