// Package telemetry exposes connection health as Prometheus metrics.
//
// The serve command publishes them on /metrics. One-shot connect runs
// can instead write them to a textfile picked up by the node exporter.
package telemetry
