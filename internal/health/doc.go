// Package health turns the outcome of a bulk connection run into a Report
// and fans it out to the enabled sinks: connection history, the MQTT
// broker, InfluxDB and Prometheus.
//
// A sink failing is logged and otherwise ignored; reporting never changes
// the result of the run it reports on.
package health
