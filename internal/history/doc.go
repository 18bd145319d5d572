// Package history persists connection runs in SQLite.
//
// Each run is one row in connect_runs; every device that failed adds a
// row to connect_failures. Devices that connected are only counted, since
// the question history answers is "when did this device last fail, and
// how".
package history
