// Package logging provides structured logging for beamline-core.
//
// It wraps log/slog so every component logs with the same default fields
// (service, version) and the same level filtering.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "text"     # json, text
//	  output: "stderr"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Info("connecting", "beamline", "i22", "devices", 12)
//
// Never log secrets such as broker passwords or InfluxDB tokens.
package logging
