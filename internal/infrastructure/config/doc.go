// Package config handles loading and validating beamline core configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with BEAMLINE_CORE_* environment variables
//   - Validation of required fields
//   - Default value handling
//
// A missing configuration file is not an error: the defaults describe an
// offline health check with every optional sink disabled.
//
// Beamline identity itself is not overridden here. The BEAMLINE variable
// is read by the beamline package so that it always wins over both the
// file and the beamline description.
//
// Usage:
//
//	cfg, err := config.Load("configs/beamline.yaml")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(cfg.Connect.Timeout)
package config
