package factory

import (
	"context"

	"github.com/nerrad567/beamline-core/internal/beamline"
	"github.com/nerrad567/beamline-core/internal/device"
	"github.com/nerrad567/beamline-core/internal/pathprovider"
	"github.com/nerrad567/beamline-core/internal/pv"
)

// Logger defines the logging interface used by the factory layer.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Facility bundles the shared state every factory of one beamline sees:
// beamline identity, the output path provider, the device registry and the
// PV transport devices use to connect.
type Facility struct {
	Beamline  *beamline.Context
	Paths     *pathprovider.Slot
	Devices   *device.Registry
	Transport pv.Transport

	logger Logger
}

// NewFacility returns a facility with an unset beamline, no path provider,
// an empty registry and the offline PV transport.
func NewFacility() *Facility {
	return &Facility{
		Beamline:  beamline.New(),
		Paths:     pathprovider.NewSlot(),
		Devices:   device.NewRegistry(),
		Transport: pv.Offline{},
		logger:    noopLogger{},
	}
}

// SetLogger sets the logger for the facility and its registry.
func (f *Facility) SetLogger(logger Logger) {
	f.logger = logger
	f.Devices.SetLogger(logger)
}

// Logger returns the facility logger.
func (f *Facility) Logger() Logger {
	return f.logger
}

// Build is what a factory function receives: the call context, the
// facility and any passthrough arguments.
type Build struct {
	ctx      context.Context
	facility *Facility
	factory  string
	args     []any
}

// Context returns the context of the Get call that triggered the build.
func (b *Build) Context() context.Context { return b.ctx }

// Facility returns the shared facility.
func (b *Build) Facility() *Facility { return b.facility }

// FactoryName returns the name the factory was registered under.
func (b *Build) FactoryName() string { return b.factory }

// Args returns passthrough arguments given with Args.
func (b *Build) Args() []any { return b.args }

// BeamlineID returns the current beamline identifier.
func (b *Build) BeamlineID() string { return b.facility.Beamline.ID() }

// Prefix returns the end-station PV prefix, e.g. "BL22I".
func (b *Build) Prefix() string { return b.facility.Beamline.BeamlinePrefix() }

// InsertionPrefix returns the insertion-device PV prefix, e.g. "SR22I".
func (b *Build) InsertionPrefix() string { return b.facility.Beamline.InsertionPrefix() }

// PathProvider returns the facility path provider or
// pathprovider.ErrNotConfigured.
func (b *Build) PathProvider() (pathprovider.Provider, error) {
	return b.facility.Paths.Get()
}

// Transport returns the PV transport.
func (b *Build) Transport() pv.Transport { return b.facility.Transport }
