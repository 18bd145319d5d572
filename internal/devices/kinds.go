package devices

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/beamline-core/internal/pathprovider"
	"github.com/nerrad567/beamline-core/internal/pv"
)

// Motor is a single EPICS motor record.
type Motor struct {
	*pvDevice
	Prefix string
}

// NewMotor binds a motor to the record at prefix, e.g. "BL22I-MO-STAGE-01:X".
func NewMotor(t pv.Transport, prefix string) *Motor {
	return &Motor{
		pvDevice: newPVDevice(t, prefix+".VAL", prefix+".RBV", prefix+".DMOV"),
		Prefix:   prefix,
	}
}

// Detector is an areaDetector with an HDF5 file writer.
type Detector struct {
	*pvDevice
	Prefix string
	paths  pathprovider.Provider
}

// NewDetector binds a detector at prefix, e.g. "BL22I-EA-PILAT-01:".
// paths decides where its files go.
func NewDetector(t pv.Transport, prefix string, paths pathprovider.Provider) *Detector {
	return &Detector{
		pvDevice: newPVDevice(t,
			prefix+"CAM:Acquire",
			prefix+"CAM:DetectorState_RBV",
			prefix+"HDF5:FilePath",
		),
		Prefix: prefix,
		paths:  paths,
	}
}

// FileInfo returns where the detector writes for the current collection.
func (d *Detector) FileInfo() (pathprovider.Info, error) {
	if d.paths == nil {
		return pathprovider.Info{}, pathprovider.ErrNotConfigured
	}
	return d.paths.Info(d.Name())
}

// Synchrotron exposes machine status PVs shared by every beamline.
type Synchrotron struct {
	*pvDevice
}

// NewSynchrotron binds the storage ring status PVs.
func NewSynchrotron(t pv.Transport) *Synchrotron {
	return &Synchrotron{
		pvDevice: newPVDevice(t,
			"SR-DI-DCCT-01:SIGNAL",
			"CS-CS-MSTAT-01:MODE",
			"CS-CS-MSTAT-01:BEAMDUMP:COUNTDOWN",
		),
	}
}

// Undulator is the insertion device of a beamline.
type Undulator struct {
	*pvDevice
	Prefix string
}

// NewUndulator binds the undulator at prefix, e.g. "SR22I-MO-SERVC-01:".
func NewUndulator(t pv.Transport, prefix string) *Undulator {
	return &Undulator{
		pvDevice: newPVDevice(t, prefix+"BLGAPMTR", prefix+"CURRGAPD", prefix+"IDBLENA"),
		Prefix:   prefix,
	}
}

// Shutter is a legacy device that blocks the caller until connected.
// It deliberately has no Connect method.
type Shutter struct {
	core   *pvDevice
	Prefix string
}

// NewShutter binds the shutter at prefix, e.g. "BL22I-PS-SHTR-01:".
func NewShutter(t pv.Transport, prefix string) *Shutter {
	return &Shutter{
		core:   newPVDevice(t, prefix+"CON", prefix+"STA"),
		Prefix: prefix,
	}
}

// Name returns the device name.
func (s *Shutter) Name() string { return s.core.Name() }

// SetName renames the device.
func (s *Shutter) SetName(name string) { s.core.SetName(name) }

// PVs returns the PV names the shutter binds to.
func (s *Shutter) PVs() []string { return s.core.PVs() }

// Connected reports whether the last wait succeeded.
func (s *Shutter) Connected() bool { return s.core.Connected() }

// WaitForConnection blocks until both shutter PVs are reachable.
func (s *Shutter) WaitForConnection(timeout time.Duration) error {
	if timeout <= 0 {
		return fmt.Errorf("shutter %s: timeout must be positive", s.Name())
	}
	return s.core.Connect(context.Background(), false, timeout)
}
