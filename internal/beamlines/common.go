package beamlines

import (
	"github.com/nerrad567/beamline-core/internal/devices"
	"github.com/nerrad567/beamline-core/internal/factory"
)

// Common describes devices every beamline shares.
func Common(f *factory.Facility) *factory.Module {
	m := factory.NewModule("common", f)
	factory.RegisterNamed(m, synchrotron)
	factory.RegisterNamed(m, undulator)
	return m
}

func synchrotron(b *factory.Build) (*devices.Synchrotron, error) {
	return devices.NewSynchrotron(b.Transport()), nil
}

func undulator(b *factory.Build) (*devices.Undulator, error) {
	return devices.NewUndulator(b.Transport(), b.InsertionPrefix()+"-MO-SERVC-01:"), nil
}
