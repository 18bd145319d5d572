package beamlines

import (
	"fmt"
	"time"

	"github.com/nerrad567/beamline-core/internal/beamline"
	"github.com/nerrad567/beamline-core/internal/devices"
	"github.com/nerrad567/beamline-core/internal/factory"
)

// I22 describes the small and wide angle scattering beamline.
func I22(f *factory.Facility) (*factory.Module, error) {
	if err := f.Beamline.Set(beamline.Name("i22"), ""); err != nil {
		return nil, fmt.Errorf("describing i22: %w", err)
	}

	m := factory.NewModule("i22", f)
	m.Include(Common(f))

	factory.RegisterNamed(m, saxs, factory.Timeout(30*time.Second))
	factory.RegisterNamed(m, waxs, factory.Timeout(30*time.Second))
	factory.RegisterNamed(m, i0)
	factory.RegisterNamed(m, it)
	for n := 1; n <= 3; n++ {
		factory.Register(m, fmt.Sprintf("slits_%d", n), slits(n))
	}
	factory.Register(m, "fast_shutter", i22FastShutter)
	factory.RegisterNamed(m, linkam, factory.SkipIf(true))
	return m, nil
}

func saxs(b *factory.Build) (*devices.Detector, error) {
	paths, err := b.PathProvider()
	if err != nil {
		return nil, err
	}
	return devices.NewDetector(b.Transport(), b.Prefix()+"-EA-PILAT-01:", paths), nil
}

func waxs(b *factory.Build) (*devices.Detector, error) {
	paths, err := b.PathProvider()
	if err != nil {
		return nil, err
	}
	return devices.NewDetector(b.Transport(), b.Prefix()+"-EA-PILAT-03:", paths), nil
}

func i0(b *factory.Build) (*devices.Detector, error) {
	paths, err := b.PathProvider()
	if err != nil {
		return nil, err
	}
	return devices.NewDetector(b.Transport(), b.Prefix()+"-EA-XBPM-02:", paths), nil
}

func it(b *factory.Build) (*devices.Detector, error) {
	paths, err := b.PathProvider()
	if err != nil {
		return nil, err
	}
	return devices.NewDetector(b.Transport(), b.Prefix()+"-EA-TTRM-02:", paths), nil
}

func slits(n int) factory.FactoryFunc[*devices.Motor] {
	return func(b *factory.Build) (*devices.Motor, error) {
		return devices.NewMotor(b.Transport(), fmt.Sprintf("%s-AL-SLITS-%02d:X:SIZE", b.Prefix(), n)), nil
	}
}

func i22FastShutter(b *factory.Build) (*devices.Shutter, error) {
	return devices.NewShutter(b.Transport(), b.Prefix()+"-EA-FSHTR-01:"), nil
}

// linkam is only mounted for heating experiments.
func linkam(b *factory.Build) (*devices.Motor, error) {
	return devices.NewMotor(b.Transport(), b.Prefix()+"-EA-TEMPC-05:RAMP"), nil
}
