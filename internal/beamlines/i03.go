package beamlines

import (
	"fmt"
	"time"

	"github.com/nerrad567/beamline-core/internal/beamline"
	"github.com/nerrad567/beamline-core/internal/devices"
	"github.com/nerrad567/beamline-core/internal/factory"
)

// I03 describes the macromolecular crystallography beamline. Without
// $BEAMLINE it runs against the s03 simulator, where hardware that the
// simulator does not provide is skipped.
func I03(f *factory.Facility) (*factory.Module, error) {
	if err := f.Beamline.Set(beamline.Name(beamline.SimulatorID("i03")), ""); err != nil {
		return nil, fmt.Errorf("describing i03: %w", err)
	}
	onSimulator := func() bool { return beamline.IsSimulator(f.Beamline.ID()) }

	m := factory.NewModule("i03", f)
	m.Include(Common(f))

	factory.RegisterNamed(m, eiger, factory.Timeout(20*time.Second), factory.SkipWhen(onSimulator))
	factory.RegisterNamed(m, oav, factory.SkipWhen(onSimulator))
	factory.RegisterNamed(m, smargon)
	factory.RegisterNamed(m, dcm)
	factory.Register(m, "sample_shutter", i03SampleShutter)
	factory.RegisterNamed(m, zebra)
	return m, nil
}

func eiger(b *factory.Build) (*devices.Detector, error) {
	paths, err := b.PathProvider()
	if err != nil {
		return nil, err
	}
	return devices.NewDetector(b.Transport(), b.Prefix()+"-EA-EIGER-01:", paths), nil
}

func oav(b *factory.Build) (*devices.Detector, error) {
	paths, err := b.PathProvider()
	if err != nil {
		return nil, err
	}
	return devices.NewDetector(b.Transport(), b.Prefix()+"-DI-OAV-01:", paths), nil
}

func smargon(b *factory.Build) (*devices.Motor, error) {
	return devices.NewMotor(b.Transport(), b.Prefix()+"-MO-SGON-01:OMEGA"), nil
}

func dcm(b *factory.Build) (*devices.Motor, error) {
	return devices.NewMotor(b.Transport(), b.Prefix()+"-MO-DCM-01:ENERGY"), nil
}

func i03SampleShutter(b *factory.Build) (*devices.Shutter, error) {
	return devices.NewShutter(b.Transport(), b.Prefix()+"-EA-SHTR-01:"), nil
}

func zebra(b *factory.Build) (*devices.Motor, error) {
	return devices.NewMotor(b.Transport(), b.Prefix()+"-EA-ZEBRA-01:PC_ENC"), nil
}
