package factory

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nerrad567/beamline-core/internal/beamline"
)

// simDevice connects cooperatively after delay. It honours ctx and does
// no work in mock mode.
type simDevice struct {
	name     string
	delay    time.Duration
	hang     bool
	fail     error
	connects atomic.Int32
}

func (d *simDevice) Name() string        { return d.name }
func (d *simDevice) SetName(name string) { d.name = name }

func (d *simDevice) Connect(ctx context.Context, mock bool, _ time.Duration) error {
	d.connects.Add(1)
	if mock {
		return nil
	}
	if d.fail != nil {
		return d.fail
	}
	if d.hang {
		<-ctx.Done()
		return fmt.Errorf("waiting for %s: %w", d.name, ctx.Err())
	}
	select {
	case <-time.After(d.delay):
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for %s: %w", d.name, ctx.Err())
	}
}

// otherDevice is a second concrete type with no connection step.
type otherDevice struct{ name string }

func (d *otherDevice) Name() string        { return d.name }
func (d *otherDevice) SetName(name string) { d.name = name }

// legacyDevice blocks in WaitForConnection.
type legacyDevice struct {
	name  string
	fail  error
	delay time.Duration
	waits atomic.Int32
}

func (d *legacyDevice) Name() string        { return d.name }
func (d *legacyDevice) SetName(name string) { d.name = name }

// WaitForConnection sleeps for delay regardless of timeout.
func (d *legacyDevice) WaitForConnection(time.Duration) error {
	d.waits.Add(1)
	time.Sleep(d.delay)
	if d.fail != nil {
		return d.fail
	}
	return nil
}

var errBuildFail = errors.New("build fail")

func newSim(*Build) (*simDevice, error) { return &simDevice{}, nil }

func failing(*Build) (*simDevice, error) { return nil, errBuildFail }

// a and b are used through RegisterNamed.
func a(*Build) (*simDevice, error) { return &simDevice{}, nil }
func b(*Build) (*simDevice, error) { return &simDevice{}, nil }

func funcGen(*Build) (*simDevice, error) { return &simDevice{}, nil }

func newTestModule(t *testing.T, name string) (*Facility, *Module) {
	t.Helper()
	t.Setenv(beamline.EnvVar, "")
	f := NewFacility()
	if err := f.Beamline.Set("i22", "I"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	return f, NewModule(name, f)
}

func names(fs []Factory) []string {
	out := make([]string, 0, len(fs))
	for _, f := range fs {
		out = append(out, f.Name())
	}
	return out
}
