package devices

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/beamline-core/internal/pv"
)

// pvDevice is the shared core of every device kind.
type pvDevice struct {
	mu        sync.RWMutex
	name      string
	pvs       []string
	transport pv.Transport
	connected bool
}

func newPVDevice(transport pv.Transport, pvs ...string) *pvDevice {
	if transport == nil {
		transport = pv.Offline{}
	}
	return &pvDevice{pvs: pvs, transport: transport}
}

// Name returns the device name.
func (d *pvDevice) Name() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.name
}

// SetName renames the device.
func (d *pvDevice) SetName(name string) {
	d.mu.Lock()
	d.name = name
	d.mu.Unlock()
}

// PVs returns the PV names the device binds to.
func (d *pvDevice) PVs() []string {
	out := make([]string, len(d.pvs))
	copy(out, d.pvs)
	return out
}

// Connected reports whether the last Connect succeeded.
func (d *pvDevice) Connected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

// Connect reaches every PV concurrently. In mock mode no PV is contacted.
func (d *pvDevice) Connect(ctx context.Context, mock bool, timeout time.Duration) error {
	if mock {
		d.setConnected(true)
		return nil
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, name := range d.pvs {
		g.Go(func() error {
			return d.transport.Reach(gctx, name)
		})
	}
	if err := g.Wait(); err != nil {
		d.setConnected(false)
		return fmt.Errorf("connecting %s via %s: %w", d.Name(), d.transport.Name(), err)
	}
	d.setConnected(true)
	return nil
}

func (d *pvDevice) setConnected(v bool) {
	d.mu.Lock()
	d.connected = v
	d.mu.Unlock()
}
