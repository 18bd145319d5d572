package factory

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/nerrad567/beamline-core/internal/device"
)

// FactoryFunc builds one device.
type FactoryFunc[T device.Device] func(b *Build) (T, error)

// Factory is the type-erased view of a Controller used by discovery and
// bulk operations.
type Factory interface {
	Name() string
	Module() string
	Config() Config
	Skip() bool
	CachedDevice() (device.Device, bool)
	CacheClear()
	Build(ctx context.Context, opts ...CallOption) (device.Device, error)
}

// Controller wraps one factory function. It builds at most one device,
// names it, registers it with the facility and caches it until CacheClear
// or until the facility's beamline identity changes.
type Controller[T device.Device] struct {
	name     string
	module   string
	fn       FactoryFunc[T]
	cfg      Config
	facility *Facility

	mu         sync.Mutex
	cached     T
	hasCached  bool
	generation uint64
	building   bool
}

func newController[T device.Device](m *Module, name string, fn FactoryFunc[T], opts []Option) *Controller[T] {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Controller[T]{
		name:     name,
		module:   m.name,
		fn:       fn,
		cfg:      cfg,
		facility: m.facility,
	}
}

// Name returns the factory name.
func (c *Controller[T]) Name() string { return c.name }

// Module returns the name of the module the factory was registered in.
func (c *Controller[T]) Module() string { return c.module }

// Config returns the registration policy.
func (c *Controller[T]) Config() Config { return c.cfg }

// Skip evaluates the skip predicate now.
func (c *Controller[T]) Skip() bool { return c.cfg.Skip.Evaluate() }

// Cached returns the cached device, if any.
func (c *Controller[T]) Cached() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cached, c.hasCached
}

// CachedDevice is Cached without the type parameter.
func (c *Controller[T]) CachedDevice() (device.Device, bool) {
	d, ok := c.Cached()
	if !ok {
		return nil, false
	}
	return d, true
}

// CacheClear evicts the cached device and removes it from the registry,
// provided the registry still holds that same instance.
func (c *Controller[T]) CacheClear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictLocked()
}

func (c *Controller[T]) evictLocked() {
	if !c.hasCached {
		return
	}
	old := c.cached
	c.facility.Devices.RemoveDevice(old.Name(), old)

	var zero T
	c.cached = zero
	c.hasCached = false
}

// Get returns the controller's device, building it on first use.
//
// With ConnectNow the device is also connected before Get returns. A
// connection failure leaves the device built, cached and registered; Get
// then returns the device together with a *ConnectError or *TimeoutError.
func (c *Controller[T]) Get(ctx context.Context, opts ...CallOption) (T, error) {
	d, _, err := c.get(ctx, opts)
	return d, err
}

// Build is Get without the type parameter. The returned device is nil
// only when nothing was built.
func (c *Controller[T]) Build(ctx context.Context, opts ...CallOption) (device.Device, error) {
	d, built, err := c.get(ctx, opts)
	if !built {
		return nil, err
	}
	return d, err
}

func (c *Controller[T]) get(ctx context.Context, opts []CallOption) (T, bool, error) {
	call := resolveCall(c.cfg, opts)

	d, err := c.obtain(ctx, call)
	if err != nil {
		return d, false, err
	}
	if !call.connect {
		return d, true, nil
	}

	name := d.Name()
	if name == "" {
		name = c.name
	}
	if err := connectDevice(ctx, name, d, *call.mock, call.timeout); err != nil {
		c.facility.logger.Warn("device failed to connect",
			"factory", c.name,
			"device", name,
			"error", err,
		)
		_ = c.facility.Devices.MarkFailed(name, err)
		return d, true, err
	}
	_ = c.facility.Devices.MarkConnected(name)
	return d, true, nil
}

// obtain returns the cached device or builds, names, registers and caches
// a new one.
func (c *Controller[T]) obtain(ctx context.Context, call callConfig) (T, error) {
	var zero T
	gen := c.facility.Beamline.Generation()

	c.mu.Lock()
	if c.hasCached {
		if c.generation == gen {
			d := c.cached
			c.mu.Unlock()
			return d, nil
		}
		c.facility.logger.Info("beamline changed, rebuilding device",
			"factory", c.name,
			"device", c.cached.Name(),
		)
		c.evictLocked()
	}
	if c.building {
		c.mu.Unlock()
		return zero, &FactoryError{Name: c.name, Err: ErrBuildInProgress}
	}
	c.building = true
	c.mu.Unlock()

	d, err := c.invoke(ctx, call)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.building = false

	if err != nil {
		return zero, err
	}

	switch {
	case call.name != "":
		d.SetName(call.name)
	case c.cfg.UseFactoryName:
		d.SetName(c.name)
	}

	if name := d.Name(); name != "" {
		stored, err := c.facility.Devices.Put(name, d)
		if err != nil {
			return zero, err
		}
		d = stored.(T)
	}

	c.cached = d
	c.hasCached = true
	c.generation = c.facility.Beamline.Generation()

	c.facility.logger.Debug("device built",
		"factory", c.name,
		"device", d.Name(),
		"type", device.TypeName(d),
	)
	return d, nil
}

// invoke runs the factory function, turning errors, panics and nil
// devices into *FactoryError.
func (c *Controller[T]) invoke(ctx context.Context, call callConfig) (d T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			d = zero
			err = &FactoryError{Name: c.name, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	b := &Build{ctx: ctx, facility: c.facility, factory: c.name, args: call.args}
	d, err = c.fn(b)
	if err != nil {
		var zero T
		var fe *FactoryError
		if errors.As(err, &fe) && fe.Name == c.name {
			return zero, err
		}
		return zero, &FactoryError{Name: c.name, Err: err}
	}
	if isNilDevice(d) {
		var zero T
		return zero, &FactoryError{Name: c.name, Err: ErrNilDevice}
	}
	return d, nil
}

func isNilDevice(d device.Device) bool {
	if d == nil {
		return true
	}
	v := reflect.ValueOf(d)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}
