package factory

import (
	"context"
	"errors"
	"time"

	"github.com/nerrad567/beamline-core/internal/device"
)

// InstantiateOptions controls Instantiate.
type InstantiateOptions struct {
	// Mock forces simulation for every device.
	Mock bool
	// ConnectImmediately connects each device right after it is built.
	ConnectImmediately bool
	// Timeout overrides per-factory connection timeouts when positive.
	Timeout time.Duration
}

// connectPlan remembers how a built device should be connected.
type connectPlan struct {
	mock    bool
	timeout time.Duration
}

// BuildResult is the outcome of Instantiate.
type BuildResult struct {
	Devices *DeviceSet
	Errors  *Failures

	plans map[string]connectPlan
}

// Instantiate builds every factory in order. A failing factory is recorded
// under its name and never stops the others. Nothing runs in parallel, so
// side effects of one factory are visible to the next.
func Instantiate(ctx context.Context, factories []Factory, opts InstantiateOptions) *BuildResult {
	res := &BuildResult{
		Devices: NewDeviceSet(),
		Errors:  NewFailures(),
		plans:   make(map[string]connectPlan),
	}

	for _, f := range factories {
		cfg := f.Config()
		plan := connectPlan{mock: opts.Mock || cfg.Mock, timeout: cfg.Timeout}
		if opts.Timeout > 0 {
			plan.timeout = opts.Timeout
		}

		var call []CallOption
		if opts.ConnectImmediately {
			call = append(call, ConnectNow(), WithMock(plan.mock), WithTimeout(plan.timeout))
		}

		d, err := f.Build(ctx, call...)
		name := f.Name()
		if d != nil && d.Name() != "" {
			name = d.Name()
		}

		if err != nil {
			res.Devices.Delete(name)
			res.Errors.Add(name, normalizeBuildError(f.Name(), err))
			continue
		}
		res.Devices.Add(name, d)
		res.plans[name] = plan
	}
	return res
}

// normalizeBuildError keeps typed errors and wraps anything else so that
// every recorded failure has a Kind.
func normalizeBuildError(factory string, err error) error {
	var (
		fe  *FactoryError
		ce  *ConnectError
		te  *TimeoutError
		dup *device.DuplicateNameError
	)
	if errors.As(err, &fe) || errors.As(err, &ce) || errors.As(err, &te) || errors.As(err, &dup) {
		return err
	}
	return &FactoryError{Name: factory, Err: err}
}

// ConnectionResult is the outcome of BuildResult.Connect.
type ConnectionResult struct {
	// Devices holds the devices that built and connected.
	Devices *DeviceSet
	// BuildErrors holds factories that failed to build.
	BuildErrors *Failures
	// ConnectErrors holds devices that built but did not connect.
	ConnectErrors *Failures
}

// Failures returns build failures followed by connection failures.
func (r *ConnectionResult) Failures() *Failures {
	all := NewFailures()
	all.Merge(r.BuildErrors)
	all.Merge(r.ConnectErrors)
	return all
}

// Err returns a *NotConnectedError when anything failed.
func (r *ConnectionResult) Err() error {
	all := r.Failures()
	if all.Len() == 0 {
		return nil
	}
	return &NotConnectedError{Failures: all}
}

// Connect connects every built device. Unless opts overrides them, each
// device uses its own factory's mock flag and timeout, and the batch
// timeout is the longest of those.
func (r *BuildResult) Connect(ctx context.Context, opts ConnectOptions) *ConnectionResult {
	targets := make([]target, 0, r.Devices.Len())
	batch := opts.Timeout
	for name, d := range r.Devices.All() {
		plan, ok := r.plans[name]
		if !ok {
			plan = connectPlan{timeout: DefaultTimeout}
		}
		t := target{name: name, dev: d, mock: plan.mock || opts.Mock, timeout: plan.timeout}
		if opts.Timeout > 0 {
			t.timeout = opts.Timeout
		} else if t.timeout > batch {
			batch = t.timeout
		}
		targets = append(targets, t)
	}
	if batch <= 0 {
		batch = DefaultTimeout
	}

	ok, failed := connectTargets(ctx, targets, batch, opts)
	return &ConnectionResult{
		Devices:       ok,
		BuildErrors:   r.Errors,
		ConnectErrors: failed,
	}
}
