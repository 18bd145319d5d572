package factory

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/beamline-core/internal/device"
)

// ConnectOptions controls Connect.
type ConnectOptions struct {
	// Mock forces simulation for every device.
	Mock bool
	// Timeout bounds each blocking connect and the cooperative batch as a
	// whole. Zero means DefaultTimeout.
	Timeout time.Duration
	// MaxConcurrent caps concurrently connecting cooperative devices.
	// Zero means no cap.
	MaxConcurrent int
	// Registry, when set, records each outcome against the device name.
	Registry *device.Registry
	// Logger receives one line per failure.
	Logger Logger
}

type target struct {
	name    string
	dev     device.Device
	mock    bool
	timeout time.Duration
}

type outcome struct {
	name string
	err  error
}

// Connect connects already built devices and returns the connected ones
// and the failures, both in input order. Every input name ends up in
// exactly one of the two.
//
// Blocking devices connect first, one at a time, each under Timeout.
// Cooperative devices then connect concurrently under a single Timeout;
// any still pending when it expires are reported as *TimeoutError.
func Connect(ctx context.Context, devices *DeviceSet, opts ConnectOptions) (*DeviceSet, *Failures) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	targets := make([]target, 0, devices.Len())
	for name, d := range devices.All() {
		targets = append(targets, target{name: name, dev: d, mock: opts.Mock, timeout: timeout})
	}
	return connectTargets(ctx, targets, timeout, opts)
}

func connectTargets(ctx context.Context, targets []target, batch time.Duration, opts ConnectOptions) (*DeviceSet, *Failures) {
	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	errs := make(map[string]error, len(targets))
	var coop []target

	for _, t := range targets {
		switch device.StrategyOf(t.dev) {
		case device.StrategyCooperative:
			coop = append(coop, t)
		case device.StrategyBlocking:
			if err := connectDevice(ctx, t.name, t.dev, t.mock, t.timeout); err != nil {
				errs[t.name] = err
			}
		}
	}

	for name, err := range connectBatch(ctx, coop, batch, opts.MaxConcurrent) {
		errs[name] = err
	}

	connected := NewDeviceSet()
	failed := NewFailures()
	for _, t := range targets {
		err, bad := errs[t.name]
		if bad {
			failed.Add(t.name, err)
			logger.Warn("device not connected",
				"device", t.name,
				"kind", string(KindOf(err)),
				"error", err,
			)
		} else {
			connected.Add(t.name, t.dev)
		}
		if opts.Registry == nil {
			continue
		}
		if bad {
			_ = opts.Registry.MarkFailed(t.name, err)
		} else {
			_ = opts.Registry.MarkConnected(t.name)
		}
	}
	return connected, failed
}

// connectBatch runs every cooperative connect under one deadline and
// returns the failures. It returns by the deadline even if a device
// ignores cancellation; late results are dropped.
func connectBatch(ctx context.Context, coop []target, batch time.Duration, limit int) map[string]error {
	failures := make(map[string]error)
	if len(coop) == 0 {
		return failures
	}

	bctx, cancel := context.WithTimeout(ctx, batch)
	defer cancel()

	results := make(chan outcome, len(coop))
	done := make(chan struct{})

	go func() {
		defer close(done)
		var g errgroup.Group
		if limit > 0 {
			g.SetLimit(limit)
		}
		for _, t := range coop {
			g.Go(func() error {
				if err := bctx.Err(); err != nil {
					results <- outcome{t.name, err}
					return nil
				}
				c := t.dev.(device.Connector)
				results <- outcome{t.name, c.Connect(bctx, t.mock, t.timeout)}
				return nil
			})
		}
		_ = g.Wait()
	}()

	select {
	case <-done:
	case <-bctx.Done():
	}

	pending := make(map[string]target, len(coop))
	for _, t := range coop {
		pending[t.name] = t
	}
	for drained := false; !drained; {
		select {
		case o := <-results:
			delete(pending, o.name)
			if err := classify(o.name, o.err, batch); err != nil {
				failures[o.name] = err
			}
		default:
			drained = true
		}
	}
	cause := bctx.Err()
	if cause == nil {
		cause = context.DeadlineExceeded
	}
	for name := range pending {
		failures[name] = classify(name, cause, batch)
	}
	return failures
}

// connectDevice connects one device according to its strategy.
// Blocking devices are not waited on in simulation.
func connectDevice(ctx context.Context, name string, d device.Device, mock bool, timeout time.Duration) error {
	switch dev := d.(type) {
	case device.Connector:
		cctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return classify(name, dev.Connect(cctx, mock, timeout), timeout)
	case device.Waiter:
		if mock {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return &ConnectError{Name: name, Err: err}
		}
		start := time.Now()
		err := dev.WaitForConnection(timeout)
		if err == nil && time.Since(start) > timeout {
			err = context.DeadlineExceeded
		}
		return classify(name, err, timeout)
	default:
		return nil
	}
}

// classify attributes a connect error to name as a timeout or a failure.
func classify(name string, err error, timeout time.Duration) error {
	if err == nil {
		return nil
	}
	if te := (*TimeoutError)(nil); errors.As(err, &te) && te.Name == name {
		return err
	}
	if ce := (*ConnectError)(nil); errors.As(err, &ce) && ce.Name == name {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Name: name, Timeout: timeout, Err: err}
	}
	return &ConnectError{Name: name, Err: err}
}
