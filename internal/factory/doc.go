// Package factory turns device factory functions into a cached,
// beamline-aware object graph that can be built and connected in bulk.
//
// # Overview
//
//	Module ──Register──▶ Controller[T] ──Get──▶ Device ──Put──▶ device.Registry
//	   │                                                           ▲
//	   └──Discover──▶ []Factory ──Instantiate──▶ BuildResult ──Connect┘
//
// A beamline is described by a function that sets the facility's beamline
// identity and registers factories on a Module:
//
//	func Describe(f *factory.Facility) (*factory.Module, error) {
//	    if err := f.Beamline.Set(beamline.Name("i22"), ""); err != nil {
//	        return nil, err
//	    }
//	    m := factory.NewModule("i22", f)
//	    factory.RegisterNamed(m, saxs)
//	    factory.Register(m, "slits_1", slits1, factory.Timeout(5*time.Second))
//	    return m, nil
//	}
//
// Callers then discover, build and connect:
//
//	res := factory.Instantiate(ctx, factory.Discover(m, factory.DiscoverOptions{}), factory.InstantiateOptions{})
//	conn := res.Connect(ctx, factory.ConnectOptions{Registry: f.Devices})
//	if err := conn.Err(); err != nil {
//	    // *NotConnectedError with per-device detail
//	}
//
// # Caching
//
// A Controller builds at most one device until CacheClear. Factory
// functions may call sibling controllers; a sibling that is already built
// is returned from cache, and a cycle is reported as ErrBuildInProgress.
// When the facility's beamline identity changes, cached devices are
// rebuilt on next use so that they pick up the new PV prefixes.
//
// # Errors
//
// Bulk operations record one typed error per device name and never stop
// early. Use errors.Is with ErrFactoryFailed, ErrConnectFailed or
// ErrTimedOut, or KindOf, to classify them.
//
// # Concurrency
//
// Registration, discovery and instantiation are meant to be driven from a
// single goroutine. Connect runs cooperative devices concurrently.
package factory
