package factory

import (
	"fmt"
	"reflect"
	"regexp"
	"runtime"
	"strings"

	"github.com/nerrad567/beamline-core/internal/device"
)

// Module is an ordered collection of factories describing one beamline,
// or a set of devices shared between beamlines.
type Module struct {
	name     string
	facility *Facility
	order    []string
	byName   map[string]Factory
	shared   []*Module
}

// NewModule creates an empty module bound to f.
func NewModule(name string, f *Facility) *Module {
	return &Module{
		name:     name,
		facility: f,
		byName:   make(map[string]Factory),
	}
}

// Name returns the module name.
func (m *Module) Name() string { return m.name }

// Facility returns the facility the module's factories build into.
func (m *Module) Facility() *Facility { return m.facility }

// Include makes the factories of shared modules part of m's discovery.
// Shared factories are discovered before m's own.
func (m *Module) Include(shared ...*Module) {
	m.shared = append(m.shared, shared...)
}

// Shared returns the included modules.
func (m *Module) Shared() []*Module { return m.shared }

// Factories returns m's own factories in registration order.
func (m *Module) Factories() []Factory {
	out := make([]Factory, 0, len(m.order))
	for _, n := range m.order {
		out = append(out, m.byName[n])
	}
	return out
}

// Lookup returns the factory registered in m under name.
func (m *Module) Lookup(name string) (Factory, bool) {
	f, ok := m.byName[name]
	return f, ok
}

func (m *Module) add(f Factory) {
	if _, dup := m.byName[f.Name()]; dup {
		panic(fmt.Sprintf("factory: %s registered twice in module %s", f.Name(), m.name))
	}
	m.byName[f.Name()] = f
	m.order = append(m.order, f.Name())
}

// Register adds a factory named name to m and returns its controller.
// Registering the same name twice in one module panics.
func Register[T device.Device](m *Module, name string, fn FactoryFunc[T], opts ...Option) *Controller[T] {
	if name == "" {
		panic("factory: empty factory name")
	}
	c := newController(m, name, fn, opts)
	m.add(c)
	return c
}

// RegisterNamed is Register using fn's own identifier as the name. fn must
// be a named top-level function, not a closure.
func RegisterNamed[T device.Device](m *Module, fn FactoryFunc[T], opts ...Option) *Controller[T] {
	return Register(m, funcName(fn), fn, opts...)
}

// closureSymbol matches the compiler's names for anonymous functions,
// nested ones included (pkg.F.func1, pkg.F.func1.2).
var closureSymbol = regexp.MustCompile(`\.func\d+(\.\d+)*$`)

func funcName(fn any) string {
	f := runtime.FuncForPC(reflect.ValueOf(fn).Pointer())
	if f == nil {
		panic("factory: cannot resolve function name")
	}
	full := strings.TrimSuffix(f.Name(), "-fm")
	name := full[strings.LastIndex(full, ".")+1:]
	if name == "" || closureSymbol.MatchString(full) {
		panic(fmt.Sprintf("factory: RegisterNamed needs a named function, got %s", full))
	}
	return name
}

// DiscoverOptions controls Discover.
type DiscoverOptions struct {
	// IncludeSkipped ignores skip predicates.
	IncludeSkipped bool
	// ModuleOnly ignores included shared modules.
	ModuleOnly bool
}

// Discover lists the factories of m in declaration order without building
// anything. Factories from included modules come first; a factory in m
// replaces a shared one of the same name at the shared one's position.
// Skip predicates are evaluated now unless IncludeSkipped is set.
func Discover(m *Module, opts DiscoverOptions) []Factory {
	var (
		order  []string
		byName = make(map[string]Factory)
		seen   = make(map[*Module]bool)
	)

	var visit func(mod *Module, top bool)
	visit = func(mod *Module, top bool) {
		if seen[mod] {
			return
		}
		seen[mod] = true
		if !(top && opts.ModuleOnly) {
			for _, s := range mod.shared {
				visit(s, false)
			}
		}
		for _, f := range mod.Factories() {
			if _, ok := byName[f.Name()]; !ok {
				order = append(order, f.Name())
			}
			byName[f.Name()] = f
		}
	}
	visit(m, true)

	out := make([]Factory, 0, len(order))
	for _, n := range order {
		f := byName[n]
		if !opts.IncludeSkipped && f.Skip() {
			continue
		}
		out = append(out, f)
	}
	return out
}
