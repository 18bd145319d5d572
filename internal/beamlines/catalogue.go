// Package beamlines is the catalogue of beamline descriptions.
//
// A description sets the facility's beamline identity and registers the
// beamline's factories on a new module. Devices shared by every beamline
// live in the common module, which each description includes.
package beamlines

import (
	"errors"
	"fmt"
	"sort"

	"github.com/nerrad567/beamline-core/internal/factory"
)

// ErrUnknownBeamline is returned by Lookup for names not in the catalogue.
var ErrUnknownBeamline = errors.New("beamlines: unknown beamline")

// Describer sets up f for one beamline and returns its module.
type Describer func(f *factory.Facility) (*factory.Module, error)

var catalogue = map[string]Describer{
	"i03": I03,
	"i22": I22,
}

// Lookup returns the describer for name.
func Lookup(name string) (Describer, error) {
	d, ok := catalogue[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %v)", ErrUnknownBeamline, name, Names())
	}
	return d, nil
}

// Names lists the catalogue in sorted order.
func Names() []string {
	out := make([]string, 0, len(catalogue))
	for n := range catalogue {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
