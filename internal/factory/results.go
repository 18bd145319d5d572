package factory

import (
	"iter"

	"github.com/nerrad567/beamline-core/internal/device"
)

// ordered is an insertion-ordered string-keyed map. Re-adding a key keeps
// its original position.
type ordered[V any] struct {
	keys []string
	vals map[string]V
}

// Add stores v under name.
func (o *ordered[V]) Add(name string, v V) {
	if o.vals == nil {
		o.vals = make(map[string]V)
	}
	if _, ok := o.vals[name]; !ok {
		o.keys = append(o.keys, name)
	}
	o.vals[name] = v
}

// Get returns the value stored under name.
func (o *ordered[V]) Get(name string) (V, bool) {
	v, ok := o.vals[name]
	return v, ok
}

// Has reports whether name is present.
func (o *ordered[V]) Has(name string) bool {
	_, ok := o.vals[name]
	return ok
}

// Delete removes name.
func (o *ordered[V]) Delete(name string) {
	if _, ok := o.vals[name]; !ok {
		return
	}
	delete(o.vals, name)
	for i, k := range o.keys {
		if k == name {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			return
		}
	}
}

// Names returns keys in insertion order.
func (o *ordered[V]) Names() []string {
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// Len returns the number of entries.
func (o *ordered[V]) Len() int { return len(o.keys) }

// All iterates entries in insertion order.
func (o *ordered[V]) All() iter.Seq2[string, V] {
	return func(yield func(string, V) bool) {
		for _, k := range o.keys {
			if !yield(k, o.vals[k]) {
				return
			}
		}
	}
}

// DeviceSet is an ordered name to device map.
type DeviceSet struct {
	ordered[device.Device]
}

// NewDeviceSet returns an empty set.
func NewDeviceSet() *DeviceSet { return &DeviceSet{} }

// Failures is an ordered name to error map.
type Failures struct {
	ordered[error]
}

// NewFailures returns an empty failure map.
func NewFailures() *Failures { return &Failures{} }

// Kind returns the failure kind recorded for name.
func (f *Failures) Kind(name string) (Kind, bool) {
	err, ok := f.Get(name)
	if !ok {
		return "", false
	}
	return KindOf(err), true
}

// Merge appends other's entries after f's.
func (f *Failures) Merge(other *Failures) {
	for name, err := range other.All() {
		f.Add(name, err)
	}
}
