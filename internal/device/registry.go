package device

import (
	"fmt"
	"reflect"
	"sync"
	"time"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// ChangeFunc is called after a registry slot is added, updated or removed.
// For removals the entry's Device is nil.
type ChangeFunc func(e Entry)

type slot struct {
	device    Device
	state     State
	lastError error
	updatedAt time.Time
}

// Registry is the authoritative name to device inventory.
//
// Names are unique and kept in insertion order. A second registration under
// a taken name succeeds only when the incoming device has the same concrete
// type as the stored one, in which case the stored instance is returned.
//
// All public methods are thread-safe. Change hooks run outside the lock.
type Registry struct {
	mu       sync.RWMutex
	names    []string
	slots    map[string]*slot
	onChange []ChangeFunc
	logger   Logger
	now      func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		slots:  make(map[string]*slot),
		logger: noopLogger{},
		now:    time.Now,
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// OnChange registers a hook invoked after every mutation.
func (r *Registry) OnChange(fn ChangeFunc) {
	r.mu.Lock()
	r.onChange = append(r.onChange, fn)
	r.mu.Unlock()
}

// Get returns the device registered under name.
func (r *Registry) Get(name string) (Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.slots[name]
	if !ok {
		return nil, false
	}
	return s.device, true
}

// Put registers d under name and returns the instance now held by the registry.
//
// If name is free, d is stored in state built and returned. If name holds a
// device of the same concrete type, the stored device is returned and d is
// discarded. Otherwise a *DuplicateNameError is returned.
func (r *Registry) Put(name string, d Device) (Device, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if isNil(d) {
		return nil, ErrNilDevice
	}

	r.mu.Lock()
	if s, ok := r.slots[name]; ok {
		existing := s.device
		r.mu.Unlock()

		if sameDevice(existing, d) {
			return existing, nil
		}
		if reflect.TypeOf(existing) != reflect.TypeOf(d) {
			return nil, &DuplicateNameError{
				Name:     name,
				Existing: TypeName(existing),
				Incoming: TypeName(d),
			}
		}
		r.logger.Debug("device already registered, returning existing instance",
			"name", name,
			"type", TypeName(existing),
		)
		return existing, nil
	}

	s := &slot{device: d, state: StateBuilt, updatedAt: r.now()}
	r.slots[name] = s
	r.names = append(r.names, name)
	e := r.entryLocked(name, s)
	hooks := r.onChange
	r.mu.Unlock()

	r.logger.Debug("device registered", "name", name, "type", e.Type)
	notify(hooks, e)
	return d, nil
}

// Remove deletes the named device. It reports whether a device was removed.
func (r *Registry) Remove(name string) bool {
	return r.remove(name, nil)
}

// RemoveDevice deletes the named device only if it is d itself.
// It is used to evict a cached device without touching a different
// instance that has since taken the name.
func (r *Registry) RemoveDevice(name string, d Device) bool {
	if isNil(d) {
		return false
	}
	return r.remove(name, d)
}

func (r *Registry) remove(name string, want Device) bool {
	r.mu.Lock()
	s, ok := r.slots[name]
	if !ok || (want != nil && !sameDevice(s.device, want)) {
		r.mu.Unlock()
		return false
	}
	delete(r.slots, name)
	for i, n := range r.names {
		if n == name {
			r.names = append(r.names[:i], r.names[i+1:]...)
			break
		}
	}
	hooks := r.onChange
	r.mu.Unlock()

	r.logger.Debug("device removed", "name", name)
	notify(hooks, Entry{Name: name, UpdatedAt: r.now()})
	return true
}

// Clear removes every device.
func (r *Registry) Clear() {
	r.mu.Lock()
	names := r.names
	r.names = nil
	r.slots = make(map[string]*slot)
	hooks := r.onChange
	r.mu.Unlock()

	if len(names) > 0 {
		r.logger.Info("device registry cleared", "count", len(names))
	}
	now := r.now()
	for _, n := range names {
		notify(hooks, Entry{Name: n, UpdatedAt: now})
	}
}

// Names returns registered names in insertion order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Len returns the number of registered devices.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}

// Entry returns a snapshot of the named slot.
func (r *Registry) Entry(name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.slots[name]
	if !ok {
		return Entry{}, false
	}
	return r.entryLocked(name, s), true
}

// Entries returns snapshots of all slots in insertion order.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, 0, len(r.names))
	for _, n := range r.names {
		out = append(out, r.entryLocked(n, r.slots[n]))
	}
	return out
}

// MarkConnected records a successful connection for the named device.
func (r *Registry) MarkConnected(name string) error {
	return r.setState(name, StateConnected, nil)
}

// MarkFailed records a failed connection; the device stays built.
func (r *Registry) MarkFailed(name string, cause error) error {
	return r.setState(name, StateBuilt, cause)
}

func (r *Registry) setState(name string, state State, cause error) error {
	r.mu.Lock()
	s, ok := r.slots[name]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	s.state = state
	s.lastError = cause
	s.updatedAt = r.now()
	e := r.entryLocked(name, s)
	hooks := r.onChange
	r.mu.Unlock()

	notify(hooks, e)
	return nil
}

func (r *Registry) entryLocked(name string, s *slot) Entry {
	return Entry{
		Name:      name,
		Device:    s.device,
		Type:      TypeName(s.device),
		Strategy:  StrategyOf(s.device),
		State:     s.state,
		LastError: s.lastError,
		UpdatedAt: s.updatedAt,
	}
}

func notify(hooks []ChangeFunc, e Entry) {
	for _, fn := range hooks {
		fn(e)
	}
}

// TypeName returns the concrete type name of d, e.g. "*devices.Motor".
func TypeName(d Device) string {
	if d == nil {
		return "<nil>"
	}
	return reflect.TypeOf(d).String()
}

// sameDevice reports object identity. Non-comparable dynamic types are
// never identical.
func sameDevice(a, b Device) bool {
	if a == nil || b == nil {
		return a == b
	}
	if !reflect.TypeOf(a).Comparable() || reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}
	return a == b
}

func isNil(d Device) bool {
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
