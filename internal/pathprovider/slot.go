package pathprovider

import (
	"context"
	"sync"
)

// Info locates the output of one device for the current collection.
type Info struct {
	Directory string
	Filename  string
}

// Provider resolves output locations for devices.
type Provider interface {
	// Update starts a new collection.
	Update(ctx context.Context) error
	// Info returns where the named device should write.
	Info(deviceName string) (Info, error)
}

// Slot is an optional holder for a facility's Provider.
type Slot struct {
	mu       sync.RWMutex
	provider Provider
}

// NewSlot returns an empty slot.
func NewSlot() *Slot {
	return &Slot{}
}

// Set installs p, replacing any previous provider.
func (s *Slot) Set(p Provider) {
	s.mu.Lock()
	s.provider = p
	s.mu.Unlock()
}

// Get returns the installed provider or ErrNotConfigured.
func (s *Slot) Get() (Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.provider == nil {
		return nil, ErrNotConfigured
	}
	return s.provider, nil
}

// Clear removes the provider.
func (s *Slot) Clear() {
	s.mu.Lock()
	s.provider = nil
	s.mu.Unlock()
}

// IsSet reports whether a provider is installed.
func (s *Slot) IsSet() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.provider != nil
}
