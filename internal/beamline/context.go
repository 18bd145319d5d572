package beamline

import (
	"os"
	"sync"
)

// Context is the beamline identity shared by every factory of a facility.
//
// Devices capture prefixes when they are built. Changing identity bumps
// Generation so that factory caches can detect devices built for the
// previous beamline.
type Context struct {
	mu         sync.RWMutex
	id         string
	prefix     Prefix
	generation uint64
	getenv     func(string) string
}

// New creates an unset Context.
func New() *Context {
	return &Context{getenv: os.Getenv}
}

// Set installs the beamline identity. The BEAMLINE environment variable,
// when present, replaces id. Calling Set again with the same effective
// identity is a no-op.
func (c *Context) Set(id, suffix string) error {
	if v := c.getenv(EnvVar); v != "" {
		id = v
	}
	p, err := NewPrefix(id, suffix)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.id == id && c.prefix == p {
		return nil
	}
	c.id = id
	c.prefix = p
	c.generation++
	return nil
}

// IsSet reports whether Set has succeeded at least once.
func (c *Context) IsSet() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.id != ""
}

// ID returns the current beamline identifier, or "" before Set.
func (c *Context) ID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.id
}

// Prefix returns the derived prefixes or ErrNotSet.
func (c *Context) Prefix() (Prefix, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.id == "" {
		return Prefix{}, ErrNotSet
	}
	return c.prefix, nil
}

// BeamlinePrefix returns the end-station prefix, or "" before Set.
func (c *Context) BeamlinePrefix() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.prefix.Beamline
}

// InsertionPrefix returns the insertion-device prefix, or "" before Set.
func (c *Context) InsertionPrefix() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.prefix.Insertion
}

// Generation increments each time the effective identity changes.
func (c *Context) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}
