package pv

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrOffline is returned by the Offline transport.
var ErrOffline = errors.New("pv: no transport configured")

// ErrUnreachable is wrapped when a PV cannot be reached before ctx is done.
var ErrUnreachable = errors.New("pv: unreachable")

// Transport reports when PVs become reachable.
type Transport interface {
	// Reach blocks until pv is reachable or ctx is done.
	Reach(ctx context.Context, pv string) error
	// Name identifies the transport in logs.
	Name() string
}

// Offline is the transport used when no PV gateway is configured.
type Offline struct{}

// Reach always fails.
func (Offline) Reach(_ context.Context, pv string) error {
	return fmt.Errorf("%w: %s", ErrOffline, pv)
}

// Name returns "offline".
func (Offline) Name() string { return "offline" }

// Mock reaches every PV, after an optional delay.
// A PV listed in Hang never becomes reachable.
type Mock struct {
	mu     sync.Mutex
	delays map[string]time.Duration
	hang   map[string]bool
	calls  map[string]int
}

// NewMock returns a Mock with no delays.
func NewMock() *Mock {
	return &Mock{
		delays: make(map[string]time.Duration),
		hang:   make(map[string]bool),
		calls:  make(map[string]int),
	}
}

// Delay makes pv reachable only after d.
func (m *Mock) Delay(pv string, d time.Duration) *Mock {
	m.mu.Lock()
	m.delays[pv] = d
	m.mu.Unlock()
	return m
}

// Hang makes pv unreachable forever.
func (m *Mock) Hang(pv string) *Mock {
	m.mu.Lock()
	m.hang[pv] = true
	m.mu.Unlock()
	return m
}

// Calls returns how many times pv was requested.
func (m *Mock) Calls(pv string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[pv]
}

// Reach waits for the configured delay.
func (m *Mock) Reach(ctx context.Context, pv string) error {
	m.mu.Lock()
	m.calls[pv]++
	d, hang := m.delays[pv], m.hang[pv]
	m.mu.Unlock()

	if hang {
		<-ctx.Done()
		return fmt.Errorf("%w: %s: %w", ErrUnreachable, pv, ctx.Err())
	}
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %s: %w", ErrUnreachable, pv, ctx.Err())
	}
}

// Name returns "mock".
func (m *Mock) Name() string { return "mock" }
