package device

import (
	"context"
	"time"
)

// Device is the contract every beamline device satisfies.
// Beyond naming, devices are opaque to the registry and the factory layer.
type Device interface {
	Name() string
	SetName(name string)
}

// Connector is implemented by devices that connect cooperatively.
// Connect must return promptly once ctx is done.
// When mock is true the device must not perform any I/O.
type Connector interface {
	Device
	Connect(ctx context.Context, mock bool, timeout time.Duration) error
}

// Waiter is implemented by legacy devices that block until connected.
// WaitForConnection runs on the caller's goroutine and must return by
// timeout; a wait that overruns it is reported as timed out even if it
// then succeeds.
type Waiter interface {
	Device
	WaitForConnection(timeout time.Duration) error
}

// Strategy identifies how a device is brought to the connected state.
type Strategy int

const (
	// StrategyNone means the device has no connection step.
	StrategyNone Strategy = iota

	// StrategyBlocking means the device exposes WaitForConnection.
	StrategyBlocking

	// StrategyCooperative means the device exposes Connect.
	StrategyCooperative
)

// String returns the strategy name used in logs and API responses.
func (s Strategy) String() string {
	switch s {
	case StrategyBlocking:
		return "blocking"
	case StrategyCooperative:
		return "cooperative"
	default:
		return "none"
	}
}

// StrategyOf reports the connection strategy a device advertises.
// Cooperative wins when a device implements both interfaces.
func StrategyOf(d Device) Strategy {
	if _, ok := d.(Connector); ok {
		return StrategyCooperative
	}
	if _, ok := d.(Waiter); ok {
		return StrategyBlocking
	}
	return StrategyNone
}

// State is the lifecycle state of a registered device.
type State string

const (
	// StateBuilt means the device exists but has not connected.
	StateBuilt State = "built"

	// StateConnected means the last connection attempt succeeded.
	StateConnected State = "connected"
)

// Entry is a snapshot of one registry slot.
type Entry struct {
	Name      string
	Device    Device
	Type      string
	Strategy  Strategy
	State     State
	LastError error
	UpdatedAt time.Time
}
