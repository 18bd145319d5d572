package factory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/beamline-core/internal/device"
)

func deviceSet(devs ...device.Device) *DeviceSet {
	s := NewDeviceSet()
	for _, d := range devs {
		s.Add(d.Name(), d)
	}
	return s
}

func TestConnectTimesOutHangingDeviceOnce(t *testing.T) {
	set := deviceSet(
		&simDevice{name: "fast", delay: 100 * time.Millisecond},
		&simDevice{name: "slow", delay: 200 * time.Millisecond},
		&simDevice{name: "hang", hang: true},
	)

	start := time.Now()
	ok, failed := Connect(context.Background(), set, ConnectOptions{Timeout: 500 * time.Millisecond})
	elapsed := time.Since(start)

	assert.Equal(t, []string{"fast", "slow"}, ok.Names())
	assert.Equal(t, []string{"hang"}, failed.Names())

	err, _ := failed.Get("hang")
	var te *TimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "hang", te.Name)

	assert.GreaterOrEqual(t, elapsed, 450*time.Millisecond)
	assert.Less(t, elapsed, 1200*time.Millisecond, "batch shares one deadline")
}

func TestConnectMockNeverFails(t *testing.T) {
	set := deviceSet(
		&simDevice{name: "hang", hang: true},
		&simDevice{name: "broken", fail: errors.New("nope")},
		&legacyDevice{name: "legacy", fail: errors.New("nope")},
	)
	ok, failed := Connect(context.Background(), set, ConnectOptions{Mock: true, Timeout: 50 * time.Millisecond})
	assert.Equal(t, 3, ok.Len())
	assert.Zero(t, failed.Len())
}

func TestConnectPreservesKeys(t *testing.T) {
	cause := errors.New("refused")
	set := deviceSet(
		&legacyDevice{name: "shutter"},
		&simDevice{name: "det"},
		&otherDevice{name: "static"},
		&legacyDevice{name: "old", fail: cause},
		&simDevice{name: "bad", fail: cause},
	)

	ok, failed := Connect(context.Background(), set, ConnectOptions{Timeout: time.Second})

	assert.Equal(t, []string{"shutter", "det", "static"}, ok.Names())
	assert.Equal(t, []string{"old", "bad"}, failed.Names())
	assert.ElementsMatch(t, set.Names(), append(ok.Names(), failed.Names()...))

	for _, n := range failed.Names() {
		kind, _ := failed.Kind(n)
		assert.Equal(t, KindConnectFailed, kind, n)
	}
}

func TestConnectBlockingDevicesRunFirst(t *testing.T) {
	legacy := &legacyDevice{name: "legacy"}
	coop := &orderedDevice{name: "coop", legacy: legacy}
	set := deviceSet(coop, legacy)

	ok, failed := Connect(context.Background(), set, ConnectOptions{Timeout: time.Second})
	assert.Zero(t, failed.Len())
	assert.Equal(t, 2, ok.Len())
	assert.True(t, coop.sawLegacy)
}

func TestConnectWaiterOverrunningTimeout(t *testing.T) {
	slow := &legacyDevice{name: "slow", delay: 300 * time.Millisecond}
	quick := &legacyDevice{name: "quick"}
	set := deviceSet(slow, quick)

	ok, failed := Connect(context.Background(), set, ConnectOptions{Timeout: 100 * time.Millisecond})
	assert.Equal(t, []string{"quick"}, ok.Names())
	assert.Equal(t, []string{"slow"}, failed.Names())

	err, _ := failed.Get("slow")
	assert.ErrorIs(t, err, ErrTimedOut)
	assert.Equal(t, KindTimedOut, KindOf(err))
}

// orderedDevice records whether legacy had been waited on when it connected.
type orderedDevice struct {
	name      string
	legacy    *legacyDevice
	sawLegacy bool
}

func (d *orderedDevice) Name() string        { return d.name }
func (d *orderedDevice) SetName(name string) { d.name = name }

func (d *orderedDevice) Connect(context.Context, bool, time.Duration) error {
	d.sawLegacy = d.legacy.waits.Load() == 1
	return nil
}

func TestConnectMarksRegistry(t *testing.T) {
	reg := device.NewRegistry()
	good := &simDevice{name: "good"}
	bad := &simDevice{name: "bad", fail: errors.New("refused")}
	for _, d := range []device.Device{good, bad} {
		_, err := reg.Put(d.Name(), d)
		require.NoError(t, err)
	}

	_, _ = Connect(context.Background(), deviceSet(good, bad), ConnectOptions{Registry: reg})

	e, _ := reg.Entry("good")
	assert.Equal(t, device.StateConnected, e.State)
	e, _ = reg.Entry("bad")
	assert.Equal(t, device.StateBuilt, e.State)
	assert.Error(t, e.LastError)

	_, still := reg.Get("bad")
	assert.True(t, still, "failed devices stay registered")
}

func TestConnectMaxConcurrent(t *testing.T) {
	set := NewDeviceSet()
	for _, n := range []string{"a", "b", "c", "d"} {
		set.Add(n, &simDevice{name: n, delay: 30 * time.Millisecond})
	}

	start := time.Now()
	ok, failed := Connect(context.Background(), set, ConnectOptions{Timeout: time.Second, MaxConcurrent: 2})
	assert.Equal(t, 4, ok.Len())
	assert.Zero(t, failed.Len())
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}

func TestConnectCancelledParent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ok, failed := Connect(ctx, deviceSet(&simDevice{name: "det", delay: time.Second}), ConnectOptions{Timeout: time.Second})
	assert.Zero(t, ok.Len())
	require.Equal(t, 1, failed.Len())
	err, _ := failed.Get("det")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want Kind
	}{
		{&FactoryError{Name: "x", Err: errBuildFail}, KindFactoryFailed},
		{&ConnectError{Name: "x", Err: errBuildFail}, KindConnectFailed},
		{&TimeoutError{Name: "x", Timeout: time.Second}, KindTimedOut},
		{&device.DuplicateNameError{Name: "x"}, KindDuplicateName},
		{errors.New("other"), KindUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, KindOf(tt.err), "%T", tt.err)
	}
}
