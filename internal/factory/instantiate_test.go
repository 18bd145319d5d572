package factory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/beamline-core/internal/device"
	"github.com/nerrad567/beamline-core/internal/pathprovider"
)

func TestInstantiateAndConnectMock(t *testing.T) {
	f, m := newTestModule(t, "test")
	RegisterNamed(m, a)
	RegisterNamed(m, b)
	ctx := context.Background()

	res := Instantiate(ctx, Discover(m, DiscoverOptions{}), InstantiateOptions{})
	assert.Equal(t, []string{"a", "b"}, res.Devices.Names())
	assert.Zero(t, res.Errors.Len())

	ok, failed := Connect(ctx, res.Devices, ConnectOptions{Mock: true, Timeout: time.Second, Registry: f.Devices})
	assert.Equal(t, []string{"a", "b"}, ok.Names())
	assert.Zero(t, failed.Len())

	for _, n := range []string{"a", "b"} {
		e, found := f.Devices.Entry(n)
		require.True(t, found)
		assert.Equal(t, device.StateConnected, e.State)
	}
}

func TestInstantiateRecordsFactoryFailures(t *testing.T) {
	f, m := newTestModule(t, "test")
	RegisterNamed(m, a)
	Register(m, "b", failing)

	res := Instantiate(context.Background(), Discover(m, DiscoverOptions{}), InstantiateOptions{})
	assert.Equal(t, []string{"a"}, res.Devices.Names())
	assert.Equal(t, []string{"b"}, res.Errors.Names())

	err, _ := res.Errors.Get("b")
	var fe *FactoryError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "b", fe.Name)
	assert.ErrorIs(t, err, errBuildFail)

	kind, _ := res.Errors.Kind("b")
	assert.Equal(t, KindFactoryFailed, kind)
	assert.Equal(t, []string{"a"}, f.Devices.Names())
}

func TestInstantiateAllFailing(t *testing.T) {
	_, m := newTestModule(t, "test")
	for _, n := range []string{"x", "y", "z"} {
		Register(m, n, failing)
	}
	discovered := Discover(m, DiscoverOptions{})

	res := Instantiate(context.Background(), discovered, InstantiateOptions{})
	assert.Zero(t, res.Devices.Len())
	assert.Equal(t, len(discovered), res.Errors.Len())
}

func TestInstantiateIsSequential(t *testing.T) {
	f, m := newTestModule(t, "test")
	var order []string
	Register(m, "first", func(b *Build) (*simDevice, error) {
		order = append(order, "first")
		b.Facility().Paths.Set(pathprovider.NewStaticVisit("i22", t.TempDir(), nil))
		return &simDevice{}, nil
	})
	Register(m, "second", func(b *Build) (*simDevice, error) {
		order = append(order, "second")
		if _, err := b.PathProvider(); err != nil {
			return nil, err
		}
		return &simDevice{}, nil
	})

	res := Instantiate(context.Background(), Discover(m, DiscoverOptions{}), InstantiateOptions{})
	assert.Equal(t, []string{"first", "second"}, order)
	assert.Equal(t, []string{"first", "second"}, res.Devices.Names())
	assert.True(t, f.Paths.IsSet())
}

func TestInstantiatePathProviderMissing(t *testing.T) {
	_, m := newTestModule(t, "test")
	Register(m, "detector", func(b *Build) (*simDevice, error) {
		if _, err := b.PathProvider(); err != nil {
			return nil, err
		}
		return &simDevice{}, nil
	})

	res := Instantiate(context.Background(), Discover(m, DiscoverOptions{}), InstantiateOptions{})
	err, ok := res.Errors.Get("detector")
	require.True(t, ok)
	assert.ErrorIs(t, err, pathprovider.ErrNotConfigured)
}

func TestInstantiateConnectImmediately(t *testing.T) {
	_, m := newTestModule(t, "test")
	cause := errors.New("ioc down")
	Register(m, "good", newSim)
	Register(m, "bad", func(*Build) (*simDevice, error) { return &simDevice{fail: cause}, nil })

	res := Instantiate(context.Background(), Discover(m, DiscoverOptions{}), InstantiateOptions{
		ConnectImmediately: true,
		Timeout:            time.Second,
	})
	assert.Equal(t, []string{"good"}, res.Devices.Names())
	assert.Equal(t, []string{"bad"}, res.Errors.Names())

	kind, _ := res.Errors.Kind("bad")
	assert.Equal(t, KindConnectFailed, kind)
}

func TestInstantiateDisjointResults(t *testing.T) {
	_, m := newTestModule(t, "test")
	Register(m, "a", newSim)
	Register(m, "b", failing)
	Register(m, "c", newSim, SkipIf(true))
	Register(m, "d", failing)
	Register(m, "e", newSim)

	discovered := Discover(m, DiscoverOptions{})
	res := Instantiate(context.Background(), discovered, InstantiateOptions{})

	for _, n := range res.Devices.Names() {
		assert.False(t, res.Errors.Has(n), "%s in both maps", n)
	}
	for _, fac := range discovered {
		assert.True(t, res.Devices.Has(fac.Name()) || res.Errors.Has(fac.Name()), fac.Name())
	}
	assert.False(t, res.Devices.Has("c"))
}

func TestBuildResultConnectAggregates(t *testing.T) {
	_, m := newTestModule(t, "test")
	cause := errors.New("no IOC")
	Register(m, "ok", newSim)
	Register(m, "broken", failing)
	Register(m, "unplugged", func(*Build) (*simDevice, error) { return &simDevice{fail: cause}, nil })
	Register(m, "simulated", func(*Build) (*simDevice, error) { return &simDevice{hang: true}, nil }, Mock())

	ctx := context.Background()
	res := Instantiate(ctx, Discover(m, DiscoverOptions{}), InstantiateOptions{})
	conn := res.Connect(ctx, ConnectOptions{Timeout: 200 * time.Millisecond})

	assert.Equal(t, []string{"ok", "simulated"}, conn.Devices.Names())
	assert.Equal(t, []string{"broken"}, conn.BuildErrors.Names())
	assert.Equal(t, []string{"unplugged"}, conn.ConnectErrors.Names())

	err := conn.Err()
	require.ErrorIs(t, err, ErrNotConnected)
	assert.ErrorIs(t, err, ErrFactoryFailed)
	assert.ErrorIs(t, err, ErrConnectFailed)
	assert.ErrorIs(t, err, cause)

	var nc *NotConnectedError
	require.ErrorAs(t, err, &nc)
	assert.Equal(t, []string{"broken", "unplugged"}, nc.Failures.Names())
	assert.Contains(t, err.Error(), "unplugged")
}

func TestBuildResultConnectUsesFactoryTimeouts(t *testing.T) {
	_, m := newTestModule(t, "test")
	newSlow := func(*Build) (*legacyDevice, error) { return &legacyDevice{delay: 150 * time.Millisecond}, nil }
	Register(m, "impatient", newSlow, Timeout(50*time.Millisecond))
	Register(m, "patient", newSlow, Timeout(time.Second))

	ctx := context.Background()
	res := Instantiate(ctx, Discover(m, DiscoverOptions{}), InstantiateOptions{})

	conn := res.Connect(ctx, ConnectOptions{})
	assert.Equal(t, []string{"patient"}, conn.Devices.Names())
	err, _ := conn.ConnectErrors.Get("impatient")
	var te *TimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 50*time.Millisecond, te.Timeout)

	conn = res.Connect(ctx, ConnectOptions{Timeout: 100 * time.Millisecond})
	assert.Equal(t, []string{"impatient", "patient"}, conn.ConnectErrors.Names(), "bulk timeout overrides both")
}

func TestBuildResultConnectNoFailures(t *testing.T) {
	_, m := newTestModule(t, "test")
	Register(m, "ok", newSim)
	ctx := context.Background()

	res := Instantiate(ctx, Discover(m, DiscoverOptions{}), InstantiateOptions{})
	conn := res.Connect(ctx, ConnectOptions{})
	assert.NoError(t, conn.Err())
	assert.Equal(t, 1, conn.Devices.Len())
}
