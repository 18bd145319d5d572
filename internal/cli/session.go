package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/nerrad567/beamline-core/internal/beamlines"
	"github.com/nerrad567/beamline-core/internal/factory"
	"github.com/nerrad567/beamline-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/beamline-core/internal/pathprovider"
	"github.com/nerrad567/beamline-core/internal/pv"
)

// session is one described beamline with its transport and path provider
// installed. Close releases everything it opened.
type session struct {
	facility *factory.Facility
	module   *factory.Module
	visit    *pathprovider.StaticVisit
	mqtt     *mqtt.Client

	closers []func()
}

// describe builds the facility and module for name without touching the
// network or the filesystem.
func (a *app) describe(name string) (*factory.Facility, *factory.Module, error) {
	describer, err := beamlines.Lookup(name)
	if err != nil {
		return nil, nil, err
	}
	f := factory.NewFacility()
	f.SetLogger(a.log)

	m, err := describer(f)
	if err != nil {
		return nil, nil, err
	}
	if suffix := a.cfg.Beamline.PrefixSuffix; suffix != "" {
		if err := f.Beamline.Set(f.Beamline.ID(), suffix); err != nil {
			return nil, nil, fmt.Errorf("applying prefix suffix: %w", err)
		}
	}
	return f, m, nil
}

// openSession describes name, connects the PV transport and installs a
// visit path provider.
func (a *app) openSession(ctx context.Context, name string) (*session, error) {
	f, m, err := a.describe(name)
	if err != nil {
		return nil, err
	}
	s := &session{facility: f, module: m}

	if a.cfg.MQTT.Enabled {
		client, err := mqtt.Connect(a.cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("connecting to MQTT: %w", err)
		}
		client.SetLogger(a.log)
		s.mqtt = client
		s.closers = append(s.closers, func() {
			if err := client.Close(); err != nil {
				a.log.Warn("closing MQTT", "error", err)
			}
		})
		a.log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", a.cfg.MQTT.Broker.Host, a.cfg.MQTT.Broker.Port),
		)
	}

	if a.cfg.PV.Transport == "mqtt" {
		f.Transport = pv.NewMQTTTransport(s.mqtt, s.mqtt.Topics(), s.mqtt.QoS())
	}

	if err := a.installPaths(ctx, s); err != nil {
		s.Close()
		return nil, err
	}

	a.log.Debug("beamline described",
		"beamline", f.Beamline.ID(),
		"module", m.Name(),
		"transport", f.Transport.Name(),
	)
	return s, nil
}

// installPaths sets a StaticVisit on the facility. Without paths.root the
// visit lives in a temporary directory removed on Close.
func (a *app) installPaths(ctx context.Context, s *session) error {
	root := a.cfg.Paths.Root
	if root == "" {
		dir, err := os.MkdirTemp("", "beamline-"+s.facility.Beamline.ID()+"-")
		if err != nil {
			return fmt.Errorf("creating visit directory: %w", err)
		}
		root = dir
		s.closers = append(s.closers, func() { _ = os.RemoveAll(dir) })
	}

	var client pathprovider.CollectionClient = pathprovider.NewLocalCollectionClient(0)
	if url := a.cfg.Paths.NumtrackerURL; url != "" {
		client = pathprovider.NewRemoteCollectionClient(url)
	}

	visit := pathprovider.NewStaticVisit(s.facility.Beamline.ID(), root, client)
	if err := visit.Update(ctx); err != nil {
		return fmt.Errorf("starting collection: %w", err)
	}
	s.facility.Paths.Set(visit)
	s.visit = visit
	return nil
}

// Close releases resources in reverse order of acquisition.
func (s *session) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}
