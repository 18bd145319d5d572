package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/beamline-core/internal/factory"
	"github.com/nerrad567/beamline-core/internal/health"
	"github.com/nerrad567/beamline-core/internal/history"
	"github.com/nerrad567/beamline-core/internal/infrastructure/database"
	"github.com/nerrad567/beamline-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/beamline-core/internal/telemetry"
	"github.com/nerrad567/beamline-core/migrations"
)

// reporting is the set of sinks a connection report is published to.
type reporting struct {
	fanout  *health.FanOut
	history history.Repository
	metrics *telemetry.Metrics

	closers []func()
}

// openHistory opens and migrates the history database.
func (a *app) openHistory(ctx context.Context) (*database.DB, error) {
	db, err := database.Open(ctx, database.Config{
		Path:        a.cfg.Database.Path,
		WALMode:     a.cfg.Database.WALMode,
		BusyTimeout: a.cfg.Database.BusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Migrate(ctx, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}

// openReporting wires every enabled sink. A sink that cannot be opened is
// logged and left out; reporting never fails a run. metrics may be nil, in
// which case one is created only when a textfile is configured.
func (a *app) openReporting(ctx context.Context, s *session, metrics *telemetry.Metrics) *reporting {
	r := &reporting{fanout: health.NewFanOut(), metrics: metrics}
	r.fanout.SetLogger(a.log)

	if a.cfg.Database.Enabled {
		db, err := a.openHistory(ctx)
		if err != nil {
			a.log.Warn("connection history disabled", "error", err)
		} else {
			repo := history.NewSQLiteRepository(db.DB)
			r.history = repo
			r.fanout.Add(history.NewSink(repo))
			r.closers = append(r.closers, func() { _ = db.Close() })
		}
	}

	if s.mqtt != nil {
		r.fanout.Add(health.NewMQTTSink(s.mqtt, s.mqtt.Topics(), s.mqtt.QoS()))
	}

	if a.cfg.InfluxDB.Enabled {
		client, err := influxdb.Connect(ctx, a.cfg.InfluxDB)
		if err != nil {
			a.log.Warn("InfluxDB reporting disabled", "error", err)
		} else {
			client.SetOnError(func(err error) {
				a.log.Error("InfluxDB write error", "error", err)
			})
			r.fanout.Add(health.NewInfluxSink(client))
			r.closers = append(r.closers, func() { _ = client.Close() })
		}
	}

	if r.metrics == nil && a.cfg.Metrics.Textfile != "" {
		r.metrics = telemetry.New()
	}
	if r.metrics != nil {
		r.fanout.Add(telemetry.NewSink(r.metrics, a.cfg.Metrics.Textfile))
	}

	a.log.Debug("report sinks ready", "sinks", r.fanout.Sinks())
	return r
}

func (r *reporting) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
	r.closers = nil
}

// passOptions selects what one connection pass covers.
type passOptions struct {
	all        bool
	mock       bool
	moduleOnly bool
	timeout    time.Duration
}

// connectPass discovers, builds and connects the session's devices and
// returns the outcome as a report.
func (a *app) connectPass(ctx context.Context, s *session, opts passOptions) (*health.Report, *factory.ConnectionResult) {
	started := time.Now()

	found := factory.Discover(s.module, factory.DiscoverOptions{
		IncludeSkipped: opts.all,
		ModuleOnly:     opts.moduleOnly,
	})
	built := factory.Instantiate(ctx, found, factory.InstantiateOptions{Mock: opts.mock})
	res := built.Connect(ctx, a.connectOptions(s, opts))

	report := health.NewReport(s.facility.Beamline.ID(), started, time.Now(), opts.mock, res)
	a.log.Info("connection pass complete",
		"beamline", report.Beamline,
		"run_id", report.RunID.String(),
		"connected", len(report.Connected),
		"failed", len(report.Failures),
		"duration", report.Duration,
	)
	return report, res
}

func (a *app) connectOptions(s *session, opts passOptions) factory.ConnectOptions {
	return factory.ConnectOptions{
		Mock:          opts.mock,
		Timeout:       opts.timeout,
		MaxConcurrent: a.cfg.Connect.MaxConcurrent,
		Registry:      s.facility.Devices,
		Logger:        a.log,
	}
}

// passFlags are the flags connect and serve share.
type passFlags struct {
	all        bool
	sim        bool
	moduleOnly bool
	timeout    time.Duration
}

// passOptions resolves the flags against the configuration. A zero timeout
// leaves each factory's own timeout in force.
func (a *app) passOptions(fl passFlags) passOptions {
	timeout := fl.timeout
	if timeout <= 0 {
		timeout = a.cfg.Connect.Timeout
	}
	return passOptions{
		all:        fl.all,
		mock:       fl.sim || a.cfg.Connect.Mock,
		moduleOnly: fl.moduleOnly,
		timeout:    timeout,
	}
}
