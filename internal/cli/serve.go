package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nerrad567/beamline-core/internal/api"
	"github.com/nerrad567/beamline-core/internal/telemetry"
)

func newServeCommand(a *app) *cobra.Command {
	var fl passFlags

	cmd := &cobra.Command{
		Use:   "serve [beamline]",
		Short: "Connect a beamline and serve its devices over HTTP",
		Long: `Builds and connects the beamline like connect, then serves the device
registry, discovery listing, Prometheus metrics and a WebSocket feed of
device state changes until interrupted.

Failed devices are retried every connect.retry_interval (0 disables it).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runServe(cmd, args, fl)
		},
	}

	addPassFlags(cmd, &fl)
	return cmd
}

func (a *app) runServe(cmd *cobra.Command, args []string, fl passFlags) error {
	ctx := cmd.Context()

	name, err := a.beamlineArg(args)
	if err != nil {
		return err
	}
	s, err := a.openSession(ctx, name)
	if err != nil {
		return err
	}
	defer s.Close()

	metrics := telemetry.New()
	rep := a.openReporting(ctx, s, metrics)
	defer rep.Close()

	opts := a.passOptions(fl)
	report, _ := a.connectPass(ctx, s, opts)
	printReport(cmd.OutOrStdout(), report)
	_ = rep.fanout.Publish(ctx, report)

	connect := a.connectOptions(s, opts)
	connect.Registry = nil

	srv, err := api.New(api.Deps{
		Config:        a.cfg.API,
		WS:            a.cfg.WebSocket,
		Logger:        a.log,
		Module:        s.module,
		Metrics:       metrics,
		History:       rep.history,
		Connect:       connect,
		RetryInterval: a.cfg.Connect.RetryInterval,
		Version:       a.build.Version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "serving %s on http://%s\n", report.Beamline, srv.Addr())

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return srv.Close()
}
