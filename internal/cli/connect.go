package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/nerrad567/beamline-core/internal/health"
)

func newConnectCommand(a *app) *cobra.Command {
	var fl passFlags

	cmd := &cobra.Command{
		Use:   "connect [beamline]",
		Short: "Build and connect every device of a beamline",
		Long: `Builds every device the beamline declares, connects them and prints
the devices that could not be reached.

Detectors write into a throwaway visit directory. The run is recorded in
every enabled report sink (history, MQTT, InfluxDB, metrics textfile).

Exit status is 0 when every device connected, 1 when any did not, and 2
for any other error.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runConnect(cmd, args, fl)
		},
	}

	addPassFlags(cmd, &fl)
	return cmd
}

func addPassFlags(cmd *cobra.Command, fl *passFlags) {
	cmd.Flags().BoolVar(&fl.all, "all", false, "include factories that are skipped by default")
	cmd.Flags().BoolVar(&fl.sim, "sim-backend", false, "connect every device in simulation")
	cmd.Flags().BoolVar(&fl.moduleOnly, "module-only", false, "ignore devices shared from other modules")
	cmd.Flags().DurationVar(&fl.timeout, "timeout", 0, "connection timeout for every device (default connect.timeout, then each factory's own)")
}

func (a *app) runConnect(cmd *cobra.Command, args []string, fl passFlags) error {
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

	rep := a.openReporting(ctx, s, nil)
	defer rep.Close()

	report, res := a.connectPass(ctx, s, a.passOptions(fl))
	printReport(cmd.OutOrStdout(), report)

	// Sink failures are logged by the fan-out and never change the outcome.
	_ = rep.fanout.Publish(ctx, report)

	if err := res.Err(); err != nil {
		return fmt.Errorf("%s: %w", report.Beamline, err)
	}
	return nil
}

// printReport writes the connected count and one line per failure.
func printReport(w io.Writer, r *health.Report) {
	mode := ""
	if r.Mock {
		mode = " (simulated)"
	}
	fmt.Fprintf(w, "%s: %d of %d devices connected in %s%s\n",
		r.Beamline, len(r.Connected), r.Total(), r.Duration.Round(time.Millisecond), mode)

	if len(r.Failures) == 0 {
		return
	}
	width := 0
	for _, f := range r.Failures {
		width = max(width, len(f.Device))
	}
	fmt.Fprintf(w, "%d failed:\n", len(r.Failures))
	for _, f := range r.Failures {
		fmt.Fprintf(w, "  %-*s  %-14s  %s\n", width, f.Device, f.Kind, f.Error)
	}
}
