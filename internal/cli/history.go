package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nerrad567/beamline-core/internal/history"
)

// errHistoryDisabled is returned when the history database is not enabled.
var errHistoryDisabled = errors.New("connection history requires database.enabled")

func newHistoryCommand(a *app) *cobra.Command {
	var (
		limit    int
		failures bool
	)

	cmd := &cobra.Command{
		Use:   "history [beamline]",
		Short: "Show recent connection runs",
		Long: `Prints the latest connection runs recorded for the beamline, newest
first. With --failures each run is followed by its failed devices.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.cfg.Database.Enabled {
				return errHistoryDisabled
			}
			name, err := a.beamlineArg(args)
			if err != nil {
				return err
			}
			if limit < 1 {
				return fmt.Errorf("--limit must be positive, got %d", limit)
			}

			ctx := cmd.Context()
			db, err := a.openHistory(ctx)
			if err != nil {
				return err
			}
			defer db.Close()
			repo := history.NewSQLiteRepository(db.DB)

			runs, err := repo.ListRuns(ctx, name, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintf(out, "no runs recorded for %s\n", name)
				return nil
			}
			for _, run := range runs {
				mode := ""
				if run.Mock {
					mode = " simulated"
				}
				fmt.Fprintf(out, "%s  %s  %d/%d connected  %s%s\n",
					run.StartedAt.Local().Format("2006-01-02 15:04:05"),
					run.ID.String()[:8],
					run.Connected, run.Connected+run.Failed,
					run.Duration.Round(time.Millisecond), mode)

				if !failures || run.Failed == 0 {
					continue
				}
				failed, err := repo.Failures(ctx, run.ID)
				if err != nil {
					return err
				}
				for _, f := range failed {
					fmt.Fprintf(out, "    %s  %s  %s\n", f.Device, f.Kind, f.Error)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show")
	cmd.Flags().BoolVar(&failures, "failures", false, "list failed devices under each run")
	return cmd
}
