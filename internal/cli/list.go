package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nerrad567/beamline-core/internal/factory"
)

func newListCommand(a *app) *cobra.Command {
	var all, moduleOnly bool

	cmd := &cobra.Command{
		Use:   "list [beamline]",
		Short: "List the factories a beamline declares",
		Long: `Lists the beamline's factories in discovery order without building any
device. Skip predicates are evaluated against the current beamline.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := a.beamlineArg(args)
			if err != nil {
				return err
			}
			_, m, err := a.describe(name)
			if err != nil {
				return err
			}

			found := factory.Discover(m, factory.DiscoverOptions{
				IncludeSkipped: all,
				ModuleOnly:     moduleOnly,
			})

			width := len("FACTORY")
			for _, f := range found {
				width = max(width, len(f.Name()))
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-*s  %-8s  %-5s  %-8s  %s\n", width, "FACTORY", "MODULE", "SKIP", "TIMEOUT", "MOCK")
			for _, f := range found {
				cfg := f.Config()
				fmt.Fprintf(out, "%-*s  %-8s  %-5t  %-8s  %t\n",
					width, f.Name(), f.Module(), f.Skip(), cfg.Timeout, cfg.Mock)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include factories that are skipped by default")
	cmd.Flags().BoolVar(&moduleOnly, "module-only", false, "ignore factories shared from other modules")
	return cmd
}
