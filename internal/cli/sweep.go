package cli

import (
	"fmt"

	"auction-house/internal/scheduler"
	"auction-house/utils"

	"github.com/spf13/cobra"
)

// NewSweepCommand creates the sweep command
func NewSweepCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Close expired auctions once and exit",
		Long: `Runs a single expiry pass: pending auctions whose start passed are
activated, expired auctions are closed and settled. Useful from cron when
serve runs without its scheduler.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), rootOpts.Config, utils.SystemClock{})
			if err != nil {
				return err
			}
			defer a.Close()

			closed, err := scheduler.New(a.machine, rootOpts.Config.SweepInterval).Sweep(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "closed %d auction(s)\n", closed)
			return err
		},
	}
}
