package cli

import (
	"fmt"

	"auction-house/internal/config"
	"auction-house/utils"

	"github.com/spf13/cobra"
)

// RootOptions holds the configuration shared by all commands
type RootOptions struct {
	Config config.Config
}

// NewRootCommand creates the root command of the auction server
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "auction-house",
		Short: "Auction bidding and lifecycle engine",
		Long: `Runs the auction house: bid admission, auction lifecycle, settlement
and the REST API. Configuration is read from AUCTION_* environment variables;
run "auction-house config" to list them.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := utils.SetLevel(cfg.LogLevel); err != nil {
				return fmt.Errorf("config: invalid log level %q: %w", cfg.LogLevel, err)
			}
			opts.Config = cfg
			return nil
		},
	}

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSweepCommand(opts))
	cmd.AddCommand(NewConfigCommand())

	return cmd
}
