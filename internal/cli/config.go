package cli

import (
	"auction-house/internal/config"

	"github.com/spf13/cobra"
)

// NewConfigCommand creates the config command
func NewConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "List the supported AUCTION_* environment variables",
		Args:  cobra.NoArgs,
		// runs without loading the configuration, so a broken environment
		// can still be inspected
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			return config.Usage(cmd.OutOrStdout())
		},
	}
}
