// Package cmd defines and implements the CLI commands for the pageharvest executable.
package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pageharvest",
		Short: "A concurrent product-page harvester for storefront catalogs.",
		Long: `pageharvest walks a storefront category listing with a headless
browser, collects every product address it paginates across, then fetches
and extracts the product pages with a bounded worker pool and retry rounds.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./pageharvest.yaml)")

	cmd.AddCommand(newHarvestCmd())

	return cmd
}

// Execute runs the CLI with the given context.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}
