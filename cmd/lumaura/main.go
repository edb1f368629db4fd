package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "lumaura",
		Short: "LUMAURA x XUVE portal evolution engine",
		Long: `lumaura scores the XUVE portal ecosystem.

Each portal earns an evolution score from recorded activity and from
recommendations other portals make to it. Scores map to Basic, Advanced
and Mastery tiers, and each tier unlocks capabilities.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "Config file (default: ./lumaura.yaml or ~/.lumaura/config.yaml)")
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("log-level", "", "Override logging.level (error, warn, info, debug, trace)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newServeCmd(),
		newMCPServerCmd(),
		newStatusCmd(),
		newRecommendCmd(),
		newBackupCmd(),
		newConfigCmd(),
	)
	return rootCmd
}
