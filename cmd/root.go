// Package cmd implements the command-line interface for the talent
// intelligence enrichment pipeline. It provides the root command and
// subcommands for running enrichment, discovery, and the operational API.
package cmd

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ckerr6/talent-intelligence-complete-sub005/cmd/discover"
	"github.com/ckerr6/talent-intelligence-complete-sub005/cmd/enrich"
	"github.com/ckerr6/talent-intelligence-complete-sub005/cmd/serve"
	"github.com/ckerr6/talent-intelligence-complete-sub005/cmd/status"
	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/config"
)

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// Debug enables debug mode for all commands
	Debug bool

	// rootCmd represents the root command for the CLI.
	rootCmd = &cobra.Command{
		Use:   "talentd",
		Short: "A talent intelligence enrichment pipeline",
		Long: `A pipeline that discovers developer profiles, enriches them with skill
and activity signals, and resolves them into a deduplicated entity registry.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command
func Execute() error {
	// Load .env early so environment variables are available to every
	// command; the config loader also does this, but flag parsing can
	// consult the environment before config loads.
	_ = godotenv.Load()

	return rootCmd.ExecuteContext(context.Background())
}

// init initializes the root command and its subcommands.
func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		config.GetConfigPath("config.yml"),
		"config file path (CONFIG_PATH env var overrides the default)",
	)
	rootCmd.PersistentFlags().BoolVar(&Debug, "debug", false, "enable debug mode")

	// Add version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("talentd version %s\n", "1.0.0")
		},
	})

	// Add subcommands
	rootCmd.AddCommand(enrich.Command())
	rootCmd.AddCommand(discover.Command())
	rootCmd.AddCommand(status.Command())
	rootCmd.AddCommand(serve.Command())
}
