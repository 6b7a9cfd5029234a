// Package cli wires the crystald commands.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/pzyt/crystal-healing/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "crystald",
	Short: "BaZi fortune analysis and crystal recommendation service",
	Long: `crystald derives BaZi birth charts, scores five-element balance and
fortune, and recommends healing crystals, exposed over a REST API with
pay-per-use credits.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "path to config.toml")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func loadConfig() (config.Config, error) {
	return config.Load(configPath)
}
