// Package cmd implements the CLI commands for effluent-watch.
package cmd

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "effluent-watch",
	Short: "Real-time status evaluation and alerting for a wastewater plant",
	Long: "effluent-watch polls the plant monitoring API, classifies every zone sensor,\n" +
		"measured effluent value and predicted effluent value against configurable\n" +
		"thresholds, and raises an alert each time a quantity turns abnormal.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(versionCommand())
}

// Root returns the root cobra command for documentation generation.
func Root() *cobra.Command {
	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
