// Package cmd implements the quotad command line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "quotad",
	Short: "Request-throttling front for an API server",
	Long: `quotad sits in front of an upstream API and rejects requests whose
caller has exceeded the configured per-minute, per-hour or per-day quota
for an operation. Counters live in a shared Redis, so the quota holds
across every quotad replica.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file (yaml)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}
