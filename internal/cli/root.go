// Package cli implements the tasktracker command tree.
package cli

import (
	"github.com/spf13/cobra"
)

// Persistent flags shared by every subcommand.
var (
	configPath string
	logLevel   string
	logFormat  string
)

// rootCmd is the top of the command tree.
var rootCmd = &cobra.Command{
	Use:   "tasktracker",
	Short: "Dependency-aware task tracker",
	Long: `tasktracker keeps a population of tasks with dependencies, execution
state, and verification status, persisted as a snapshot on disk.

Examples:
  # Run the HTTP API
  tasktracker serve --listen 127.0.0.1:8080

  # Open the interactive dashboard
  tasktracker tui

  # Create a task group from a definition file
  tasktracker apply release.json`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. The caller decides the exit code.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "project config file (default .tasktracker/config.json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json, logfmt)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(versionCmd)
}
