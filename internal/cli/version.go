package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version metadata, injected via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
)

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("tasktracker %s (%s)\n", Version, Commit)
	},
}
