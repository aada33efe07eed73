package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Build metadata, overridable at link time with
// -ldflags "-X github.com/osada/npcmind/cmd.Version=..."
var (
	// Version is the release version
	Version = "0.1.0"
	// GitCommit is the git commit the binary was built from
	GitCommit = "unknown"
	// BuildDate is the build timestamp
	BuildDate = "unknown"
)

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("npcmind version %s (commit %s, built %s)\n",
			Version, GitCommit, BuildDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
