// Package cli wires the application together behind a cobra command
// tree.
package cli

import (
	"github.com/spf13/cobra"
)

// version is set by Execute from the build.
var version = "dev"

// configPath is the --config flag value, empty for defaults.
var configPath string

var rootCmd = &cobra.Command{
	Use:   "jobtrail",
	Short: "Job application tracking from your inbox",
	Long: `jobtrail watches a connected Gmail account for job application
email and turns it into structured application events.

Run "jobtrail serve" to start the API server.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"path to config file (TOML)")
}

// Execute runs the CLI with the given build version.
func Execute(v string) error {
	if v != "" {
		version = v
	}
	return rootCmd.Execute()
}
