package cli

import (
	"context"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "site_publisher",
	Short: "Clone, build and publish static sites",
	Long: `site_publisher clones a site repository, builds it with copy, hugo or jekyll,
and mirrors the result into object storage. Completed stages are skipped on re-runs.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Path to a config file (yaml, json or toml)")
	pf.String("log-level", "info", "Log level: debug|info|warn|error")
	pf.String("log-encoding", "console", "Log encoding: console|json")

	rootCmd.AddCommand(runCmd, buildCmd, publishCmd)
}

// Execute runs the root command. Cancelling ctx aborts in-flight clones,
// builds and uploads.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
