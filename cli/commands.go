package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/humblenginr/site_publisher/logger"
	"github.com/humblenginr/site_publisher/pipeline"
	"github.com/humblenginr/site_publisher/publish"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Clone, build and publish the site",
	Long: `Clone the site repository, build it with the configured engine and mirror
the build output into the configured store. Stages whose output already
exists in the work directory are skipped.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Clone and build the site without publishing",
	Args:  cobra.NoArgs,
	RunE:  runBuild,
}

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Mirror an existing build directory into the store",
	Args:  cobra.NoArgs,
	RunE:  runPublish,
}

func init() {
	addSiteFlags(runCmd.Flags())
	addPublishFlags(runCmd.Flags())

	addSiteFlags(buildCmd.Flags())

	addPublishFlags(publishCmd.Flags())
	publishCmd.Flags().String("work-dir", "", "Directory holding the build output")
	publishCmd.Flags().String("local-dir", "", "Directory to publish (defaults to <work-dir>/"+pipeline.SiteDirName+")")
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	params, err := pipeline.ParamsFromConfig(cfg.Site)
	if err != nil {
		return err
	}
	if err := cfg.ValidatePublish(); err != nil {
		return err
	}

	st, closeStore, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", cfg.Publish.Backend, err)
	}
	defer closeStore()

	p, err := pipeline.New(params, publish.New(st, log), log)
	if err != nil {
		return err
	}
	report, err := p.Run(cmd.Context(), publishOptions(cfg))
	return finish(cmd, log, report, err)
}

func runBuild(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	params, err := pipeline.ParamsFromConfig(cfg.Site)
	if err != nil {
		return err
	}
	p, err := pipeline.New(params, nil, log)
	if err != nil {
		return err
	}
	report, err := p.Build(cmd.Context())
	return finish(cmd, log, report, err)
}

func runPublish(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	if err := cfg.ValidatePublish(); err != nil {
		return err
	}
	opts := publishOptions(cfg)
	if opts.LocalDir == "" {
		opts.LocalDir = filepath.Join(cfg.Site.WorkDir, pipeline.SiteDirName)
	}

	st, closeStore, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", cfg.Publish.Backend, err)
	}
	defer closeStore()

	report, err := pipeline.Publish(cmd.Context(), publish.New(st, log), log, opts)
	return finish(cmd, log, report, err)
}

// finish prints the summary and passes err through so the process exits
// non-zero on failure.
func finish(cmd *cobra.Command, log *logger.Logger, report *pipeline.Report, err error) error {
	if report != nil {
		fmt.Fprint(cmd.OutOrStdout(), renderReport(report))
	}
	if err != nil {
		log.Debugw("run failed", "error", err)
	}
	return err
}
