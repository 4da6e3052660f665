package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/humblenginr/site_publisher/config"
	"github.com/humblenginr/site_publisher/logger"
	"github.com/humblenginr/site_publisher/publish"
	"github.com/humblenginr/site_publisher/store"
)

// flagKeys maps command-line flags onto config keys.
var flagKeys = map[string]string{
	"log-level":    "logger.level",
	"log-encoding": "logger.encoding",
	"owner":        "site.owner",
	"repo":         "site.repo",
	"branch":       "site.branch",
	"base-url":     "site.base_url",
	"engine":       "site.build_engine",
	"work-dir":     "site.work_dir",
	"backend":      "publish.backend",
	"bucket":       "publish.bucket",
	"prefix":       "publish.prefix",
	"dry-run":      "publish.dry_run",
	"workers":      "publish.workers",
	"local-dir":    "publish.local_dir",
}

func addSiteFlags(fs *pflag.FlagSet) {
	fs.String("owner", "", "Repository owner")
	fs.String("repo", "", "Repository name")
	fs.String("branch", "", "Branch to build")
	fs.String("base-url", "", "Base URL passed to the generator")
	fs.String("engine", "", "Build engine: copy|hugo|jekyll")
	fs.String("work-dir", "", "Directory holding the clone and build output")
}

func addPublishFlags(fs *pflag.FlagSet) {
	fs.String("backend", "", "Object store backend: s3|sftp|memory")
	fs.String("bucket", "", "S3 bucket")
	fs.String("prefix", "", "Key prefix inside the bucket")
	fs.Bool("dry-run", false, "Report what would change without modifying the store")
	fs.Int("workers", 0, "Concurrent object operations")
}

// loadConfig reads the config file and environment, then overlays flags the
// user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	v, err := config.New(path)
	if err != nil {
		return nil, err
	}
	if err := bindFlags(v, cmd.Flags()); err != nil {
		return nil, err
	}
	return config.Decode(v)
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var err error
	fs.Visit(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || err != nil {
			return
		}
		err = v.BindPFlag(key, f)
	})
	return err
}

func noClose() error { return nil }

// openStore connects to the configured backend. The returned func releases
// any connection.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, func() error, error) {
	switch cfg.Publish.Backend {
	case "s3":
		s, err := store.NewS3(ctx, store.S3Options{
			Bucket:          cfg.Publish.Bucket,
			Region:          cfg.Publish.Region,
			Endpoint:        cfg.Publish.Endpoint,
			AccessKeyID:     cfg.Publish.AccessKeyID,
			SecretAccessKey: cfg.Publish.SecretAccessKey,
		})
		return s, noClose, err
	case "sftp":
		s, err := store.DialSFTP(store.SFTPOptions{
			Host:           cfg.SFTP.Host,
			Port:           cfg.SFTP.Port,
			User:           cfg.SFTP.User,
			Password:       cfg.SFTP.Password,
			PrivateKeyPath: cfg.SFTP.PrivateKeyPath,
			Root:           cfg.SFTP.Root,
			Timeout:        cfg.SFTP.Timeout,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case "memory":
		return store.NewMemory(), noClose, nil
	}
	return nil, nil, fmt.Errorf("%w: %q", config.ErrUnknownBackend, cfg.Publish.Backend)
}

func publishOptions(cfg *config.Config) publish.Options {
	rules := publish.Rules{Default: cfg.Publish.CacheControl}
	for _, r := range cfg.Publish.CacheRules {
		rules.Rules = append(rules.Rules, publish.Rule{Pattern: r.Pattern, CacheControl: r.CacheControl})
	}
	return publish.Options{
		LocalDir:   cfg.Publish.LocalDir,
		Prefix:     cfg.Publish.Prefix,
		Rules:      rules,
		DryRun:     cfg.Publish.DryRun,
		Workers:    cfg.Publish.Workers,
		MaxRetries: cfg.Publish.MaxRetries,
	}
}

func newLogger(cfg *config.Config) (*logger.Logger, error) {
	log, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return log, nil
}
