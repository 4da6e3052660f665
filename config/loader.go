package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "SITE_PUBLISHER"

type Config struct {
	Site    SiteConfig    `mapstructure:"site"`
	Publish PublishConfig `mapstructure:"publish"`
	SFTP    SFTPConfig    `mapstructure:"sftp"`
	Logger  LoggerConfig  `mapstructure:"logger"`
}

type SiteConfig struct {
	Owner           string        `mapstructure:"owner"`
	Repo            string        `mapstructure:"repo"`
	Branch          string        `mapstructure:"branch"`
	GithubToken     string        `mapstructure:"github_token"`
	BaseURL         string        `mapstructure:"base_url"`
	BuildEngine     string        `mapstructure:"build_engine"`
	WorkDir         string        `mapstructure:"work_dir"`
	RubyVersionFile string        `mapstructure:"ruby_version_file"`
	NodeVersionFile string        `mapstructure:"node_version_file"`
	CloneRetries    uint64        `mapstructure:"clone_retries"`
	BuildTimeout    time.Duration `mapstructure:"build_timeout"`
}

type CacheRule struct {
	Pattern      string `mapstructure:"pattern"`
	CacheControl string `mapstructure:"cache_control"`
}

type PublishConfig struct {
	Backend         string      `mapstructure:"backend"`
	Bucket          string      `mapstructure:"bucket"`
	Prefix          string      `mapstructure:"prefix"`
	LocalDir        string      `mapstructure:"local_dir"`
	Region          string      `mapstructure:"region"`
	Endpoint        string      `mapstructure:"endpoint"`
	AccessKeyID     string      `mapstructure:"access_key_id"`
	SecretAccessKey string      `mapstructure:"secret_access_key"`
	CacheControl    string      `mapstructure:"cache_control"`
	CacheRules      []CacheRule `mapstructure:"cache_rules"`
	DryRun          bool        `mapstructure:"dry_run"`
	Workers         int         `mapstructure:"workers"`
	MaxRetries      uint64      `mapstructure:"max_retries"`
}

type SFTPConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	User           string        `mapstructure:"user"`
	Password       string        `mapstructure:"password"`
	PrivateKeyPath string        `mapstructure:"private_key_path"`
	Root           string        `mapstructure:"root"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

func (s *SFTPConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type LoggerConfig struct {
	Level       string   `mapstructure:"level"`
	Encoding    string   `mapstructure:"encoding"`
	OutputPaths []string `mapstructure:"output_paths"`
}

var (
	ErrMissingSite    = errors.New("config: site owner and repo are required")
	ErrMissingBucket  = errors.New("config: publish bucket is required for the s3 backend")
	ErrMissingHost    = errors.New("config: sftp host and user are required for the sftp backend")
	ErrUnknownBackend = errors.New("config: unknown publish backend")
)

// SetDefaults registers default values on v. Every key gets one, even if
// empty, so that environment overrides are seen by Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("site.owner", "")
	v.SetDefault("site.repo", "")
	v.SetDefault("site.github_token", "")
	v.SetDefault("site.base_url", "")
	v.SetDefault("site.branch", "main")
	v.SetDefault("site.build_engine", "copy")
	v.SetDefault("site.work_dir", ".")
	v.SetDefault("site.ruby_version_file", ".ruby-version")
	v.SetDefault("site.node_version_file", ".nvmrc")
	v.SetDefault("site.clone_retries", 3)
	v.SetDefault("site.build_timeout", 30*time.Minute)

	v.SetDefault("publish.backend", "s3")
	v.SetDefault("publish.bucket", "")
	v.SetDefault("publish.prefix", "")
	v.SetDefault("publish.local_dir", "")
	v.SetDefault("publish.endpoint", "")
	v.SetDefault("publish.access_key_id", "")
	v.SetDefault("publish.secret_access_key", "")
	v.SetDefault("publish.dry_run", false)
	v.SetDefault("publish.region", "us-east-1")
	v.SetDefault("publish.cache_control", "max-age=60")
	v.SetDefault("publish.workers", 1)
	v.SetDefault("publish.max_retries", 3)

	v.SetDefault("sftp.host", "")
	v.SetDefault("sftp.user", "")
	v.SetDefault("sftp.password", "")
	v.SetDefault("sftp.private_key_path", "")
	v.SetDefault("sftp.port", 22)
	v.SetDefault("sftp.root", ".")
	v.SetDefault("sftp.timeout", 30*time.Second)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "console")
}

// New returns a viper instance with defaults and environment binding. The
// config file is optional; an empty path skips it.
func New(path string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return v, nil
}

// Decode unmarshals v into a Config.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func Load(path string) (*Config, error) {
	v, err := New(path)
	if err != nil {
		return nil, err
	}
	return Decode(v)
}

// ValidateSite checks what the clone and build stages need.
func (c *Config) ValidateSite() error {
	if c.Site.Owner == "" || c.Site.Repo == "" {
		return ErrMissingSite
	}
	return nil
}

// ValidatePublish checks what the publish stage needs.
func (c *Config) ValidatePublish() error {
	switch c.Publish.Backend {
	case "s3":
		if c.Publish.Bucket == "" {
			return ErrMissingBucket
		}
	case "sftp":
		if c.SFTP.Host == "" || c.SFTP.User == "" {
			return ErrMissingHost
		}
	case "memory":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Publish.Backend)
	}
	return nil
}
