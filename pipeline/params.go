package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
	"time"

	"github.com/humblenginr/site_publisher/config"
)

const (
	CloneDirName = "clone"
	SiteDirName  = "site_build"
)

// Params identify one site build. Every task built from the same Params
// shares the same identity key.
type Params struct {
	Owner   string
	Repo    string
	Branch  string
	Token   string
	WorkDir string
	BaseURL string
	Engine  Engine

	RubyVersionFile string
	NodeVersionFile string
	CloneRetries    uint64
	BuildTimeout    time.Duration
}

// ParamsFromConfig validates the site section and resolves the engine.
func ParamsFromConfig(c config.SiteConfig) (Params, error) {
	if c.Owner == "" {
		return Params{}, &ConfigurationError{Field: "owner", Value: c.Owner}
	}
	if c.Repo == "" {
		return Params{}, &ConfigurationError{Field: "repo", Value: c.Repo}
	}
	engine, err := ParseEngine(c.BuildEngine)
	if err != nil {
		return Params{}, err
	}
	return Params{
		Owner:           c.Owner,
		Repo:            c.Repo,
		Branch:          c.Branch,
		Token:           c.GithubToken,
		WorkDir:         c.WorkDir,
		BaseURL:         c.BaseURL,
		Engine:          engine,
		RubyVersionFile: c.RubyVersionFile,
		NodeVersionFile: c.NodeVersionFile,
		CloneRetries:    c.CloneRetries,
		BuildTimeout:    c.BuildTimeout,
	}, nil
}

func (p Params) CloneDir() string { return filepath.Join(p.WorkDir, CloneDirName) }

func (p Params) SiteDir() string { return filepath.Join(p.WorkDir, SiteDirName) }

// Key renders the identifying parameters. The token enters as a digest so
// task IDs can be logged.
func (p Params) Key() string {
	token := ""
	if p.Token != "" {
		sum := sha256.Sum256([]byte(p.Token))
		token = hex.EncodeToString(sum[:4])
	}
	return strings.Join([]string{
		p.Owner + "/" + p.Repo + "@" + p.Branch,
		"work=" + filepath.Clean(p.WorkDir),
		"base=" + p.BaseURL,
		"engine=" + p.Engine.String(),
		"token=" + token,
	}, ",")
}
