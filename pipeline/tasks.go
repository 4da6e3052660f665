package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/humblenginr/site_publisher/dag"
	"github.com/humblenginr/site_publisher/logger"
	"github.com/humblenginr/site_publisher/site"
)

// CloneTask checks out the site repository into the clone directory.
type CloneTask struct {
	p   Params
	log *logger.Logger
}

func (t CloneTask) ID() string             { return "clone:" + t.p.Key() }
func (t CloneTask) Deps() []dag.Task       { return nil }
func (t CloneTask) Output() dag.Target     { return dag.DirTarget{Path: t.p.CloneDir()} }
func (t CloneTask) Timeout() time.Duration { return 0 }
func (t CloneTask) Run(ctx context.Context) (dag.Outcome, error) {
	t.log.Infow("cloning repository", "owner", t.p.Owner, "repo", t.p.Repo, "branch", t.p.Branch)
	dir, err := site.Clone(ctx, site.CloneOptions{
		Owner:   t.p.Owner,
		Repo:    t.p.Repo,
		Branch:  t.p.Branch,
		Token:   t.p.Token,
		Dest:    t.p.CloneDir(),
		Retries: t.p.CloneRetries,
	})
	if err != nil {
		return dag.Done(), err
	}
	t.log.Infow("cloned repository", "dir", dir)
	return dag.Done(), nil
}

// BuildTask picks the engine task for the configured engine. Which engine
// runs is only decided here, after the clone exists.
type BuildTask struct {
	p           Params
	log         *logger.Logger
	diagnostics func() site.Diagnostics
}

func (t BuildTask) ID() string             { return "build:" + t.p.Key() }
func (t BuildTask) Deps() []dag.Task       { return []dag.Task{CloneTask{p: t.p, log: t.log}} }
func (t BuildTask) Output() dag.Target     { return dag.DirTarget{Path: t.p.SiteDir()} }
func (t BuildTask) Timeout() time.Duration { return 0 }
func (t BuildTask) Run(ctx context.Context) (dag.Outcome, error) {
	t.log.Infow("build engine selected", "engine", t.p.Engine.String())
	if t.diagnostics != nil {
		t.log.Infow("build environment", t.diagnostics().Fields()...)
	}

	engine, err := t.engineTask()
	if err != nil {
		return dag.Done(), err
	}
	return dag.MoreWork(engine), nil
}

func (t BuildTask) engineTask() (dag.Task, error) {
	switch t.p.Engine {
	case EngineCopy:
		return CopyTask{p: t.p, log: t.log}, nil
	case EngineHugo:
		return HugoTask{p: t.p, log: t.log}, nil
	case EngineJekyll:
		return JekyllTask{p: t.p, log: t.log}, nil
	}
	return nil, &ConfigurationError{Field: "build_engine", Value: t.p.Engine.String()}
}

// CopyTask publishes the repository as-is, minus version control metadata.
type CopyTask struct {
	p   Params
	log *logger.Logger
}

func (t CopyTask) ID() string             { return "copy:" + t.p.Key() }
func (t CopyTask) Deps() []dag.Task       { return []dag.Task{CloneTask{p: t.p, log: t.log}} }
func (t CopyTask) Output() dag.Target     { return dag.DirTarget{Path: t.p.SiteDir()} }
func (t CopyTask) Timeout() time.Duration { return t.p.BuildTimeout }
func (t CopyTask) Run(ctx context.Context) (dag.Outcome, error) {
	t.log.Infow("copying repository files", "dest", t.p.SiteDir())
	return dag.Done(), site.CopyTree(t.p.CloneDir(), t.p.SiteDir())
}

// HugoTask builds the site with hugo.
type HugoTask struct {
	p   Params
	log *logger.Logger
}

func (t HugoTask) ID() string             { return "hugo:" + t.p.Key() }
func (t HugoTask) Deps() []dag.Task       { return []dag.Task{CloneTask{p: t.p, log: t.log}} }
func (t HugoTask) Output() dag.Target     { return dag.DirTarget{Path: t.p.SiteDir()} }
func (t HugoTask) Timeout() time.Duration { return t.p.BuildTimeout }
func (t HugoTask) Run(ctx context.Context) (dag.Outcome, error) {
	tc, err := prepare(ctx, t.p, t.log)
	if err != nil {
		return dag.Done(), err
	}

	version, err := site.HugoVersion(ctx)
	if err != nil {
		return dag.Done(), err
	}
	t.log.Infow("using hugo", "version", version)

	out, err := site.Hugo(ctx, site.BuildOptions{
		Source:    t.p.CloneDir(),
		Dest:      t.p.SiteDir(),
		BaseURL:   t.p.BaseURL,
		Toolchain: tc,
	})
	logOutput(t.log, "hugo", out)
	return dag.Done(), err
}

// JekyllTask builds the site with jekyll.
type JekyllTask struct {
	p   Params
	log *logger.Logger
}

func (t JekyllTask) ID() string             { return "jekyll:" + t.p.Key() }
func (t JekyllTask) Deps() []dag.Task       { return []dag.Task{CloneTask{p: t.p, log: t.log}} }
func (t JekyllTask) Output() dag.Target     { return dag.DirTarget{Path: t.p.SiteDir()} }
func (t JekyllTask) Timeout() time.Duration { return t.p.BuildTimeout }
func (t JekyllTask) Run(ctx context.Context) (dag.Outcome, error) {
	tc, err := prepare(ctx, t.p, t.log)
	if err != nil {
		return dag.Done(), err
	}

	out, err := site.Jekyll(ctx, site.BuildOptions{
		Source:    t.p.CloneDir(),
		Dest:      t.p.SiteDir(),
		BaseURL:   t.p.BaseURL,
		Toolchain: tc,
	})
	logOutput(t.log, "jekyll", out)
	return dag.Done(), err
}

// prepare reads toolchain pins and runs the node prebuild step when the site
// declares one. It returns the toolchain the generator runs under.
func prepare(ctx context.Context, p Params, log *logger.Logger) (site.Toolchain, error) {
	tc, err := site.ReadToolchain(p.CloneDir(), p.RubyVersionFile, p.NodeVersionFile)
	if err != nil {
		return site.Toolchain{}, fmt.Errorf("read toolchain pins: %w", err)
	}
	if tc.Ruby != "" || tc.Node != "" {
		log.Infow("toolchain pins", "ruby", tc.Ruby, "node", tc.Node)
	}

	ok, err := site.HasPrebuild(p.CloneDir())
	if err != nil {
		return site.Toolchain{}, err
	}
	if ok {
		log.Infow("running node prebuild", "script", site.PrebuildScript)
		out, err := site.Prebuild(ctx, p.CloneDir(), tc)
		logOutput(log, "npm", out)
		if err != nil {
			return site.Toolchain{}, err
		}
	}
	return tc, nil
}

func logOutput(log *logger.Logger, tool, out string) {
	if out = strings.TrimSpace(out); out != "" {
		log.Debugw("tool output", "tool", tool, "output", out)
	}
}
