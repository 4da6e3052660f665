package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/humblenginr/site_publisher/dag"
	"github.com/humblenginr/site_publisher/logger"
	"github.com/humblenginr/site_publisher/publish"
	"github.com/humblenginr/site_publisher/site"
)

var ErrNoPublisher = errors.New("pipeline: no publisher configured")

type Stage string

const (
	StageClone   Stage = "clone"
	StageBuild   Stage = "build"
	StagePublish Stage = "publish"
)

// Report is the user-facing outcome of a pipeline run.
type Report struct {
	RunID   string
	Status  dag.Status
	Stage   Stage // set when Status is StatusFailed
	Err     error
	Tasks   *dag.Result
	Publish *publish.Report
}

// Pipeline runs clone, build and publish for one site.
type Pipeline struct {
	params Params
	sync   *publish.Synchronizer
	log    *logger.Logger

	// Diagnostics is logged before the engine is dispatched.
	Diagnostics func() site.Diagnostics
}

// New validates p and returns a pipeline. sync may be nil when only Build is
// used.
func New(p Params, sync *publish.Synchronizer, log *logger.Logger) (*Pipeline, error) {
	valid := false
	for _, e := range Engines {
		valid = valid || e == p.Engine
	}
	if !valid {
		return nil, &ConfigurationError{Field: "build_engine", Value: p.Engine.String()}
	}
	return &Pipeline{params: p, sync: sync, log: log, Diagnostics: site.CollectDiagnostics}, nil
}

func (p *Pipeline) Params() Params { return p.params }

// Build clones and builds the site, skipping whatever already exists in the
// work directory.
func (p *Pipeline) Build(ctx context.Context) (*Report, error) {
	report := &Report{RunID: uuid.NewString()}
	log := p.log.With("run_id", report.RunID)
	return report, p.build(ctx, log, report)
}

// Run builds the site and publishes it. opts.LocalDir defaults to the build
// output directory.
func (p *Pipeline) Run(ctx context.Context, opts publish.Options) (*Report, error) {
	report := &Report{RunID: uuid.NewString()}
	log := p.log.With("run_id", report.RunID)

	if err := p.build(ctx, log, report); err != nil {
		return report, err
	}
	buildStatus := report.Status

	if err := p.publish(ctx, log, opts, report); err != nil {
		return report, err
	}
	if buildStatus == dag.StatusNothingToDo && !report.Publish.Changed() {
		report.Status = dag.StatusNothingToDo
	} else {
		report.Status = dag.StatusSucceeded
	}
	log.Infow("pipeline finished", "status", report.Status)
	return report, nil
}

// Publish syncs an existing build directory without cloning or building.
func Publish(ctx context.Context, sync *publish.Synchronizer, log *logger.Logger, opts publish.Options) (*Report, error) {
	report := &Report{RunID: uuid.NewString()}
	log = log.With("run_id", report.RunID)
	if err := runPublish(ctx, sync, log, opts, report); err != nil {
		return report, err
	}
	report.Status = dag.StatusSucceeded
	if !report.Publish.Changed() {
		report.Status = dag.StatusNothingToDo
	}
	return report, nil
}

func (p *Pipeline) build(ctx context.Context, log *logger.Logger, report *Report) error {
	log.Infow("starting build", "site", p.params.Owner+"/"+p.params.Repo, "engine", p.params.Engine.String())

	root := BuildTask{p: p.params, log: log, diagnostics: p.Diagnostics}
	result, err := dag.New(log).Run(ctx, root)
	report.Tasks = result
	report.Status = result.Status()
	if err != nil {
		report.Stage = stageOf(result.RootCause())
		report.Err = err
		log.Errorw("build failed", "stage", report.Stage, "error", err)
		return err
	}
	log.Infow("build finished", "status", report.Status)
	return nil
}

func (p *Pipeline) publish(ctx context.Context, log *logger.Logger, opts publish.Options, report *Report) error {
	if opts.LocalDir == "" {
		opts.LocalDir = p.params.SiteDir()
	}
	return runPublish(ctx, p.sync, log, opts, report)
}

func runPublish(ctx context.Context, sync *publish.Synchronizer, log *logger.Logger, opts publish.Options, report *Report) error {
	var (
		pub *publish.Report
		err = ErrNoPublisher
	)
	if sync != nil {
		pub, err = sync.Sync(ctx, opts)
	}
	report.Publish = pub
	if err != nil {
		report.Status = dag.StatusFailed
		report.Stage = StagePublish
		report.Err = fmt.Errorf("publish %s: %w", opts.LocalDir, err)
		log.Errorw("publish failed", "error", err)
		return report.Err
	}
	log.Infow("publish finished", "uploaded", len(pub.Uploaded), "deleted", len(pub.Deleted), "skipped", len(pub.Skipped))
	return nil
}

func stageOf(rec *dag.Record) Stage {
	if rec != nil && strings.HasPrefix(rec.ID, "clone:") {
		return StageClone
	}
	return StageBuild
}
