package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/humblenginr/site_publisher/config"
	"github.com/humblenginr/site_publisher/dag"
	"github.com/humblenginr/site_publisher/pipeline"
	"github.com/humblenginr/site_publisher/publish"
	"github.com/humblenginr/site_publisher/store"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := Execute(context.Background())
	return out.String(), err
}

func TestPublishCommand_MemoryBackend(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>hi</h1>"), 0o644))

	out, err := execute(t, "publish", "--backend", "memory", "--local-dir", dir, "--log-level", "error")

	require.NoError(t, err)
	assert.Contains(t, out, "succeeded")
	assert.Contains(t, out, "uploaded 1 (11 B)")
}

func TestBuildCommand_UnknownEngine(t *testing.T) {
	_, err := execute(t, "build", "--owner", "acme", "--repo", "docs", "--engine", "gatsby", "--log-level", "error")

	assert.ErrorIs(t, err, pipeline.ErrConfiguration)
}

func TestRunCommand_UnknownBackend(t *testing.T) {
	_, err := execute(t, "run", "--owner", "acme", "--repo", "docs", "--backend", "ftp", "--log-level", "error")

	assert.ErrorIs(t, err, config.ErrUnknownBackend)
}

func TestPublishOptions(t *testing.T) {
	cfg := &config.Config{Publish: config.PublishConfig{
		Prefix:       "preview",
		CacheControl: "max-age=60",
		CacheRules:   []config.CacheRule{{Pattern: "*.html", CacheControl: "no-cache"}},
		DryRun:       true,
		Workers:      4,
		MaxRetries:   2,
	}}

	opts := publishOptions(cfg)

	assert.Equal(t, "preview", opts.Prefix)
	assert.True(t, opts.DryRun)
	assert.Equal(t, 4, opts.Workers)
	assert.Equal(t, uint64(2), opts.MaxRetries)
	assert.Equal(t, "no-cache", opts.Rules.Resolve("index.html"))
	assert.Equal(t, "max-age=60", opts.Rules.Resolve("app.js"))
}

func TestOpenStore_Memory(t *testing.T) {
	s, closeStore, err := openStore(context.Background(), &config.Config{Publish: config.PublishConfig{Backend: "memory"}})

	require.NoError(t, err)
	assert.IsType(t, &store.Memory{}, s)
	assert.NoError(t, closeStore())
}

func TestRenderReport(t *testing.T) {
	tests := []struct {
		name   string
		report *pipeline.Report
		want   []string
	}{
		{
			name:   "nothing to do",
			report: &pipeline.Report{RunID: "r1", Status: dag.StatusNothingToDo},
			want:   []string{"nothing to do", "run r1"},
		},
		{
			name: "dry run",
			report: &pipeline.Report{
				RunID:   "r2",
				Status:  dag.StatusSucceeded,
				Publish: &publish.Report{DryRun: true, Uploaded: []string{"index.html"}, Deleted: []string{"old.html"}, Bytes: 2048},
			},
			want: []string{"succeeded", "would upload 1 (2.0 kB)", "+ index.html", "- old.html"},
		},
		{
			name: "failed",
			report: &pipeline.Report{
				RunID:  "r3",
				Status: dag.StatusFailed,
				Stage:  pipeline.StageBuild,
				Err:    errors.New("execution failed for hugo:x: boom"),
				Tasks: &dag.Result{Records: []dag.Record{
					{ID: "hugo:x", State: dag.Failed, Err: errors.New("hugo: exit status 1")},
				}},
			},
			want: []string{"failed at stage build: hugo: exit status 1", "failed", "hugo"},
		},
		{
			name: "object failures",
			report: &pipeline.Report{
				RunID:  "r4",
				Status: dag.StatusFailed,
				Stage:  pipeline.StagePublish,
				Err:    publish.ErrPartialFailure,
				Publish: &publish.Report{Failures: []publish.ObjectFailure{
					{Path: "a.html", Key: "site/a.html", Op: publish.OpUpload, Err: errors.New("timeout")},
				}},
			},
			want: []string{"failed at stage publish", "upload site/a.html: timeout"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := renderReport(tt.report)
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
		})
	}
}
