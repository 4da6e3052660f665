package publish

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"github.com/humblenginr/site_publisher/logger"
	"github.com/humblenginr/site_publisher/store"
)

type Options struct {
	LocalDir   string
	Prefix     string
	Rules      Rules
	DryRun     bool
	Workers    int    // concurrent object operations; <1 means 1
	MaxRetries uint64 // retries per object after the first attempt
}

// Plan is the set of mutations a sync decided on.
type Plan struct {
	Uploads []File // CacheControl holds the resolved rule
	Deletes []string
	Skips   []string
}

// Synchronizer mirrors a local directory into a Store under a key prefix.
type Synchronizer struct {
	store store.Store
	log   *logger.Logger

	// BackOff builds the retry policy for one object operation.
	BackOff func() backoff.BackOff
}

func New(s store.Store, log *logger.Logger) *Synchronizer {
	return &Synchronizer{
		store:   s,
		log:     log,
		BackOff: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
	}
}

// Diff decides which paths to upload, delete and skip. A path is uploaded
// when it is missing remotely, its fingerprint differs, or the store reports
// a cache-control value that differs from the resolved one.
func Diff(local, remote FileSet, rules Rules) Plan {
	var plan Plan
	for _, p := range local.Paths() {
		f := local[p]
		f.CacheControl = rules.Resolve(p)
		r, ok := remote[p]
		switch {
		case !ok, r.Fingerprint != f.Fingerprint:
			plan.Uploads = append(plan.Uploads, f)
		case r.CacheControl != "" && r.CacheControl != f.CacheControl:
			plan.Uploads = append(plan.Uploads, f)
		default:
			plan.Skips = append(plan.Skips, p)
		}
	}
	for _, p := range remote.Paths() {
		if _, ok := local[p]; !ok {
			plan.Deletes = append(plan.Deletes, p)
		}
	}
	return plan
}

// Sync reconciles the store with o.LocalDir. Individual object failures do
// not stop the batch; they are listed in the report and the returned error
// wraps ErrPartialFailure.
func (s *Synchronizer) Sync(ctx context.Context, o Options) (*Report, error) {
	dir, err := filepath.EvalSymlinks(o.LocalDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoLocalDir, o.LocalDir)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNoLocalDir, o.LocalDir)
	}
	// Upload from the resolved directory so a swapped link cannot mix builds.
	o.LocalDir = dir
	prefix := keyPrefix(o.Prefix)
	log := s.log.With("prefix", prefix, "dry_run", o.DryRun)

	local, err := LocalFiles(dir)
	if err != nil {
		return nil, err
	}
	objects, err := s.store.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list remote objects: %w", err)
	}
	remote := RemoteFiles(objects, prefix)
	log.Infow("computed file sets", "local", len(local), "remote", len(remote))

	plan := Diff(local, remote, o.Rules)
	report := &Report{DryRun: o.DryRun, Skipped: plan.Skips}
	log.Infow("publish plan", "upload", len(plan.Uploads), "delete", len(plan.Deletes), "skip", len(plan.Skips))

	if o.DryRun {
		for _, f := range plan.Uploads {
			log.Infow("would upload", "path", f.Path, "cache_control", f.CacheControl)
			report.Uploaded = append(report.Uploaded, f.Path)
			report.Bytes += f.Size
		}
		for _, p := range plan.Deletes {
			log.Infow("would delete", "path", p)
			report.Deleted = append(report.Deleted, p)
		}
		return report, nil
	}

	s.apply(ctx, o, prefix, plan, report)
	sort.Strings(report.Uploaded)
	sort.Strings(report.Deleted)
	sort.Slice(report.Failures, func(i, j int) bool { return report.Failures[i].Key < report.Failures[j].Key })

	return report, report.Err()
}

func (s *Synchronizer) apply(ctx context.Context, o Options, prefix string, plan Plan, report *Report) {
	var mu sync.Mutex
	record := func(f *ObjectFailure, done func()) {
		mu.Lock()
		defer mu.Unlock()
		if f != nil {
			report.Failures = append(report.Failures, *f)
			return
		}
		done()
	}

	workers := o.Workers
	if workers < 1 {
		workers = 1
	}
	var g errgroup.Group
	g.SetLimit(workers)

	for _, f := range plan.Uploads {
		f := f
		g.Go(func() error {
			key := prefix + f.Path
			err := s.retry(ctx, o.MaxRetries, func() error {
				return s.upload(ctx, filepath.Join(o.LocalDir, filepath.FromSlash(f.Path)), key, f)
			})
			if err != nil {
				s.log.Errorw("upload failed", "key", key, "error", err)
				record(&ObjectFailure{Path: f.Path, Key: key, Op: OpUpload, Err: err}, nil)
				return nil
			}
			s.log.Debugw("uploaded", "key", key, "cache_control", f.CacheControl)
			record(nil, func() {
				report.Uploaded = append(report.Uploaded, f.Path)
				report.Bytes += f.Size
			})
			return nil
		})
	}

	for _, p := range plan.Deletes {
		p := p
		g.Go(func() error {
			key := prefix + p
			err := s.retry(ctx, o.MaxRetries, func() error { return s.store.Delete(ctx, key) })
			if err != nil {
				s.log.Errorw("delete failed", "key", key, "error", err)
				record(&ObjectFailure{Path: p, Key: key, Op: OpDelete, Err: err}, nil)
				return nil
			}
			s.log.Debugw("deleted", "key", key)
			record(nil, func() { report.Deleted = append(report.Deleted, p) })
			return nil
		})
	}

	_ = g.Wait()
}

func (s *Synchronizer) upload(ctx context.Context, localPath, key string, f File) error {
	file, err := os.Open(localPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return backoff.Permanent(err)
		}
		return err
	}
	defer file.Close()

	return s.store.Put(ctx, key, file, f.Size, store.Metadata{
		ContentType:  contentType(f.Path),
		CacheControl: f.CacheControl,
	})
}

func (s *Synchronizer) retry(ctx context.Context, retries uint64, op func() error) error {
	b := backoff.WithMaxRetries(s.BackOff(), retries)
	return backoff.Retry(op, backoff.WithContext(b, ctx))
}

func contentType(p string) string {
	if ct := mime.TypeByExtension(path.Ext(p)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
