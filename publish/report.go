package publish

import (
	"errors"
	"fmt"
)

var (
	ErrPartialFailure = errors.New("publish: some objects failed")
	ErrNoLocalDir     = errors.New("publish: local directory does not exist")
)

type Op string

const (
	OpUpload Op = "upload"
	OpDelete Op = "delete"
)

// ObjectFailure is one upload or delete that failed after retries.
type ObjectFailure struct {
	Path string
	Key  string
	Op   Op
	Err  error
}

func (f ObjectFailure) Error() string {
	return fmt.Sprintf("%s %s: %v", f.Op, f.Key, f.Err)
}

func (f ObjectFailure) Unwrap() error { return f.Err }

// Report lists relative paths by outcome. In a dry run Uploaded and Deleted
// hold what would have been done.
type Report struct {
	DryRun   bool
	Uploaded []string
	Deleted  []string
	Skipped  []string
	Failures []ObjectFailure
	Bytes    int64
}

// Changed reports whether the remote side was (or would be) modified.
func (r *Report) Changed() bool {
	return len(r.Uploaded) > 0 || len(r.Deleted) > 0
}

// Err returns an error wrapping ErrPartialFailure and every object failure,
// or nil when nothing failed.
func (r *Report) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	errs := []error{ErrPartialFailure}
	for _, f := range r.Failures {
		errs = append(errs, f)
	}
	return fmt.Errorf("%d of %d operations failed: %w",
		len(r.Failures), len(r.Failures)+len(r.Uploaded)+len(r.Deleted), errors.Join(errs...))
}
