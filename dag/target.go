package dag

import (
	"errors"
	"io/fs"
	"os"
)

// Target marks completed work. Exists is the only idempotency signal the
// scheduler consults; it does not validate contents, so a directory left
// half-written by a crash still counts as done.
type Target interface {
	Exists() (bool, error)
	String() string
}

// DirTarget is satisfied once the directory at Path exists.
type DirTarget struct {
	Path string
}

func (t DirTarget) Exists() (bool, error) {
	info, err := os.Stat(t.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

func (t DirTarget) String() string { return t.Path }

// Never is a target that never exists, for tasks that must always run.
type Never struct{}

func (Never) Exists() (bool, error) { return false, nil }
func (Never) String() string        { return "<never>" }
