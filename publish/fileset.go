package publish

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/humblenginr/site_publisher/store"
)

// File is one entry of a local or remote file set.
type File struct {
	Path         string // slash-separated, relative to the synchronized root
	Fingerprint  string
	Size         int64
	CacheControl string
}

// FileSet maps relative paths to files.
type FileSet map[string]File

// Paths returns the set's paths in sorted order.
func (s FileSet) Paths() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// LocalFiles fingerprints every regular file under dir. A dir that is itself
// a symlink is resolved first, since WalkDir does not descend into one.
func LocalFiles(dir string) (FileSet, error) {
	root, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}
	set := make(FileSet)
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() && d.Type()&fs.ModeSymlink == 0 {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		f, err := os.Open(p)
		if err != nil {
			return err
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil || info.IsDir() {
			return err
		}
		fp, size, err := store.Fingerprint(f)
		if err != nil {
			return fmt.Errorf("fingerprint %s: %w", rel, err)
		}
		rel = filepath.ToSlash(rel)
		set[rel] = File{Path: rel, Fingerprint: fp, Size: size}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	return set, nil
}

// RemoteFiles converts listed objects into a set keyed relative to prefix.
// Objects outside prefix are ignored.
func RemoteFiles(objects []store.Object, prefix string) FileSet {
	set := make(FileSet, len(objects))
	for _, obj := range objects {
		if !strings.HasPrefix(obj.Key, prefix) {
			continue
		}
		rel := strings.TrimPrefix(obj.Key, prefix)
		if rel == "" {
			continue
		}
		set[rel] = File{Path: rel, Fingerprint: obj.Fingerprint, Size: obj.Size, CacheControl: obj.CacheControl}
	}
	return set
}

// keyPrefix normalizes a bucket prefix to "" or "dir/".
func keyPrefix(prefix string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}
