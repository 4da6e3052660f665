package site

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// PrebuildScript is the package.json script run before a generator build.
const PrebuildScript = "federalist"

type packageJSON struct {
	Scripts map[string]string `json:"scripts"`
}

// HasPrebuild reports whether dir has a package.json declaring PrebuildScript.
func HasPrebuild(dir string) (bool, error) {
	ok, err := hasFile(dir, "package.json")
	if err != nil || !ok {
		return false, err
	}
	data, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err != nil {
		return false, err
	}
	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return false, fmt.Errorf("parse package.json: %w", err)
	}
	_, ok = pkg.Scripts[PrebuildScript]
	return ok, nil
}

// Prebuild installs node dependencies and runs the prebuild script in dir,
// under the pinned toolchain.
func Prebuild(ctx context.Context, dir string, tc Toolchain) (string, error) {
	var log []byte
	out, err := run(ctx, tc.activate(command{name: "npm", args: []string{"install"}, dir: dir}))
	log = append(log, out...)
	if err != nil {
		return string(log), err
	}
	out, err = run(ctx, tc.activate(command{name: "npm", args: []string{"run", PrebuildScript}, dir: dir}))
	log = append(log, out...)
	return string(log), err
}
