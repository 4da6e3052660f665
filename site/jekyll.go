package site

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Jekyll builds o.Source into o.Dest. When the site carries a Gemfile the
// bundled jekyll is used, otherwise the one on PATH. Jekyll runs inside the
// source directory, so both paths are made absolute.
func Jekyll(ctx context.Context, o BuildOptions) (string, error) {
	absSource, err := filepath.Abs(o.Source)
	if err != nil {
		return "", fmt.Errorf("abs source: %w", err)
	}
	absDest, err := filepath.Abs(o.Dest)
	if err != nil {
		return "", fmt.Errorf("abs destination: %w", err)
	}
	env := append([]string{"JEKYLL_ENV=production"}, o.Env...)
	tc := o.Toolchain

	buildArgs := []string{"build", "--source", absSource, "--destination", absDest}
	if o.BaseURL != "" {
		buildArgs = append(buildArgs, "--baseurl", o.BaseURL)
	}

	var log []byte
	bundled, err := hasFile(absSource, "Gemfile")
	if err != nil {
		return "", err
	}
	if bundled {
		out, err := run(ctx, tc.activate(command{name: "bundle", args: []string{"install"}, dir: absSource, env: env}))
		log = append(log, out...)
		if err != nil {
			return string(log), err
		}
		out, err = run(ctx, tc.activate(command{name: "bundle", args: append([]string{"exec", "jekyll"}, buildArgs...), dir: absSource, env: env}))
		log = append(log, out...)
		return string(log), err
	}

	out, err := run(ctx, tc.activate(command{name: "jekyll", args: buildArgs, dir: absSource, env: env}))
	return string(out), err
}

func hasFile(dir, name string) (bool, error) {
	info, err := os.Stat(filepath.Join(dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !info.IsDir(), nil
}
