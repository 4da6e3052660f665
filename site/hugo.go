package site

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// BuildOptions are shared by the static generator wrappers.
type BuildOptions struct {
	Source  string
	Dest    string
	BaseURL   string
	Env       []string // extra KEY=VALUE pairs
	Toolchain Toolchain
}

// HugoVersion returns the output of `hugo version`.
func HugoVersion(ctx context.Context) (string, error) {
	out, err := run(ctx, command{name: "hugo", args: []string{"version"}})
	return strings.TrimSpace(string(out)), err
}

// Hugo builds o.Source into o.Dest. Hugo resolves a relative destination
// against its source directory, so Dest is made absolute first.
func Hugo(ctx context.Context, o BuildOptions) (string, error) {
	absDest, err := filepath.Abs(o.Dest)
	if err != nil {
		return "", fmt.Errorf("abs destination: %w", err)
	}

	args := []string{
		"--source", o.Source,
		"--destination", absDest,
	}
	if o.BaseURL != "" {
		args = append(args, "--baseURL", o.BaseURL)
	}

	out, err := run(ctx, o.Toolchain.activate(command{name: "hugo", args: args, env: o.Env}))
	return string(out), err
}
