package site

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/cenkalti/backoff/v4"
)

// GitHubHost is where repositories are cloned from.
var GitHubHost = "github.com"

type CloneOptions struct {
	Owner   string
	Repo    string
	Branch  string
	Token   string
	Dest    string
	Retries uint64
}

// RepoURL returns the https clone URL, with the token embedded when set.
func (o CloneOptions) RepoURL() string {
	if o.Token == "" {
		return fmt.Sprintf("https://%s/%s/%s.git", GitHubHost, o.Owner, o.Repo)
	}
	return fmt.Sprintf("https://%s@%s/%s/%s.git", o.Token, GitHubHost, o.Owner, o.Repo)
}

// Clone shallow-clones a single branch into o.Dest. Network failures are
// retried with exponential backoff; authentication and missing-repository
// failures are not.
func Clone(ctx context.Context, o CloneOptions) (string, error) {
	if o.Owner == "" || o.Repo == "" {
		return "", errors.New("owner and repo are required")
	}
	absDest, err := filepath.Abs(o.Dest)
	if err != nil {
		return "", fmt.Errorf("abs clone dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(absDest), fs.ModePerm); err != nil {
		return "", fmt.Errorf("mkdir clone parent: %w", err)
	}

	args := []string{"clone", "--depth", "1"}
	if o.Branch != "" {
		args = append(args, "--branch", o.Branch)
	}
	args = append(args, o.RepoURL(), absDest)

	operation := func() error {
		// A failed attempt may leave a partial checkout behind.
		if err := os.RemoveAll(absDest); err != nil {
			return backoff.Permanent(fmt.Errorf("clean clone dir: %w", err))
		}
		_, err := run(ctx, command{name: "git", args: args, env: []string{"GIT_TERMINAL_PROMPT=0"}})
		if err == nil {
			return nil
		}
		err = redact(err, o.Token)
		if isPermanentCloneFailure(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), o.Retries)
	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return "", err
	}
	return absDest, nil
}

func isPermanentCloneFailure(err error) bool {
	var te *ToolError
	if !errors.As(err, &te) {
		return false
	}
	out := strings.ToLower(te.Output)
	for _, s := range []string{"authentication failed", "not found", "could not read username", "remote branch"} {
		if strings.Contains(out, s) {
			return true
		}
	}
	return false
}

// redact strips the token from a ToolError's args and output.
func redact(err error, token string) error {
	var te *ToolError
	if token == "" || !errors.As(err, &te) {
		return err
	}
	args := make([]string, len(te.Args))
	for i, a := range te.Args {
		args[i] = strings.ReplaceAll(a, token, "***")
	}
	return &ToolError{
		Tool:   te.Tool,
		Args:   args,
		Output: strings.ReplaceAll(te.Output, token, "***"),
		Err:    te.Err,
	}
}
