package site

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHugo_PassesAbsoluteDestination(t *testing.T) {
	tools := newFakeTools(t)
	src := t.TempDir()

	_, err := Hugo(context.Background(), BuildOptions{
		Source:  src,
		Dest:    "site_build",
		BaseURL: "https://example.org/preview",
		Env:     []string{"NODE_VERSION=20"},
	})
	require.NoError(t, err)

	abs, err := filepath.Abs("site_build")
	require.NoError(t, err)
	calls := tools.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, []string{
		"hugo",
		"--source", src,
		"--destination", abs,
		"--baseURL", "https://example.org/preview",
	}, calls[0])
	assert.Contains(t, tools.Cmd(0).Env, "NODE_VERSION=20")
}

func TestHugo_OmitsEmptyBaseURL(t *testing.T) {
	tools := newFakeTools(t)

	_, err := Hugo(context.Background(), BuildOptions{Source: "src", Dest: t.TempDir()})
	require.NoError(t, err)
	assert.NotContains(t, tools.Calls()[0], "--baseURL")
}

func TestHugo_FailureIsToolError(t *testing.T) {
	tools := newFakeTools(t)
	tools.fail["hugo"] = "Error: unable to locate config file"

	out, err := Hugo(context.Background(), BuildOptions{Source: "src", Dest: "out"})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExternalTool)
	var te *ToolError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "hugo", te.Tool)
	assert.Contains(t, te.Output, "unable to locate config file")
	assert.Contains(t, err.Error(), "unable to locate config file")
	assert.Equal(t, "Error: unable to locate config file", out)
}

func TestHugoVersion(t *testing.T) {
	tools := newFakeTools(t)
	tools.output["hugo"] = "hugo v0.125.0 linux/amd64\n"

	v, err := HugoVersion(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "hugo v0.125.0 linux/amd64", v)
	assert.Equal(t, []string{"hugo", "version"}, tools.Calls()[0])
}

func TestJekyll_WithGemfileUsesBundler(t *testing.T) {
	tools := newFakeTools(t)
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "Gemfile"), []byte("source 'https://rubygems.org'\n"), 0o644))
	dest := filepath.Join(t.TempDir(), "out")

	_, err := Jekyll(context.Background(), BuildOptions{Source: src, Dest: dest, Env: []string{"RUBY_VERSION=3.2.2"}})
	require.NoError(t, err)

	calls := tools.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, []string{"bundle", "install"}, calls[0])
	assert.Equal(t, []string{"bundle", "exec", "jekyll", "build", "--source", src, "--destination", dest}, calls[1])
	for i := range calls {
		cmd := tools.Cmd(i)
		assert.Equal(t, src, cmd.Dir)
		assert.Contains(t, cmd.Env, "JEKYLL_ENV=production")
		assert.Contains(t, cmd.Env, "RUBY_VERSION=3.2.2")
	}
}

func TestJekyll_WithoutGemfileUsesPlainJekyll(t *testing.T) {
	tools := newFakeTools(t)
	src := t.TempDir()
	dest := filepath.Join(t.TempDir(), "out")

	_, err := Jekyll(context.Background(), BuildOptions{Source: src, Dest: dest, BaseURL: "/preview"})
	require.NoError(t, err)

	calls := tools.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"jekyll", "build", "--source", src, "--destination", dest, "--baseurl", "/preview"}, calls[0])
}

func TestJekyll_RelativeSourceIsMadeAbsolute(t *testing.T) {
	tools := newFakeTools(t)
	t.Chdir(t.TempDir())
	require.NoError(t, os.Mkdir("clone", 0o755))
	src, err := filepath.Abs("clone")
	require.NoError(t, err)
	dest, err := filepath.Abs("site_build")
	require.NoError(t, err)

	_, err = Jekyll(context.Background(), BuildOptions{Source: "clone", Dest: "site_build"})
	require.NoError(t, err)

	calls := tools.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"jekyll", "build", "--source", src, "--destination", dest}, calls[0])
	assert.Equal(t, src, tools.Cmd(0).Dir)
}

func TestJekyll_PinnedToolchainRunsThroughVersionManagers(t *testing.T) {
	tools := newFakeTools(t)
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "Gemfile"), nil, 0o644))
	dest := filepath.Join(t.TempDir(), "out")

	_, err := Jekyll(context.Background(), BuildOptions{
		Source:    src,
		Dest:      dest,
		Toolchain: Toolchain{Ruby: "3.2.2", Node: "20"},
	})
	require.NoError(t, err)

	calls := tools.Calls()
	require.Len(t, calls, 2)
	for i, want := range [][]string{
		{"bundle", "install"},
		{"bundle", "exec", "jekyll", "build", "--source", src, "--destination", dest},
	} {
		call := calls[i]
		require.Greater(t, len(call), 4)
		assert.Equal(t, []string{"bash", "-c"}, call[:2])
		assert.Equal(t, `source "/usr/local/rvm/scripts/rvm" && rvm use "$RUBY_VERSION" --install && `+
			`source "$NVM_DIR/nvm.sh" && nvm install "$NODE_VERSION" && exec "$@"`, call[2])
		assert.Equal(t, append([]string{"bash"}, want...), call[3:])

		cmd := tools.Cmd(i)
		assert.Equal(t, src, cmd.Dir)
		assert.Contains(t, cmd.Env, "RUBY_VERSION=3.2.2")
		assert.Contains(t, cmd.Env, "NODE_VERSION=20")
		assert.Contains(t, cmd.Env, "JEKYLL_ENV=production")
	}
}

func TestJekyll_PinnedFailureNamesWrappedTool(t *testing.T) {
	tools := newFakeTools(t)
	tools.fail["bash"] = "rvm: ruby-9.9.9 is not installed"

	_, err := Jekyll(context.Background(), BuildOptions{
		Source:    t.TempDir(),
		Dest:      t.TempDir(),
		Toolchain: Toolchain{Ruby: "9.9.9"},
	})

	var te *ToolError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "jekyll", te.Tool)
	assert.Contains(t, err.Error(), "ruby-9.9.9 is not installed")
}

func TestJekyll_BundleInstallFailureStopsBuild(t *testing.T) {
	tools := newFakeTools(t)
	tools.fail["bundle"] = "Could not find gem"
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "Gemfile"), nil, 0o644))

	_, err := Jekyll(context.Background(), BuildOptions{Source: src, Dest: t.TempDir()})

	assert.ErrorIs(t, err, ErrExternalTool)
	assert.Len(t, tools.Calls(), 1)
}

func TestHasPrebuild(t *testing.T) {
	tests := []struct {
		name    string
		pkg     string
		want    bool
		wantErr bool
	}{
		{name: "no package.json"},
		{name: "script declared", pkg: `{"scripts": {"federalist": "npm run build"}}`, want: true},
		{name: "other scripts only", pkg: `{"scripts": {"build": "webpack"}}`},
		{name: "no scripts", pkg: `{"name": "site"}`},
		{name: "invalid json", pkg: `{`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if tt.pkg != "" {
				require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(tt.pkg), 0o644))
			}
			got, err := HasPrebuild(dir)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrebuild_RunsInstallThenScript(t *testing.T) {
	tools := newFakeTools(t)
	dir := t.TempDir()

	_, err := Prebuild(context.Background(), dir, Toolchain{})
	require.NoError(t, err)

	calls := tools.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, []string{"npm", "install"}, calls[0])
	assert.Equal(t, []string{"npm", "run", PrebuildScript}, calls[1])
	assert.Equal(t, dir, tools.Cmd(1).Dir)
}

func TestPrebuild_NodePinSelectsVersionWithNVM(t *testing.T) {
	tools := newFakeTools(t)
	dir := t.TempDir()

	_, err := Prebuild(context.Background(), dir, Toolchain{Node: "18"})
	require.NoError(t, err)

	calls := tools.Calls()
	require.Len(t, calls, 2)
	script := `source "$NVM_DIR/nvm.sh" && nvm install "$NODE_VERSION" && exec "$@"`
	assert.Equal(t, []string{"bash", "-c", script, "bash", "npm", "install"}, calls[0])
	assert.Equal(t, []string{"bash", "-c", script, "bash", "npm", "run", PrebuildScript}, calls[1])
	assert.NotContains(t, calls[0][2], "rvm")
	assert.Equal(t, dir, tools.Cmd(1).Dir)
	assert.Contains(t, tools.Cmd(1).Env, "NODE_VERSION=18")
}

func TestReadToolchain(t *testing.T) {
	clone := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(clone, ".ruby-version"), []byte("3.2.2\n"), 0o644))
	nvmrc := filepath.Join(t.TempDir(), "node-version")
	require.NoError(t, os.WriteFile(nvmrc, []byte(" 20.11.0 "), 0o644))

	tc, err := ReadToolchain(clone, ".ruby-version", nvmrc)
	require.NoError(t, err)
	assert.Equal(t, Toolchain{Ruby: "3.2.2", Node: "20.11.0"}, tc)
	assert.Equal(t, []string{"RUBY_VERSION=3.2.2", "NODE_VERSION=20.11.0"}, tc.Env())
}

func TestReadToolchain_MissingFilesAreEmpty(t *testing.T) {
	tc, err := ReadToolchain(t.TempDir(), ".ruby-version", ".nvmrc")

	require.NoError(t, err)
	assert.Equal(t, Toolchain{}, tc)
	assert.Empty(t, tc.Env())
}

func TestCollectDiagnostics(t *testing.T) {
	d := CollectDiagnostics()

	assert.NotEmpty(t, d.GOOS)
	assert.NotEmpty(t, d.GOARCH)
	assert.Len(t, d.Fields(), 16)
}
