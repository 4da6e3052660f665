package site

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Init scripts of the ruby and node version managers. NVMScript is expanded
// by the shell.
var (
	RVMScript = "/usr/local/rvm/scripts/rvm"
	NVMScript = "$NVM_DIR/nvm.sh"
)

// Toolchain holds version pins read from the cloned site.
type Toolchain struct {
	Ruby string
	Node string
}

// Env renders the pins as environment assignments for build commands.
func (t Toolchain) Env() []string {
	var env []string
	if t.Ruby != "" {
		env = append(env, "RUBY_VERSION="+t.Ruby)
	}
	if t.Node != "" {
		env = append(env, "NODE_VERSION="+t.Node)
	}
	return env
}

// activate wraps c in a bash shell that installs and selects the pinned
// versions before exec'ing the tool. Without pins c is returned unchanged.
func (t Toolchain) activate(c command) command {
	var steps []string
	if t.Ruby != "" {
		steps = append(steps, `source "`+RVMScript+`"`, `rvm use "$RUBY_VERSION" --install`)
	}
	if t.Node != "" {
		steps = append(steps, `source "`+NVMScript+`"`, `nvm install "$NODE_VERSION"`)
	}
	if len(steps) == 0 {
		return c
	}
	script := strings.Join(append(steps, `exec "$@"`), " && ")

	wrapped := c
	wrapped.tool = c.name
	wrapped.name = "bash"
	wrapped.args = append([]string{"-c", script, "bash", c.name}, c.args...)
	wrapped.env = append(append([]string(nil), c.env...), t.Env()...)
	return wrapped
}

// ReadToolchain reads the ruby and node version files. Relative paths are
// resolved against cloneDir; a missing file leaves its pin empty.
func ReadToolchain(cloneDir, rubyFile, nodeFile string) (Toolchain, error) {
	ruby, err := readPin(cloneDir, rubyFile)
	if err != nil {
		return Toolchain{}, err
	}
	node, err := readPin(cloneDir, nodeFile)
	if err != nil {
		return Toolchain{}, err
	}
	return Toolchain{Ruby: ruby, Node: node}, nil
}

func readPin(dir, file string) (string, error) {
	if file == "" {
		return "", nil
	}
	if !filepath.IsAbs(file) {
		file = filepath.Join(dir, file)
	}
	data, err := os.ReadFile(file)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
