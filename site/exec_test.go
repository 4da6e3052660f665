package site

import (
	"context"
	"os/exec"
	"strconv"
	"sync"
	"testing"
)

// fakeTools replaces CommandContext with a shell stub. Every invocation is
// recorded; tools listed in fail exit 1 after printing their message.
type fakeTools struct {
	mu     sync.Mutex
	cmds   []*exec.Cmd
	calls  [][]string
	output map[string]string
	fail   map[string]string
}

func newFakeTools(t *testing.T) *fakeTools {
	t.Helper()
	f := &fakeTools{output: map[string]string{}, fail: map[string]string{}}

	orig := CommandContext
	CommandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		f.mu.Lock()
		defer f.mu.Unlock()

		out, code := f.output[name], 0
		if msg, ok := f.fail[name]; ok {
			out, code = msg, 1
		}
		cmd := exec.CommandContext(ctx, "sh", "-c", `printf '%s' "$1"; exit "$2"`, "sh", out, strconv.Itoa(code))
		f.cmds = append(f.cmds, cmd)
		f.calls = append(f.calls, append([]string{name}, args...))
		return cmd
	}
	t.Cleanup(func() { CommandContext = orig })
	return f
}

func (f *fakeTools) Calls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.calls...)
}

// Cmd returns the i-th command after run has set its Dir and Env.
func (f *fakeTools) Cmd(i int) *exec.Cmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cmds[i]
}
