package site

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// CommandContext builds every external command this package runs. Tests
// replace it to fake the binaries.
var CommandContext = exec.CommandContext

var ErrExternalTool = errors.New("site: external tool failed")

// ToolError is returned when an external binary exits non-zero or cannot be
// started. Output holds whatever it printed.
type ToolError struct {
	Tool   string
	Args   []string
	Output string
	Err    error
}

func (e *ToolError) Error() string {
	out := strings.TrimSpace(e.Output)
	if out == "" {
		return fmt.Sprintf("%s: %v", e.Tool, e.Err)
	}
	return fmt.Sprintf("%s: %v – %s", e.Tool, e.Err, out)
}

func (e *ToolError) Unwrap() []error { return []error{ErrExternalTool, e.Err} }

// command describes one external invocation. tool names the wrapped binary
// when name is a shell.
type command struct {
	tool string
	name string
	args []string
	dir  string
	env  []string
}

// run executes c and returns its combined output.
func run(ctx context.Context, c command) ([]byte, error) {
	cmd := CommandContext(ctx, c.name, c.args...)
	cmd.Dir = c.dir
	if len(c.env) > 0 {
		cmd.Env = append(cmd.Environ(), c.env...)
	}
	out, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			err = fmt.Errorf("%w: %w", ctx.Err(), err)
		}
		tool := c.name
		if c.tool != "" {
			tool = c.tool
		}
		return out, &ToolError{Tool: tool, Args: c.args, Output: string(out), Err: err}
	}
	return out, nil
}
