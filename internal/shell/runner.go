// Package shell implements the toolchain capabilities by running configured
// command templates through `sh -c`. Commands are HCL templates evaluated
// against the invocation's parameter set.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/vk/shipgrid/internal/ctxlog"
	"github.com/vk/shipgrid/internal/stage"
)

// Runner executes shell commands in a working directory.
type Runner struct {
	// Shell is the interpreter invoked with `-c`. Defaults to "sh".
	Shell string
	// Dir is the working directory; empty means the process directory.
	Dir string
	// Env is appended to the inherited environment.
	Env []string
}

// NewRunner returns a Runner rooted at dir.
func NewRunner(dir string) *Runner {
	return &Runner{Shell: "sh", Dir: dir}
}

// Exec runs command and streams its combined output into the current
// stage's output.
func (r *Runner) Exec(ctx context.Context, command string) error {
	return r.run(ctx, command, stage.Output(ctx))
}

// Capture runs command and returns its combined output. The output is also
// streamed into the current stage's output.
func (r *Runner) Capture(ctx context.Context, command string) (string, error) {
	var buf bytes.Buffer
	err := r.run(ctx, command, io.MultiWriter(&buf, stage.Output(ctx)))
	return buf.String(), err
}

func (r *Runner) run(ctx context.Context, command string, out io.Writer) error {
	logger := ctxlog.FromContext(ctx)
	sh := r.Shell
	if sh == "" {
		sh = "sh"
	}

	logger.Info("Running command", "cmd", command)
	cmd := exec.CommandContext(ctx, sh, "-c", command)
	cmd.Dir = r.Dir
	if len(r.Env) > 0 {
		cmd.Env = append(cmd.Environ(), r.Env...)
	}
	cmd.Stdout = out
	cmd.Stderr = out

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{Command: command, Code: exitErr.ExitCode(), Err: err}
		}
		return fmt.Errorf("run %q: %w", command, err)
	}
	return nil
}

// ExitError reports a command that exited with a non-zero status.
type ExitError struct {
	Command string
	Code    int
	Err     error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command %q exited with status %d", truncate(e.Command, 120), e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// ExitCode returns the process exit status.
func (e *ExitError) ExitCode() int { return e.Code }

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
