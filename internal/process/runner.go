// SPDX-License-Identifier: MPL-2.0

package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"syscall"
)

type (
	// Command describes a program invocation.
	Command struct {
		// Path is the program to run; bare names are resolved through PATH.
		Path string
		Args []string
		// Dir is the working directory; empty means the current directory.
		Dir string
		// Env is the complete environment; nil inherits the current process environment.
		Env []string

		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
	}

	// Runner executes commands.
	Runner interface {
		// Run streams output to the command's writers.
		Run(ctx context.Context, cmd Command) *Result
		// Capture collects stdout and stderr into the Result.
		Capture(ctx context.Context, cmd Command) *Result
	}

	// ExecRunner is the os/exec backed Runner.
	ExecRunner struct{}

	// executeOutput configures where command output is directed during execution.
	executeOutput struct {
		stdout io.Writer
		stderr io.Writer
	}

	// capturedOutput holds the captured stdout and stderr buffers when capture mode is used.
	capturedOutput struct {
		stdout bytes.Buffer
		stderr bytes.Buffer
	}
)

// NewExecRunner creates a Runner backed by os/exec.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes cmd with streaming output.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) *Result {
	return r.execute(ctx, cmd, &executeOutput{stdout: cmd.Stdout, stderr: cmd.Stderr}, nil)
}

// Capture executes cmd and captures its output.
func (r *ExecRunner) Capture(ctx context.Context, cmd Command) *Result {
	captured := &capturedOutput{}
	out := &executeOutput{stdout: &captured.stdout, stderr: &captured.stderr}
	return r.execute(ctx, cmd, out, captured)
}

func (r *ExecRunner) execute(ctx context.Context, cmd Command, out *executeOutput, captured *capturedOutput) *Result {
	c := exec.CommandContext(ctx, cmd.Path, cmd.Args...)
	c.Dir = cmd.Dir
	c.Env = cmd.Env
	c.Stdin = cmd.Stdin
	c.Stdout = out.stdout
	c.Stderr = out.stderr

	slog.Debug("exec", "cmd", cmd.String(), "dir", cmd.Dir)
	return extractExitCode(c.Run(), captured)
}

// String renders the command line for logs and diagnostics.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Path)
	for _, arg := range c.Args {
		if arg == "" || strings.ContainsAny(arg, " \t\"'") {
			arg = fmt.Sprintf("%q", arg)
		}
		parts = append(parts, arg)
	}
	return strings.Join(parts, " ")
}

// extractExitCode determines the exit code from a command execution error.
func extractExitCode(err error, captured *capturedOutput) *Result {
	result := &Result{}

	if captured != nil {
		result.Output = captured.stdout.String()
		result.ErrOutput = captured.stderr.String()
	}

	if err == nil {
		return result
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// The process ran; only its status needs mapping.
		result.ExitCode = exitCodeOf(exitErr)
		return result
	}

	// Some other error (e.g., command not found, permission denied)
	result.ExitCode = 1
	result.Error = err
	return result
}

// exitCodeOf follows the shell convention of 128+signal for signal deaths.
// Statuses outside 0-255 (Windows NTSTATUS codes) become 1.
func exitCodeOf(exitErr *exec.ExitError) ExitCode {
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return ExitCode(128 + int(ws.Signal()))
	}
	code := ExitCode(exitErr.ExitCode())
	if code.Validate() != nil {
		return 1
	}
	return code
}
