// Package tool runs the external programs jbundle drives (runtime utilities
// such as jdeps and jlink, and project build tools) behind a small interface
// so callers can be tested without the real binaries.
package tool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

var (
	// ErrNotFound is returned when the program cannot be located.
	ErrNotFound = errors.New("program not found")
	// ErrFailed is returned when the program exits with a non-zero status.
	ErrFailed = errors.New("program failed")
)

// Command describes a single program invocation.
type Command struct {
	Name string   // program name (looked up on PATH) or absolute path
	Args []string // arguments, not including the program name
	Dir  string   // working directory; empty means the current one
	Env  []string // extra KEY=VALUE pairs appended to the inherited environment
}

// String renders the command line for logs and error messages.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Result holds what a finished program wrote.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Combined returns stdout followed by stderr, trimmed.
func (r *Result) Combined() string {
	if r == nil {
		return ""
	}
	return strings.TrimSpace(string(r.Stdout) + "\n" + string(r.Stderr))
}

// ExitError reports a non-zero exit. It unwraps to ErrFailed.
type ExitError struct {
	Command  string
	ExitCode int
	Output   string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", e.Command, e.ExitCode)
	if e.Output != "" {
		msg += ": " + truncate(e.Output, maxOutputLen)
	}
	return msg
}

func (e *ExitError) Unwrap() error {
	return ErrFailed
}

// Runner executes commands.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// ExecRunner runs commands as child processes via os/exec.
type ExecRunner struct{}

// NewExecRunner returns a Runner backed by real processes.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run starts the program, waits for it, and captures its output.
// On a non-zero exit the Result is returned alongside an *ExitError.
func (r *ExecRunner) Run(ctx context.Context, c Command) (*Result, error) {
	path, err := LookPath(c.Name)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, path, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(cmd.Environ(), c.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	result := &Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}

	if err == nil {
		return result, nil
	}

	// Check for context cancellation/timeout first
	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, fmt.Errorf("%s: %w", c.Name, ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, &ExitError{
			Command:  c.String(),
			ExitCode: result.ExitCode,
			Output:   result.Combined(),
		}
	}

	return result, fmt.Errorf("run %s: %w", c.Name, err)
}

// LookPath resolves name on PATH (or checks it directly when it contains a
// path separator). A missing program yields an error wrapping ErrNotFound.
func LookPath(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return path, nil
}

const maxOutputLen = 2000

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
