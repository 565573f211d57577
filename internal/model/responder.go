// Package model is the boundary to the language model. kota never speaks a
// model API itself; it runs a configured external command that reads a
// prompt on stdin and prints the response on stdout.
package model

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/xdg/kota/internal/clog"
)

// ErrNotConfigured is returned when no model command is set.
var ErrNotConfigured = errors.New("no model command configured")

// Responder produces a response for a prompt.
type Responder interface {
	Respond(ctx context.Context, prompt string) (string, error)
}

// ResponderFunc adapts a function to Responder.
type ResponderFunc func(ctx context.Context, prompt string) (string, error)

// Respond calls f.
func (f ResponderFunc) Respond(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// CommandError reports a model command that exited unsuccessfully.
type CommandError struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("model command %s failed (exit %d): %s", e.Command, e.ExitCode, msg)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// CommandResponder runs an external command per prompt.
type CommandResponder struct {
	Command string
	Args    []string
	Timeout time.Duration
	Dir     string
}

// NewCommandResponder returns a responder for command, or nil when command
// is empty.
func NewCommandResponder(command string, args []string, timeout time.Duration) *CommandResponder {
	if command == "" {
		return nil
	}
	return &CommandResponder{Command: command, Args: args, Timeout: timeout}
}

// Respond runs the command with prompt on stdin and returns its stdout.
func (r *CommandResponder) Respond(ctx context.Context, prompt string) (string, error) {
	if r == nil || r.Command == "" {
		return "", ErrNotConfigured
	}
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, r.Command, r.Args...) //nolint:gosec // G204: operator-configured command
	cmd.Dir = r.Dir
	cmd.Stdin = strings.NewReader(prompt)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	start := time.Now()
	err := cmd.Run()
	clog.Debug("model: %s returned %d bytes in %s", r.Command, stdout.Len(), time.Since(start).Round(time.Millisecond))
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("model command %s: %w", r.Command, ctx.Err())
		}
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		return "", &CommandError{Command: r.Command, ExitCode: code, Stderr: stderr.String(), Err: err}
	}
	return stdout.String(), nil
}
