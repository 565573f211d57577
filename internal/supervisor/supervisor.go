// Package supervisor rebuilds and relaunches kota when a session ends
// with the restart status. It runs as a separate process so that a broken
// self-edit can never take the supervisor down with it.
package supervisor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/xdg/kota/internal/clog"
	"github.com/xdg/kota/internal/selfmod"
	"github.com/xdg/kota/internal/term"
)

// ErrTooManyRestarts is returned when the restart limit is reached.
var ErrTooManyRestarts = errors.New("too many restarts")

// BuildError is returned when rebuilding fails. The child is not started.
type BuildError struct {
	Output string
	Err    error
}

func (e *BuildError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("build failed: %v\n%s", e.Err, strings.TrimRight(e.Output, "\n"))
	}
	return fmt.Sprintf("build failed: %v", e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// ExitError reports a child that ended with neither the normal nor the
// restart status.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("kota exited with status %d", e.Code)
}

// Builder produces the binary to run.
type Builder interface {
	Build(ctx context.Context) error
}

// Runner runs the child once and returns its exit status.
type Runner interface {
	Run(ctx context.Context) (int, error)
}

// Supervisor alternates builds and runs.
type Supervisor struct {
	Builder Builder
	Runner  Runner
	// MaxRestarts bounds consecutive restarts; zero means no limit.
	MaxRestarts int
}

// Loop builds and runs the child until it exits normally (nil), exits with
// another status (*ExitError), or a build fails (*BuildError). Restart
// statuses trigger a rebuild and relaunch. It returns the number of
// restarts performed.
func (s *Supervisor) Loop(ctx context.Context) (int, error) {
	restarts := 0
	for {
		if err := ctx.Err(); err != nil {
			return restarts, err
		}

		clog.Info("supervisor: building")
		if err := s.Builder.Build(ctx); err != nil {
			var be *BuildError
			if !errors.As(err, &be) {
				err = &BuildError{Err: err}
			}
			clog.Error("supervisor: %v", err)
			return restarts, err
		}

		clog.Info("supervisor: starting kota")
		code, err := s.Runner.Run(ctx)
		if err != nil {
			clog.Error("supervisor: run: %v", err)
			return restarts, fmt.Errorf("run: %w", err)
		}

		switch code {
		case selfmod.ExitNormal:
			clog.Info("supervisor: kota exited normally")
			return restarts, nil
		case selfmod.ExitRestart:
			restarts++
			if s.MaxRestarts > 0 && restarts > s.MaxRestarts {
				return restarts - 1, fmt.Errorf("%w (%d)", ErrTooManyRestarts, s.MaxRestarts)
			}
			clog.Info("supervisor: restart %d requested", restarts)
			term.Printf("Rebuilding after self-modification (restart %d)...\n", restarts)
		default:
			clog.Warn("supervisor: kota exited with status %d", code)
			return restarts, &ExitError{Code: code}
		}
	}
}

// CommandBuilder runs a build command, e.g. "go build -o bin/kota ./cmd/kota".
type CommandBuilder struct {
	Dir  string
	Argv []string
}

// Build runs the command and returns a *BuildError with its combined
// output on failure.
func (b *CommandBuilder) Build(ctx context.Context) error {
	if len(b.Argv) == 0 {
		return &BuildError{Err: errors.New("no build command")}
	}
	cmd := exec.CommandContext(ctx, b.Argv[0], b.Argv[1:]...)
	cmd.Dir = b.Dir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return &BuildError{Output: out.String(), Err: err}
	}
	return nil
}

// ProcessRunner runs the child attached to the supervisor's terminal.
type ProcessRunner struct {
	Path string
	Args []string
	Dir  string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Run starts the child and waits for it. A non-zero exit is returned as a
// status, not an error; an error means the child could not be run.
func (r *ProcessRunner) Run(ctx context.Context) (int, error) {
	cmd := exec.CommandContext(ctx, r.Path, r.Args...)
	cmd.Dir = r.Dir
	cmd.Stdin = orDefault(r.Stdin, os.Stdin)
	cmd.Stdout = orDefaultW(r.Stdout, os.Stdout)
	cmd.Stderr = orDefaultW(r.Stderr, os.Stderr)

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}

func orDefault(r io.Reader, def io.Reader) io.Reader {
	if r == nil {
		return def
	}
	return r
}

func orDefaultW(w io.Writer, def io.Writer) io.Writer {
	if w == nil {
		return def
	}
	return w
}
