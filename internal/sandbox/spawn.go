package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/xdg/kota/internal/clog"
)

// ErrTimedOut is returned by Spawn when the command outlives its timeout.
// The Result still carries whatever output was captured.
var ErrTimedOut = errors.New("command timed out")

// waitDelay bounds how long Spawn waits for output pipes after the process
// group has been killed.
const waitDelay = 2 * time.Second

// Result is the outcome of a spawned command. A non-zero exit status is a
// result, not an error.
type Result struct {
	Stdout    string
	Stderr    string
	ExitCode  int
	Duration  time.Duration
	TimedOut  bool
	Truncated bool
}

// Output returns stdout followed by stderr.
func (r Result) Output() string {
	if r.Stderr == "" {
		return r.Stdout
	}
	if r.Stdout == "" {
		return r.Stderr
	}
	return r.Stdout + "\n" + r.Stderr
}

// Spawn runs command with /bin/sh -c under inv. The command runs in its own
// process group; when timeout elapses the whole group is killed and
// ErrTimedOut is returned with the partial output. A zero timeout means no
// limit beyond ctx.
func Spawn(ctx context.Context, inv Invocation, command string, timeout time.Duration) (Result, error) {
	runCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if inv.TempDir != "" {
		if err := os.MkdirAll(inv.TempDir, 0o700); err != nil {
			return Result{ExitCode: -1}, &SpawnError{Backend: inv.Backend, Op: "create temp dir", Err: err}
		}
	}

	limit := inv.MaxOutput
	if limit <= 0 {
		limit = DefaultMaxOutput
	}
	stdout := &boundedBuffer{max: limit}
	stderr := &boundedBuffer{max: limit}

	argv := inv.Argv(command)
	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...) //nolint:gosec // G204: argv is the resolved sandbox wrapper
	cmd.Dir = inv.Workdir
	cmd.Env = inv.Env
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	setProcessGroup(cmd)
	cmd.Cancel = func() error { return killProcessGroup(cmd) }
	cmd.WaitDelay = waitDelay

	clog.Debug("sandbox: spawn %s: %q", inv, command)
	start := time.Now()
	err := cmd.Run()
	res := Result{
		Stdout:    stdout.String(),
		Stderr:    stderr.String(),
		Duration:  time.Since(start),
		Truncated: stdout.truncated || stderr.truncated,
	}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	} else {
		res.ExitCode = -1
	}

	// Check the deadline before the exit error: a killed process also
	// reports an ExitError.
	if timeout > 0 && errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		res.TimedOut = true
		clog.Warn("sandbox: %q timed out after %s", command, timeout)
		return res, fmt.Errorf("%w after %s", ErrTimedOut, timeout)
	}
	if ctx.Err() != nil {
		return res, ctx.Err()
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return res, nil
		}
		if errors.Is(err, exec.ErrWaitDelay) {
			clog.Debug("sandbox: output still open after exit: %q", command)
			return res, nil
		}
		return res, &SpawnError{Backend: inv.Backend, Op: "start", Err: err}
	}
	return res, nil
}

// boundedBuffer keeps the first max bytes written and discards the rest.
// Writes never fail, so the child is not killed by a short write.
type boundedBuffer struct {
	buf       bytes.Buffer
	max       int
	truncated bool
}

func (b *boundedBuffer) Write(p []byte) (int, error) {
	room := b.max - b.buf.Len()
	if room <= 0 {
		b.truncated = b.truncated || len(p) > 0
		return len(p), nil
	}
	if len(p) > room {
		b.buf.Write(p[:room])
		b.truncated = true
		return len(p), nil
	}
	b.buf.Write(p)
	return len(p), nil
}

func (b *boundedBuffer) String() string {
	return b.buf.String()
}
