// Package selfmod implements the restart protocol for edits to kota's own
// source tree.
//
// kota never rebuilds or restarts itself. When an approved edit touches its
// own source, the Controller commits the change and reports a Termination
// carrying ExitRestart. The process exits with that status and an external
// supervisor rebuilds and relaunches it. If the commit fails, the edit is
// reverted so the tree is left at the last commit, and the process exits
// with ExitError.
package selfmod

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/xdg/kota/internal/clog"
	"github.com/xdg/kota/internal/fsutil"
	"github.com/xdg/kota/internal/pathutil"
)

// Process exit statuses understood by the supervisor.
const (
	ExitNormal  = 0
	ExitError   = 1
	ExitRestart = 123
)

// ErrNoRepository is returned when an own-source edit cannot be committed
// because the source tree is not under version control.
var ErrNoRepository = errors.New("source tree is not a git repository")

// State is the controller's position in the restart protocol.
type State int

const (
	StateNormal State = iota
	StatePendingRestart
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNormal:
		return "normal"
	case StatePendingRestart:
		return "pending-restart"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Termination tells the caller to end the process with Code.
type Termination struct {
	Code   int
	Reason string
	Err    error
}

// Restart reports whether the termination asks the supervisor to rebuild.
func (t Termination) Restart() bool {
	return t.Code == ExitRestart
}

// Repo is the version-control surface the controller needs.
type Repo interface {
	Stage(ctx context.Context, paths ...string) error
	Unstage(ctx context.Context, paths ...string) error
	Commit(ctx context.Context, message string, paths ...string) (string, error)
}

// Edit describes an own-source edit that has already been written to disk.
type Edit struct {
	Path     string // absolute
	Original []byte // content before the edit
	Message  string // commit message
}

// Controller recognizes own-source paths and finalizes edits to them.
type Controller struct {
	sourceRoot string
	paths      map[string]bool
	repo       Repo
	state      State
	pending    *Termination
}

// New creates a Controller. sourceRoot is the root of kota's own source
// tree and may be empty; extra lists additional individual files (config,
// policy) that count as kota's own. repo may be nil when the tree is not
// under version control, in which case every Finalize fails.
func New(sourceRoot string, extra []string, repo Repo) *Controller {
	c := &Controller{paths: make(map[string]bool), repo: repo}
	if sourceRoot != "" {
		c.sourceRoot = filepath.Clean(pathutil.ExpandHome(sourceRoot))
	}
	for _, p := range extra {
		if p == "" {
			continue
		}
		c.paths[filepath.Clean(pathutil.ExpandHome(p))] = true
	}
	return c
}

// SourceRoot returns the configured source root, or "".
func (c *Controller) SourceRoot() string {
	return c.sourceRoot
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state
}

// IsOwnPath reports whether abs lies within kota's own source tree or is
// one of its own configuration files.
func (c *Controller) IsOwnPath(abs string) bool {
	abs = filepath.Clean(abs)
	if c.paths[abs] {
		return true
	}
	return c.sourceRoot != "" && pathutil.Within(c.sourceRoot, abs)
}

// Finalize commits an own-source edit. On success the controller moves to
// StatePendingRestart and returns an ExitRestart termination. On failure
// the original bytes are restored, the path is unstaged, and an ExitError
// termination is returned with the cause.
func (c *Controller) Finalize(ctx context.Context, e Edit) Termination {
	c.state = StatePendingRestart
	clog.Info("selfmod: finalizing edit to %s", e.Path)

	hash, err := c.commit(ctx, e)
	if err != nil {
		clog.Error("selfmod: commit failed for %s: %v", e.Path, err)
		if rerr := c.revert(ctx, e); rerr != nil {
			err = errors.Join(err, fmt.Errorf("revert: %w", rerr))
		}
		c.state = StateFailed
		t := Termination{Code: ExitError, Reason: "self-modification commit failed", Err: err}
		c.pending = &t
		return t
	}

	clog.Info("selfmod: committed %s as %s, restart requested", e.Path, hash)
	t := Termination{Code: ExitRestart, Reason: fmt.Sprintf("self-modification committed (%s)", hash)}
	c.pending = &t
	return t
}

func (c *Controller) commit(ctx context.Context, e Edit) (string, error) {
	if c.repo == nil {
		return "", ErrNoRepository
	}
	if err := c.repo.Stage(ctx, e.Path); err != nil {
		return "", fmt.Errorf("stage: %w", err)
	}
	hash, err := c.repo.Commit(ctx, e.Message, e.Path)
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return hash, nil
}

func (c *Controller) revert(ctx context.Context, e Edit) error {
	if err := fsutil.WriteFileAtomic(e.Path, e.Original); err != nil {
		return err
	}
	if c.repo != nil {
		if err := c.repo.Unstage(ctx, e.Path); err != nil {
			clog.Warn("selfmod: unstage %s: %v", e.Path, err)
		}
	}
	return nil
}

// Pending returns the termination recorded by Finalize, if any.
func (c *Controller) Pending() (Termination, bool) {
	if c.pending == nil {
		return Termination{}, false
	}
	return *c.pending, true
}

// Quit returns the termination for an operator quit. A pending restart
// takes precedence over a normal exit.
func (c *Controller) Quit() Termination {
	if t, ok := c.Pending(); ok {
		return t
	}
	return Termination{Code: ExitNormal, Reason: "quit"}
}

// Fail returns the termination for an unrecoverable error.
func (c *Controller) Fail(err error) Termination {
	c.state = StateFailed
	return Termination{Code: ExitError, Reason: "unrecoverable error", Err: err}
}
