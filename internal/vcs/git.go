// Package vcs wraps the git operations kota needs: staging and committing
// applied edits, and reporting status and diffs to the operator.
//
// All invocations use fixed argument vectors built here; no shell is
// involved and no operator or model text is interpreted as git options.
package vcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrNotGitRepo indicates the path is not within a git repository.
var ErrNotGitRepo = errors.New("not a git repository")

// ErrGitNotInstalled indicates git is not installed or not in PATH.
var ErrGitNotInstalled = errors.New("git is not installed or not in PATH")

// ErrNothingToCommit indicates a commit was requested with no staged change.
var ErrNothingToCommit = errors.New("nothing to commit")

// GitError represents a failed git command with stderr output.
type GitError struct {
	Command string
	Args    []string
	Stderr  string
	Err     error
}

func (e *GitError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("git %s failed: %v\nstderr: %s", e.Command, e.Err, e.Stderr)
	}
	return fmt.Sprintf("git %s failed: %v", e.Command, e.Err)
}

func (e *GitError) Unwrap() error {
	return e.Err
}

// Repo is a git working tree rooted at Dir.
type Repo struct {
	Dir string
}

// Open returns the Repo containing path.
func Open(ctx context.Context, path string) (*Repo, error) {
	out, err := runGit(ctx, path, "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(out)
	if err != nil {
		return nil, fmt.Errorf("resolve repository root: %w", err)
	}
	return &Repo{Dir: filepath.Clean(abs)}, nil
}

// Stage adds paths to the index.
func (r *Repo) Stage(ctx context.Context, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	_, err := runGit(ctx, r.Dir, append([]string{"add", "--"}, paths...)...)
	return err
}

// Unstage removes paths from the index, leaving the working tree alone.
func (r *Repo) Unstage(ctx context.Context, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	_, err := runGit(ctx, r.Dir, append([]string{"reset", "-q", "--"}, paths...)...)
	return err
}

// Commit records the staged state of paths with message and returns the
// short hash of the new commit. Other staged paths are left staged.
func (r *Repo) Commit(ctx context.Context, message string, paths ...string) (string, error) {
	args := []string{"commit", "-q", "-m", message}
	if len(paths) > 0 {
		args = append(args, "--")
		args = append(args, paths...)
	}
	if _, err := runGit(ctx, r.Dir, args...); err != nil {
		var gitErr *GitError
		if errors.As(err, &gitErr) && strings.Contains(gitErr.Stderr, "nothing to commit") {
			return "", ErrNothingToCommit
		}
		return "", err
	}
	return r.Head(ctx)
}

// Head returns the short hash of HEAD.
func (r *Repo) Head(ctx context.Context) (string, error) {
	return runGit(ctx, r.Dir, "rev-parse", "--short", "HEAD")
}

// Status returns the short-format working tree status.
func (r *Repo) Status(ctx context.Context) (string, error) {
	return runGit(ctx, r.Dir, "status", "--short", "--branch")
}

// Diff returns the unstaged diff, or the staged diff when staged is true,
// optionally restricted to paths.
func (r *Repo) Diff(ctx context.Context, staged bool, paths ...string) (string, error) {
	args := []string{"diff"}
	if staged {
		args = append(args, "--cached")
	}
	if len(paths) > 0 {
		args = append(args, "--")
		args = append(args, paths...)
	}
	return runGit(ctx, r.Dir, args...)
}

// Log returns the last n commits in one-line format.
func (r *Repo) Log(ctx context.Context, n int) (string, error) {
	return runGit(ctx, r.Dir, "log", "--oneline", fmt.Sprintf("-%d", n))
}

// runGit executes a git command in dir and returns trimmed stdout.
// If dir is empty, uses the current working directory. Some failures
// (git commit with nothing staged) are explained on stdout, so stdout
// stands in for an empty stderr in the returned GitError.
func runGit(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	if dir != "" {
		cmd.Dir = dir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return "", ErrGitNotInstalled
		}

		cmdName := ""
		if len(args) > 0 {
			cmdName = args[0]
		}

		stderrStr := stderr.String()
		if strings.Contains(stderrStr, "not a git repository") {
			return "", ErrNotGitRepo
		}
		if stderrStr == "" {
			stderrStr = stdout.String()
		}

		return "", &GitError{
			Command: cmdName,
			Args:    args,
			Stderr:  strings.TrimSpace(stderrStr),
			Err:     err,
		}
	}

	return strings.TrimSpace(stdout.String()), nil
}
