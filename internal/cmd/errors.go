package cmd

import (
	"errors"
	"fmt"

	"github.com/xdg/kota/internal/vcs"
)

// ExitCodeError carries a process exit status out of a command. main
// exits with Code without printing anything further.
type ExitCodeError struct {
	Code int
}

// NewExitCodeError returns an ExitCodeError for code.
func NewExitCodeError(code int) *ExitCodeError {
	return &ExitCodeError{Code: code}
}

func (e *ExitCodeError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// gitDetectionError turns repository detection failures into a
// user-facing warning. Returns nil if err is not a detection error.
func gitDetectionError(err error) error {
	if errors.Is(err, vcs.ErrNotGitRepo) {
		return errors.New("not in a git repository; edits will not be committed")
	}
	if errors.Is(err, vcs.ErrGitNotInstalled) {
		return errors.New("git is not installed or not in PATH; edits will not be committed")
	}
	return nil
}
