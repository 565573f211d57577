package edit

import (
	"errors"
	"fmt"
)

// ErrAccessDenied is returned for a block whose target file has not been
// added to context.
var ErrAccessDenied = errors.New("file not in context")

// ErrMatchFailure is returned when the search text does not occur exactly
// once in the file. Use errors.As with *MatchError for details.
var ErrMatchFailure = errors.New("search text must match exactly once")

// MatchError reports how many times the search text occurred.
type MatchError struct {
	Path  string
	Count int
	Lines []int // 1-based starting lines of each occurrence
	Empty bool  // search text was empty
}

func (e *MatchError) Error() string {
	switch {
	case e.Empty:
		return fmt.Sprintf("%s: empty search text", e.Path)
	case e.Count == 0:
		return fmt.Sprintf("%s: search text not found", e.Path)
	default:
		return fmt.Sprintf("%s: search text appears %d times (lines %v)", e.Path, e.Count, e.Lines)
	}
}

func (e *MatchError) Unwrap() error {
	return ErrMatchFailure
}

// WriteError reports an I/O failure while reading or writing the target.
type WriteError struct {
	Path string
	Op   string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
