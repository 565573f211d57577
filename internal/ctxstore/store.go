// Package ctxstore tracks the files and text the model has been shown.
//
// A file enters the store only through an explicit Add, which captures a
// byte-exact snapshot. The edit applier refuses to touch any path that is
// not in the store. Snapshots are never refreshed from disk behind the
// operator's back; re-adding a path replaces its entry.
//
// A Store is not safe for concurrent use. The execution engine owns it and
// serializes every call.
package ctxstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/xdg/kota/internal/pathutil"
)

// ErrNotFound is returned by Add when the file does not exist.
var ErrNotFound = errors.New("file not found")

// ReadError is returned by Add when the file exists but cannot be read.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// Entry is a snapshot of a file as it was when added.
type Entry struct {
	Path    string // absolute, cleaned
	Content []byte
	AddedAt time.Time
}

// Notifier is told about every successful Add so the operator can see
// exactly what the model has access to.
type Notifier interface {
	Added(rel string, e Entry)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(rel string, e Entry)

// Added calls f(rel, e).
func (f NotifierFunc) Added(rel string, e Entry) { f(rel, e) }

// Store holds context entries keyed by absolute path, plus an ordered log
// of records produced while the session runs.
type Store struct {
	root     string
	entries  map[string]Entry
	order    []string
	records  []Record
	notifier Notifier
	now      func() time.Time
}

// New creates a Store whose relative paths resolve against root.
// notifier may be nil.
func New(root string, notifier Notifier) *Store {
	return &Store{
		root:     filepath.Clean(root),
		entries:  make(map[string]Entry),
		notifier: notifier,
		now:      time.Now,
	}
}

// Root returns the directory relative paths are resolved against.
func (s *Store) Root() string {
	return s.root
}

// Resolve normalizes path the same way Add does, so that "./a.txt",
// "a.txt" and "/root/a.txt" name the same entry.
func (s *Store) Resolve(path string) string {
	return pathutil.Resolve(s.root, path)
}

// Rel returns path relative to the store root when it lies beneath it,
// otherwise the absolute path.
func (s *Store) Rel(path string) string {
	abs := s.Resolve(path)
	if pathutil.Within(s.root, abs) {
		if rel, err := filepath.Rel(s.root, abs); err == nil {
			return rel
		}
	}
	return abs
}

// Add snapshots the file at path into the store, replacing any previous
// entry for the same path.
func (s *Store) Add(path string) (Entry, error) {
	abs := s.Resolve(path)
	info, err := os.Stat(abs)
	if errors.Is(err, os.ErrNotExist) {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, s.Rel(abs))
	}
	if err != nil {
		return Entry{}, &ReadError{Path: abs, Err: err}
	}
	if info.IsDir() {
		return Entry{}, &ReadError{Path: abs, Err: errors.New("is a directory")}
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return Entry{}, &ReadError{Path: abs, Err: err}
	}

	e := Entry{Path: abs, Content: data, AddedAt: s.now()}
	if _, ok := s.entries[abs]; !ok {
		s.order = append(s.order, abs)
	}
	s.entries[abs] = e

	if s.notifier != nil {
		s.notifier.Added(s.Rel(abs), e)
	}
	return e, nil
}

// Contains reports whether path has been added.
func (s *Store) Contains(path string) bool {
	_, ok := s.entries[s.Resolve(path)]
	return ok
}

// Get returns the entry for path.
func (s *Store) Get(path string) (Entry, bool) {
	e, ok := s.entries[s.Resolve(path)]
	return e, ok
}

// Paths returns the absolute paths of all entries in the order they were
// first added.
func (s *Store) Paths() []string {
	return slices.Clone(s.order)
}

// Len returns the number of file entries.
func (s *Store) Len() int {
	return len(s.entries)
}

// Clear removes every entry and record.
func (s *Store) Clear() {
	s.entries = make(map[string]Entry)
	s.order = nil
	s.records = nil
}

// Render formats the store as text for inclusion in a model prompt:
// every file snapshot followed by every record, oldest first.
func (s *Store) Render() string {
	var b strings.Builder
	for _, p := range s.order {
		e := s.entries[p]
		fmt.Fprintf(&b, "### File: %s\n```\n%s", s.Rel(p), e.Content)
		if len(e.Content) > 0 && e.Content[len(e.Content)-1] != '\n' {
			b.WriteByte('\n')
		}
		b.WriteString("```\n\n")
	}
	for _, r := range s.records {
		b.WriteString(r.render())
		b.WriteByte('\n')
	}
	return b.String()
}
