package policy

import (
	"errors"
	"os"
	"sync/atomic"

	"github.com/xdg/kota/internal/clog"
)

// Store holds the active Engine for a policy file and swaps it on Reload.
// Evaluate is safe to call concurrently with Reload.
type Store struct {
	path   string
	active atomic.Pointer[Engine]
}

// NewStore loads the policy at path. A missing file is created with the
// default policy. An empty path uses the built-in default without a file.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path}
	if path == "" {
		s.active.Store(Default())
		return s, nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		clog.Info("policy: %s not found, writing default policy", path)
		if err := WriteDefault(path); err != nil {
			clog.Warn("policy: %v; using built-in default", err)
			s.active.Store(Default())
			return s, nil
		}
	}
	e, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	s.active.Store(e)
	return s, nil
}

// NewStaticStore wraps an Engine that cannot be reloaded.
func NewStaticStore(e *Engine) *Store {
	s := &Store{}
	s.active.Store(e)
	return s
}

// Path returns the policy file path, or "" for a static store.
func (s *Store) Path() string {
	return s.path
}

// Engine returns the active rule set.
func (s *Store) Engine() *Engine {
	return s.active.Load()
}

// Evaluate evaluates cmd against the active rule set.
func (s *Store) Evaluate(cmd string) Decision {
	return s.active.Load().Evaluate(cmd)
}

// Reload re-reads the policy file. On error the previous rule set stays
// active and the error is returned.
func (s *Store) Reload() error {
	if s.path == "" {
		return nil
	}
	e, err := LoadFile(s.path)
	if err != nil {
		clog.Warn("policy: reload failed, keeping previous rules: %v", err)
		return err
	}
	s.active.Store(e)
	clog.Info("policy: reloaded %d rules from %s", len(e.Rules()), s.path)
	return nil
}
