package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xdg/kota/internal/clog"
	"github.com/xdg/kota/internal/pathutil"
)

// Dir returns the kota configuration directory path.
// By default, this is ~/.config/kota/. If the XDG_CONFIG_HOME
// environment variable is set, it uses $XDG_CONFIG_HOME/kota/ instead.
// The returned path always has a trailing slash.
func Dir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		base = "~/.config"
	}
	return pathutil.ExpandHome(base) + "/kota/"
}

// EnsureDir creates the kota configuration directory if it doesn't exist.
func EnsureDir() error {
	if err := os.MkdirAll(Dir(), 0o700); err != nil {
		return fmt.Errorf("ensure config dir: %w", err)
	}
	return nil
}

// GlobalConfigPath returns the full path to the global configuration file.
func GlobalConfigPath() string {
	return Dir() + "config.yaml"
}

// DefaultPolicyPath returns the default policy file path.
func DefaultPolicyPath() string {
	return Dir() + "policy.yaml"
}

// DefaultJournalPath returns the default SQLite journal path.
func DefaultJournalPath() string {
	return filepath.Join(clog.StateDir(), "journal.db")
}

// DefaultAuditPath returns the default audit log path.
func DefaultAuditPath() string {
	return filepath.Join(clog.StateDir(), "audit.log")
}
