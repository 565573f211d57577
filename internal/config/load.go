package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/xdg/kota/internal/clog"
	"github.com/xdg/kota/internal/pathutil"
)

// LoadGlobalConfig loads the global configuration from the default config path.
// If the config file doesn't exist, a commented default file is written and
// DefaultGlobalConfig() is returned.
func LoadGlobalConfig() (*GlobalConfig, error) {
	path := GlobalConfigPath()
	cfg, err := LoadConfigFile(path)
	if errors.Is(err, os.ErrNotExist) {
		clog.Debug("config: %s not found, creating defaults", path)
		if writeErr := WriteDefaultConfig(); writeErr != nil {
			clog.Warn("config: failed to create default config: %v", writeErr)
		}
		cfg = DefaultGlobalConfig()
		expandGlobalPaths(cfg)
		return cfg, nil
	}
	return cfg, err
}

// LoadConfigFile loads, validates and defaults the configuration at path.
// A missing file is reported as an error wrapping os.ErrNotExist.
// All paths containing ~ are expanded to the actual home directory.
func LoadConfigFile(path string) (*GlobalConfig, error) {
	clog.Debug("config: loading %s", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg, err := ParseGlobalConfig(data)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}

	if err := ValidateGlobalConfig(cfg); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}

	applyDefaults(cfg)
	expandGlobalPaths(cfg)
	return cfg, nil
}

// expandGlobalPaths expands ~ to the home directory in all path fields.
func expandGlobalPaths(cfg *GlobalConfig) {
	cfg.Workdir = pathutil.ExpandHome(cfg.Workdir)
	cfg.Policy.File = pathutil.ExpandHome(cfg.Policy.File)
	cfg.SelfModify.SourceRoot = pathutil.ExpandHome(cfg.SelfModify.SourceRoot)
	for i, p := range cfg.SelfModify.Paths {
		cfg.SelfModify.Paths[i] = pathutil.ExpandHome(p)
	}
	cfg.Journal.Path = pathutil.ExpandHome(cfg.Journal.Path)
	cfg.Log.File = pathutil.ExpandHome(cfg.Log.File)
	cfg.Log.Audit = pathutil.ExpandHome(cfg.Log.Audit)
}
