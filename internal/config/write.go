package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/xdg/kota/internal/fsutil"
)

// configPerm keeps config files private to the user; they can name model
// commands and agent arguments.
const configPerm = 0o600

// WriteDefaultConfig writes the commented default config unless a config
// file already exists.
func WriteDefaultConfig() error {
	if err := EnsureDir(); err != nil {
		return err
	}
	f, err := os.OpenFile(GlobalConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_EXCL, configPerm)
	if errors.Is(err, os.ErrExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("create default config: %w", err)
	}
	if _, err := f.WriteString(defaultConfigTemplate); err != nil {
		_ = f.Close()
		return fmt.Errorf("write default config: %w", err)
	}
	return f.Close()
}

// WriteGlobalConfig replaces the config file with cfg.
func WriteGlobalConfig(cfg *GlobalConfig) error {
	data, err := MarshalGlobalConfig(cfg)
	if err != nil {
		return err
	}
	if err := EnsureDir(); err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomicPerm(GlobalConfigPath(), data, configPerm); err != nil {
		return fmt.Errorf("write global config: %w", err)
	}
	return nil
}
