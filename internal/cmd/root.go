// Package cmd implements the CLI commands for kota.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xdg/kota/internal/clog"
	"github.com/xdg/kota/internal/config"
	"github.com/xdg/kota/internal/version"
)

var (
	configFile string
	logLevel   string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "kota",
	Short: "Safe action execution for an LLM coding assistant",
	Long: `Kota turns model responses into reviewed file edits and sandboxed shell
commands.

Edits only touch files the model has been shown. Commands are checked
against a policy, confirmed by the operator and run inside a sandbox.
When kota edits its own source it commits the change and exits with
status 123 so that 'kota supervise' can rebuild and relaunch it. This
detection is off until self_modify.source_root or self_modify.paths is
set in the config file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.Version = version.Version
	if rev := version.Revision(); rev != "" {
		rootCmd.Version += " (" + rev + ")"
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default "+config.GlobalConfigPath()+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level (debug, info, warn, error)")
}

// Execute runs the root command and returns any error.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig loads --config when given, otherwise the global config.
func loadConfig() (*config.GlobalConfig, error) {
	var (
		cfg *config.GlobalConfig
		err error
	)
	if configFile != "" {
		cfg, err = config.LoadConfigFile(configFile)
	} else {
		cfg, err = config.LoadGlobalConfig()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg, nil
}

// setupLogging points the operational log at the configured file.
func setupLogging(cfg *config.GlobalConfig) error {
	err := clog.Configure(clog.Options{
		Path:    cfg.Log.File,
		Level:   clog.ParseLevel(cfg.Log.Level),
		Journal: cfg.Log.Journal,
	})
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	return nil
}
