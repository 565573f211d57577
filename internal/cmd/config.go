package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xdg/kota/internal/config"
	"github.com/xdg/kota/internal/policy"
	"github.com/xdg/kota/internal/term"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create kota's configuration",
	Long: `Inspect or create kota's configuration.

The config file lives at $XDG_CONFIG_HOME/kota/config.yaml, which is
~/.config/kota/config.yaml by default. --config points at another file.
Command rules live in a separate policy file named by policy.file.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective config",
	Long: `Print the configuration kota would run with, as YAML, after defaults are
applied and ~ is expanded. A missing config file shows the defaults.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	Run:   runConfigPath,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config and policy files",
	Long: `Write the commented default config file and the default policy file.
Existing files are left untouched, so init is safe to run again.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

func init() {
	configCmd.AddCommand(configShowCmd, configPathCmd, configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	data, err := config.MarshalGlobalConfig(cfg)
	if err != nil {
		return err
	}
	term.Printf("%s", data)
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) {
	term.Println(firstNonEmpty(configFile, config.GlobalConfigPath()))
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	if configFile == "" {
		if err := config.WriteDefaultConfig(); err != nil {
			return fmt.Errorf("config init: %w", err)
		}
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := policy.WriteDefault(cfg.Policy.File); err != nil {
		return fmt.Errorf("config init: %w", err)
	}
	term.Printf("config: %s\npolicy: %s\n", firstNonEmpty(configFile, config.GlobalConfigPath()), cfg.Policy.File)
	return nil
}
