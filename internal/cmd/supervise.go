package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xdg/kota/internal/clog"
	"github.com/xdg/kota/internal/supervisor"
	"github.com/xdg/kota/internal/term"
)

var (
	superviseSource      string
	superviseBinary      string
	superviseBuild       string
	superviseMaxRestarts int
)

var superviseCmd = &cobra.Command{
	Use:   "supervise [-- CHAT-FLAGS...]",
	Short: "Build and run kota, rebuilding after self-modification",
	Long: `Build kota from its source tree and run 'kota chat' in a loop.

When the session exits with status 123 (an edit to kota's own source was
committed) the source is rebuilt and the session relaunched. Status 0 stops
the loop. Any other status, or a failed build, stops the loop and is
reported; the last good commit can then be restored with git.

Arguments after "--" are passed to 'kota chat'.`,
	RunE: runSupervise,
}

func init() {
	superviseCmd.Flags().StringVar(&superviseSource, "source", "", "kota source tree (default: self_modify.source_root from config)")
	superviseCmd.Flags().StringVar(&superviseBinary, "binary", "", "where to build the binary (default: SOURCE/bin/kota)")
	superviseCmd.Flags().StringVar(&superviseBuild, "build", "", `build command (default: "go build -o BINARY ./cmd/kota")`)
	superviseCmd.Flags().IntVar(&superviseMaxRestarts, "max-restarts", 0, "stop after this many consecutive restarts (0: no limit)")
	rootCmd.AddCommand(superviseCmd)
}

func runSupervise(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := setupLogging(cfg); err != nil {
		return err
	}

	source := firstNonEmpty(superviseSource, cfg.SelfModify.SourceRoot)
	if source == "" {
		return errors.New("no source tree; set self_modify.source_root or pass --source")
	}
	source, err = filepath.Abs(source)
	if err != nil {
		return fmt.Errorf("resolve source: %w", err)
	}
	binary := firstNonEmpty(superviseBinary, filepath.Join(source, "bin", "kota"))
	build := []string{"go", "build", "-o", binary, "./cmd/kota"}
	if superviseBuild != "" {
		build = strings.Fields(superviseBuild)
	}

	childArgs := []string{"chat"}
	if configFile != "" {
		childArgs = append(childArgs, "--config", configFile)
	}
	childArgs = append(childArgs, args...)

	// The child shares the terminal; an interrupt is its to handle.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	defer func() {
		signal.Stop(sigs)
		close(sigs)
	}()
	go func() {
		for range sigs {
			clog.Debug("supervisor: interrupt passed to child")
		}
	}()

	s := &supervisor.Supervisor{
		Builder:     &supervisor.CommandBuilder{Dir: source, Argv: build},
		Runner:      &supervisor.ProcessRunner{Path: binary, Args: childArgs},
		MaxRestarts: superviseMaxRestarts,
	}
	restarts, err := s.Loop(cmd.Context())
	if err == nil {
		term.Printf("kota exited normally after %d restart(s)\n", restarts)
		return nil
	}

	var exitErr *supervisor.ExitError
	if errors.As(err, &exitErr) {
		term.Error("%v after %d restart(s)", err, restarts)
		return NewExitCodeError(exitErr.Code)
	}
	return err
}
