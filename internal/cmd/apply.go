package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/xdg/kota/internal/engine"
	"github.com/xdg/kota/internal/session"
)

var (
	applyOpts    appOptions
	applyContext []string
)

var applyCmd = &cobra.Command{
	Use:   "apply FILE",
	Short: "Process a saved model response",
	Long: `Process one model response read from FILE ("-" for stdin) and exit.

Files named with --context are added to the context first; edits to any
other file are refused. Approval follows the configured mode, so in a
pipeline with approval "auto" every approval-required action is rejected.

Exits with 0 when every action succeeded, 2 when some were skipped or
failed, and 123 after an edit to kota's own source.`,
	Args: cobra.ExactArgs(1),
	RunE: runApply,
}

func init() {
	addAppFlags(applyCmd, &applyOpts)
	applyCmd.Flags().StringSliceVar(&applyContext, "context", nil, "file to add to the context (repeatable)")
	rootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := setupLogging(cfg); err != nil {
		return err
	}

	var data []byte
	if args[0] == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, applyOpts)
	if err != nil {
		return err
	}
	for _, p := range applyContext {
		if _, err := a.engine.Store().Add(p); err != nil {
			a.Close(1)
			return fmt.Errorf("failed to add %s to context: %w", p, err)
		}
	}

	s, err := session.New(session.Options{Engine: a.engine, Self: a.self, In: a.in, ShowResponses: false})
	if err != nil {
		a.Close(1)
		return err
	}
	report, t, done := s.Ingest(ctx, string(data))
	if done {
		return finish(a, t)
	}
	a.Close(0)
	if report != nil && !succeeded(report) {
		return NewExitCodeError(2)
	}
	return nil
}

// succeeded reports whether every action in r completed.
func succeeded(r *engine.Report) bool {
	if len(r.Errors) > 0 || r.Applied() != len(r.Edits) {
		return false
	}
	for _, c := range r.Commands {
		if c.Status != engine.StatusCompleted && c.Status != engine.StatusDispatched {
			return false
		}
		if c.Result != nil && c.Result.ExitCode != 0 {
			return false
		}
	}
	return true
}
