package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/xdg/kota/internal/journal"
	"github.com/xdg/kota/internal/term"
)

var (
	historySession  string
	historyKind     string
	historyLimit    int
	historySessions bool
	historyNotes    bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show journaled actions, sessions or memory notes",
	Long: `Show what kota has done, newest first.

Every edit, command and verb handled in a session is recorded in the
journal database (journal.path in the config). Use --sessions to list
sessions with their exit status, or --notes to list memory notes saved
with /memory add.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&historySession, "session", "", "only actions from this session ID")
	historyCmd.Flags().StringVar(&historyKind, "kind", "", "only actions of this kind (edit, command, verb, agent)")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of rows")
	historyCmd.Flags().BoolVar(&historySessions, "sessions", false, "list sessions instead of actions")
	historyCmd.Flags().BoolVar(&historyNotes, "notes", false, "list memory notes instead of actions")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Journal.Disabled {
		return fmt.Errorf("the journal is disabled (journal.disabled in %s)", configPathForDisplay())
	}
	j, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer j.Close()

	ctx := cmd.Context()
	w := tabwriter.NewWriter(term.Stdout(), 0, 0, 2, ' ', 0)

	switch {
	case historySessions:
		sessions, err := j.Sessions(ctx, historyLimit)
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			term.Println("No sessions recorded.")
			return nil
		}
		_, _ = fmt.Fprintln(w, "SESSION\tSTARTED\tDURATION\tEXIT\tWORKDIR")
		for _, s := range sessions {
			dur, exit := "running", "-"
			if !s.EndedAt.IsZero() {
				dur = s.EndedAt.Sub(s.StartedAt).Round(time.Second).String()
				exit = fmt.Sprint(s.ExitCode)
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", s.ID, formatTime(s.StartedAt), dur, exit, s.Workdir)
		}

	case historyNotes:
		notes, err := j.Notes(ctx, historyLimit)
		if err != nil {
			return err
		}
		if len(notes) == 0 {
			term.Println("No notes recorded.")
			return nil
		}
		_, _ = fmt.Fprintln(w, "ID\tCREATED\tNOTE")
		for _, n := range notes {
			_, _ = fmt.Fprintf(w, "%d\t%s\t%s\n", n.ID, formatTime(n.CreatedAt), n.Text)
		}

	default:
		actions, err := j.Actions(ctx, journal.Filter{
			SessionID: historySession,
			Kind:      journal.ActionKind(historyKind),
			Limit:     historyLimit,
		})
		if err != nil {
			return err
		}
		if len(actions) == 0 {
			term.Println("No actions recorded.")
			return nil
		}
		_, _ = fmt.Fprintln(w, "TIME\tKIND\tSTATUS\tSUBJECT\tDETAIL")
		for _, a := range actions {
			detail := a.Detail
			if a.Commit != "" {
				detail = "commit " + a.Commit
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", formatTime(a.CreatedAt), a.Kind, a.Status, truncate(a.Subject, 60), truncate(detail, 60))
		}
	}
	return w.Flush()
}

func formatTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04:05")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func configPathForDisplay() string {
	if configFile != "" {
		return configFile
	}
	return "the config file"
}
