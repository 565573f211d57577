package cmd

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/xdg/kota/internal/selfmod"
	"github.com/xdg/kota/internal/session"
	"github.com/xdg/kota/internal/term"
)

var (
	chatOpts          appOptions
	chatShowResponses bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive session",
	Long: `Start an interactive session in the working directory.

Lines beginning with "/" are control verbs (see /help). Any other line is
sent to the model command configured under model.command together with the
current context, and the response is processed: edits first, then
commands, each confirmed by the operator.

The process exits with status 0 on /quit, 123 after committing an edit to
kota's own source (see 'kota supervise'), and 1 on failure.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	addAppFlags(chatCmd, &chatOpts)
	chatCmd.Flags().BoolVar(&chatShowResponses, "show-responses", true, "print each model response before processing it")
	rootCmd.AddCommand(chatCmd)
}

func addAppFlags(cmd *cobra.Command, opts *appOptions) {
	cmd.Flags().StringVarP(&opts.Workdir, "workdir", "C", "", "working directory (default: config workdir or current directory)")
	cmd.Flags().StringVar(&opts.Profile, "profile", "", "sandbox profile (minimal, development, read-only)")
	cmd.Flags().StringVar(&opts.Backend, "backend", "", "sandbox backend (auto, seatbelt, bwrap, none)")
	cmd.Flags().StringVar(&opts.Approval, "approval", "", "approval mode (auto, prompt, reject)")
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := setupLogging(cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	a, err := newApp(ctx, cfg, chatOpts)
	if err != nil {
		return err
	}

	s, err := session.New(session.Options{
		Engine:        a.engine,
		Responder:     a.responder,
		Self:          a.self,
		In:            a.in,
		ShowResponses: chatShowResponses,
	})
	if err != nil {
		a.Close(selfmod.ExitError)
		return err
	}

	term.Printf("kota session %s in %s. Type /help for commands.\n", a.sessionID, a.workdir)
	return finish(a, s.Run(ctx))
}

// finish closes the app and converts a termination into the process status.
func finish(a *app, t selfmod.Termination) error {
	a.Close(t.Code)
	switch {
	case t.Err != nil:
		term.Error("%s: %v", t.Reason, t.Err)
	case t.Restart():
		term.Println(t.Reason + "; exiting for restart")
	}
	if t.Code != selfmod.ExitNormal {
		return NewExitCodeError(t.Code)
	}
	return nil
}
