package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/xdg/kota/internal/sandbox"
	"github.com/xdg/kota/internal/term"
)

var sandboxCmd = &cobra.Command{
	Use:   "sandbox",
	Short: "Inspect sandbox profiles",
	Long: `Inspect the sandbox profiles commands run under.

The set of profiles is fixed. On macOS they are enforced with sandbox-exec
(seatbelt), on Linux with bubblewrap. Network access is denied in every
profile.`,
}

var sandboxProfilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List sandbox profiles",
	Args:  cobra.NoArgs,
	RunE:  runSandboxProfiles,
}

var sandboxShowCmd = &cobra.Command{
	Use:   "show PROFILE",
	Short: "Show how a profile would be launched here",
	Args:  cobra.ExactArgs(1),
	RunE:  runSandboxShow,
}

var sandboxBackend string

func init() {
	sandboxShowCmd.Flags().StringVar(&sandboxBackend, "backend", "", "sandbox backend (default: sandbox.backend from config)")
	sandboxCmd.AddCommand(sandboxProfilesCmd)
	sandboxCmd.AddCommand(sandboxShowCmd)
	rootCmd.AddCommand(sandboxCmd)
}

func runSandboxProfiles(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(term.Stdout(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tWORKDIR\tTEMP\tDESCRIPTION")
	for _, p := range sandbox.Profiles() {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Name, access(p.ReadWorkdir, p.WriteWorkdir), access(p.WriteTemp, p.WriteTemp), p.Description)
	}
	return w.Flush()
}

func access(read, write bool) string {
	switch {
	case write:
		return "read-write"
	case read:
		return "read-only"
	default:
		return "none"
	}
}

func runSandboxShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	backend, err := sandbox.ParseBackend(firstNonEmpty(sandboxBackend, cfg.Sandbox.Backend))
	if err != nil {
		return err
	}
	sel := sandbox.NewSelector(backend, firstNonEmpty(cfg.Workdir, "."))
	sel.Shell = cfg.Execution.Shell
	inv, err := sel.Select(args[0])
	if err != nil {
		return err
	}

	term.Printf("profile:  %s\n", inv.Profile.Name)
	term.Printf("backend:  %s\n", inv.Backend)
	term.Printf("workdir:  %s\n", inv.Workdir)
	if inv.TempDir != "" {
		term.Printf("tempdir:  %s\n", inv.TempDir)
	}
	term.Printf("argv:     %s\n", strings.Join(inv.Argv("COMMAND"), " "))
	term.Println("env:")
	for _, e := range inv.Env {
		term.Printf("  %s\n", e)
	}
	if inv.Backend == sandbox.BackendSeatbelt {
		term.Println("policy:")
		term.Block(inv.Profile.SeatbeltPolicy())
	}
	return nil
}
