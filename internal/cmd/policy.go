package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/xdg/kota/internal/policy"
	"github.com/xdg/kota/internal/term"
)

var policyFile string

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Inspect and test the command policy",
	Long: `Inspect and test the command policy.

The policy file is YAML or CUE (by extension) and defaults to
~/.config/kota/policy.yaml, which is created with a deny-by-default rule set
on first use. Exact rules are checked first, then pattern rules in file
order; the first match wins.`,
}

var policyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the active rules in evaluation order",
	Args:  cobra.NoArgs,
	RunE:  runPolicyShow,
}

var policyCheckCmd = &cobra.Command{
	Use:   "check [COMMAND...]",
	Short: "Validate the policy file or evaluate commands against it",
	Long: `With no arguments, validate the policy file and report the rule count.

With arguments, evaluate each one as a shell command line and print the
decision. Exits with status 1 if any command is denied.`,
	RunE: runPolicyCheck,
}

func init() {
	policyCmd.PersistentFlags().StringVar(&policyFile, "file", "", "policy file (default: policy.file from config)")
	policyCmd.AddCommand(policyShowCmd)
	policyCmd.AddCommand(policyCheckCmd)
	rootCmd.AddCommand(policyCmd)
}

func loadPolicy() (*policy.Store, error) {
	path := policyFile
	if path == "" {
		cfg, err := loadConfig()
		if err != nil {
			return nil, err
		}
		path = cfg.Policy.File
	}
	s, err := policy.NewStore(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load policy: %w", err)
	}
	return s, nil
}

func runPolicyShow(cmd *cobra.Command, args []string) error {
	s, err := loadPolicy()
	if err != nil {
		return err
	}
	eng := s.Engine()

	term.Printf("Policy: %s\n\n", s.Path())
	w := tabwriter.NewWriter(term.Stdout(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ORDER\tTYPE\tACTION\tPATTERN\tREASON")
	for _, r := range eng.Rules() {
		kind := "pattern"
		if r.Exact {
			kind = "exact"
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", r.Order, kind, r.Action, r.Pattern, r.Reason)
	}
	_, _ = fmt.Fprintf(w, "-\tdefault\t%s\t*\t\n", eng.Default())
	return w.Flush()
}

func runPolicyCheck(cmd *cobra.Command, args []string) error {
	s, err := loadPolicy()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		term.Printf("%s: OK (%d rules, default %s)\n", s.Path(), len(s.Engine().Rules()), s.Engine().Default())
		return nil
	}

	denied := false
	for _, c := range args {
		d := s.Evaluate(c)
		rule := "default"
		if d.Rule != nil {
			rule = d.Rule.String()
		}
		term.Printf("%-5s %s\n      %s tier, %s: %s\n", d.Action, c, d.Tier, rule, d.Reason)
		if !d.Allowed() {
			denied = true
		}
	}
	if denied {
		return NewExitCodeError(1)
	}
	return nil
}
