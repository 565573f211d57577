package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/xdg/kota/internal/approval"
	"github.com/xdg/kota/internal/command"
	"github.com/xdg/kota/internal/sandbox"
	"github.com/xdg/kota/internal/term"
)

// ErrNoRepository is returned by /git verbs outside a git work tree.
var ErrNoRepository = errors.New("not in a git repository")

// ErrNoJournal is returned by /memory verbs when the journal is disabled.
var ErrNoJournal = errors.New("journal is disabled")

// dispatchVerb performs a control verb. It is only reached after the
// verb's approval requirement has been satisfied. The returned text has
// already been shown to the operator.
func (e *Engine) dispatchVerb(ctx context.Context, req command.Request) (string, error) {
	var (
		text string
		err  error
	)
	switch req.Verb {
	case "context":
		text, err = e.contextVerb(req)
	case "agent":
		text, err = e.agentVerb(ctx, req)
	case "security":
		text, err = e.securityVerb(req)
	case "memory":
		text, err = e.memoryVerb(ctx, req)
	case "git":
		text, err = e.gitVerb(ctx, req)
	case "config":
		text, err = e.configVerb(req)
	default:
		err = fmt.Errorf("%w: /%s", command.ErrUnknownVerb, req.Verb)
	}
	if err != nil {
		term.Fail("%v", err)
		return text, err
	}
	if text != "" {
		term.Block(text)
	}
	return text, nil
}

func (e *Engine) contextVerb(req command.Request) (string, error) {
	switch req.Sub {
	case "add":
		paths := strings.Fields(req.Arg)
		if len(paths) == 0 {
			return "", errors.New("/context add: no files given")
		}
		var errs []error
		for _, p := range paths {
			if _, err := e.store.Add(p); err != nil {
				errs = append(errs, err)
			}
		}
		return "", errors.Join(errs...)
	case "snippet":
		if strings.TrimSpace(req.Arg) == "" {
			return "", errors.New("/context snippet: no text given")
		}
		e.store.AddSnippet("snippet", req.Arg)
		return "snippet added", nil
	case "clear":
		e.store.Clear()
		return "context cleared", nil
	default: // show
		paths := e.store.Paths()
		if len(paths) == 0 {
			return "context is empty", nil
		}
		var b strings.Builder
		for _, p := range paths {
			entry, _ := e.store.Get(p)
			fmt.Fprintf(&b, "%s (%d bytes)\n", e.store.Rel(p), len(entry.Content))
		}
		fmt.Fprintf(&b, "%d records", len(e.store.Records()))
		return b.String(), nil
	}
}

func (e *Engine) agentVerb(ctx context.Context, req command.Request) (string, error) {
	switch req.Sub {
	case "describe":
		return e.agents.Describe(strings.TrimSpace(req.Arg))
	case "delegate", "query":
		name, task, _ := strings.Cut(strings.TrimSpace(req.Arg), " ")
		answer, err := e.agents.Delegate(ctx, name, strings.TrimSpace(task))
		if err == nil && req.Sub == "delegate" {
			e.store.AddSnippet("agent "+name, answer)
		}
		return answer, err
	default: // list
		names := e.agents.List()
		if len(names) == 0 {
			return "no agents configured", nil
		}
		var b strings.Builder
		for _, n := range names {
			d, _ := e.agents.Describe(n)
			b.WriteString(d)
			b.WriteByte('\n')
		}
		return strings.TrimSuffix(b.String(), "\n"), nil
	}
}

func (e *Engine) securityVerb(req command.Request) (string, error) {
	arg := strings.TrimSpace(req.Arg)
	switch req.Sub {
	case "sandbox-profile":
		if arg == "" {
			return "sandbox profile: " + e.profile + " (available: " + strings.Join(sandbox.ProfileNames(), ", ") + ")", nil
		}
		if _, err := sandbox.LookupProfile(arg); err != nil {
			return "", err
		}
		e.profile = arg
		return "sandbox profile set to " + arg, nil
	case "approval-mode":
		if arg == "" {
			return "approval mode: " + e.gate.Mode().String(), nil
		}
		m, err := approval.ParseMode(arg, os.Stdin)
		if err != nil {
			return "", err
		}
		e.gate.SetMode(m)
		return "approval mode set to " + m.String(), nil
	default: // status
		return e.securityStatus(), nil
	}
}

func (e *Engine) securityStatus() string {
	var b strings.Builder
	fmt.Fprintf(&b, "sandbox profile: %s\n", e.profile)
	fmt.Fprintf(&b, "sandbox backend: %s\n", e.selector.Backend)
	fmt.Fprintf(&b, "approval mode:   %s\n", e.gate.Mode())
	eng := e.policy.Engine()
	path := e.policy.Path()
	if path == "" {
		path = "(built-in)"
	}
	fmt.Fprintf(&b, "policy:          %s (%d rules, default %s)\n", path, len(eng.Rules()), eng.Default())
	if e.self != nil {
		fmt.Fprintf(&b, "self-modify:     %s\n", e.self.State())
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (e *Engine) memoryVerb(ctx context.Context, req command.Request) (string, error) {
	if e.journal == nil {
		return "", ErrNoJournal
	}
	arg := strings.TrimSpace(req.Arg)
	switch req.Sub {
	case "add":
		n, err := e.journal.AddNote(ctx, e.sessionID, arg)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("note %d saved", n.ID), nil
	case "search":
		if arg == "" {
			return "", errors.New("/memory search: no query given")
		}
		notes, err := e.journal.SearchNotes(ctx, arg, 20)
		if err != nil {
			return "", err
		}
		return formatNotes(notes), nil
	default: // show
		notes, err := e.journal.Notes(ctx, 20)
		if err != nil {
			return "", err
		}
		return formatNotes(notes), nil
	}
}

func (e *Engine) gitVerb(ctx context.Context, req command.Request) (string, error) {
	if e.repo == nil {
		return "", ErrNoRepository
	}
	arg := strings.TrimSpace(req.Arg)
	switch req.Sub {
	case "stage":
		paths := strings.Fields(arg)
		if len(paths) == 0 {
			return "", errors.New("/git stage: no files given")
		}
		for i, p := range paths {
			paths[i] = e.store.Resolve(p)
		}
		if err := e.repo.Stage(ctx, paths...); err != nil {
			return "", err
		}
		return fmt.Sprintf("staged %d file(s)", len(paths)), nil
	case "commit":
		if arg == "" {
			return "", errors.New("/git commit: message required")
		}
		hash, err := e.repo.Commit(ctx, arg)
		if err != nil {
			return "", err
		}
		return "committed " + hash, nil
	case "diff":
		staged := false
		var paths []string
		for _, f := range strings.Fields(arg) {
			switch f {
			case "--staged", "--cached":
				staged = true
			default:
				paths = append(paths, e.store.Resolve(f))
			}
		}
		return e.repo.Diff(ctx, staged, paths...)
	default: // status
		return e.repo.Status(ctx)
	}
}

func (e *Engine) configVerb(req command.Request) (string, error) {
	switch req.Sub {
	case "reload":
		if err := e.policy.Reload(); err != nil {
			return "", fmt.Errorf("reload policy: %w", err)
		}
		if e.reload != nil {
			if err := e.reload(); err != nil {
				return "", fmt.Errorf("reload config: %w", err)
			}
		}
		return fmt.Sprintf("reloaded: %d policy rules", len(e.policy.Engine().Rules())), nil
	default: // show
		text := e.securityStatus()
		if e.describe != nil {
			text += "\n\n" + e.describe()
		}
		return text, nil
	}
}
