package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/xdg/kota/internal/agent"
	"github.com/xdg/kota/internal/approval"
	"github.com/xdg/kota/internal/audit"
	"github.com/xdg/kota/internal/clog"
	"github.com/xdg/kota/internal/config"
	"github.com/xdg/kota/internal/ctxstore"
	"github.com/xdg/kota/internal/engine"
	"github.com/xdg/kota/internal/journal"
	"github.com/xdg/kota/internal/model"
	"github.com/xdg/kota/internal/policy"
	"github.com/xdg/kota/internal/sandbox"
	"github.com/xdg/kota/internal/selfmod"
	"github.com/xdg/kota/internal/term"
	"github.com/xdg/kota/internal/vcs"
)

// appOptions are command-line overrides applied on top of the config.
type appOptions struct {
	Workdir  string
	Profile  string
	Backend  string
	Approval string
}

// app is every collaborator of one kota run, wired from configuration.
type app struct {
	cfg       *config.GlobalConfig
	workdir   string
	in        *bufio.Reader
	engine    *engine.Engine
	self      *selfmod.Controller
	responder model.Responder
	journal   *journal.Journal
	sessionID string
	closers   []io.Closer
}

func newApp(ctx context.Context, cfg *config.GlobalConfig, opts appOptions) (*app, error) {
	a := &app{cfg: cfg, in: bufio.NewReader(os.Stdin)}

	workdir := firstNonEmpty(opts.Workdir, cfg.Workdir, ".")
	abs, err := filepath.Abs(workdir)
	if err != nil {
		return nil, fmt.Errorf("resolve workdir: %w", err)
	}
	a.workdir = abs

	store := ctxstore.New(abs, ctxstore.NotifierFunc(contextAdded))

	policies, err := policy.NewStore(cfg.Policy.File)
	if err != nil {
		return nil, fmt.Errorf("failed to load policy: %w", err)
	}

	backend, err := sandbox.ParseBackend(firstNonEmpty(opts.Backend, cfg.Sandbox.Backend))
	if err != nil {
		return nil, err
	}
	selector := sandbox.NewSelector(backend, abs)
	selector.Shell = cfg.Execution.Shell
	selector.MaxOutput = cfg.Execution.MaxOutputBytes

	mode, err := approval.ParseMode(firstNonEmpty(opts.Approval, cfg.Approval.Mode), os.Stdin)
	if err != nil {
		return nil, err
	}
	gate := approval.NewGate(mode, approval.NewStdinPrompter(a.in, os.Stderr))

	repo := openRepo(ctx, abs)
	a.self = newSelfController(ctx, cfg)

	if r := model.NewCommandResponder(cfg.Model.Command, cfg.Model.Args, cfg.ModelTimeout()); r != nil {
		a.responder = r
	}

	a.sessionID = uuid.NewString()
	if !cfg.Journal.Disabled {
		j, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			term.Warn("journal disabled: %v", err)
		} else {
			a.journal = j
			if s, err := j.StartSession(ctx, abs); err != nil {
				clog.Warn("journal: start session: %v", err)
			} else {
				a.sessionID = s.ID
			}
		}
	}

	var auditLog *audit.Logger
	if cfg.Log.Audit != "" {
		f, err := audit.OpenFile(cfg.Log.Audit)
		if err != nil {
			term.Warn("audit log disabled: %v", err)
		} else {
			a.closers = append(a.closers, f)
			auditLog = audit.NewLogger(f, a.sessionID)
		}
	}

	profile := firstNonEmpty(opts.Profile, cfg.Sandbox.Profile)
	a.engine, err = engine.New(engine.Options{
		Store:     store,
		Policy:    policies,
		Selector:  selector,
		Gate:      gate,
		Self:      a.self,
		Repo:      repo,
		Messages:  &model.CommitMessager{Responder: a.responder},
		Agents:    agent.FromConfig(cfg.Agents, cfg.ModelTimeout()),
		Journal:   a.journal,
		Audit:     auditLog,
		Profile:   profile,
		Timeout:   cfg.ExecutionTimeout(),
		SessionID: a.sessionID,
		Reload:    a.reloadFunc(selector, gate),
		Describe:  a.describe,
	})
	if err != nil {
		a.Close(selfmod.ExitError)
		return nil, err
	}

	clog.Info("kota %s: session %s in %s (profile %s, backend %s, approval %s)",
		rootCmd.Version, a.sessionID, abs, profile, backend, mode)
	return a, nil
}

// contextAdded confirms each file added to the context store, so the
// operator sees exactly what the model will be shown.
func contextAdded(rel string, e ctxstore.Entry) {
	term.Ack("Added %s to context (%d bytes)", rel, len(e.Content))
	clog.Debug("context: added %s (%d bytes)", rel, len(e.Content))
}

// openRepo opens the git repository at dir, or returns nil with a warning.
func openRepo(ctx context.Context, dir string) *vcs.Repo {
	repo, err := vcs.Open(ctx, dir)
	if err == nil {
		return repo
	}
	if derr := gitDetectionError(err); derr != nil {
		term.Warn("%v", derr)
	} else {
		term.Warn("git: %v", err)
	}
	return nil
}

// newSelfController returns nil when no own-source tree is configured.
func newSelfController(ctx context.Context, cfg *config.GlobalConfig) *selfmod.Controller {
	root := cfg.SelfModify.SourceRoot
	if root == "" && len(cfg.SelfModify.Paths) == 0 {
		clog.Debug("selfmod: self_modify not configured; own-source detection off")
		return nil
	}
	var repo selfmod.Repo
	if root != "" {
		if r, err := vcs.Open(ctx, root); err == nil {
			repo = r
		} else {
			clog.Warn("selfmod: %s: %v; own-source edits will fail", root, err)
		}
	}
	return selfmod.New(root, cfg.SelfModify.Paths, repo)
}

// reloadFunc re-reads the config file for /config reload. Settings that
// live outside the engine are updated in place.
func (a *app) reloadFunc(selector *sandbox.Selector, gate *approval.Gate) func() error {
	return func() error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		mode, err := approval.ParseMode(cfg.Approval.Mode, os.Stdin)
		if err != nil {
			return err
		}
		selector.Shell = cfg.Execution.Shell
		selector.MaxOutput = cfg.Execution.MaxOutputBytes
		gate.SetMode(mode)
		a.cfg = cfg
		clog.Info("config: reloaded")
		return nil
	}
}

func (a *app) describe() string {
	data, err := config.MarshalGlobalConfig(a.cfg)
	if err != nil {
		return fmt.Sprintf("(config: %v)", err)
	}
	return string(data)
}

// Close ends the journal session and releases files.
func (a *app) Close(exitCode int) {
	if a.journal != nil {
		if err := a.journal.EndSession(context.Background(), a.sessionID, exitCode); err != nil {
			clog.Warn("journal: end session: %v", err)
		}
		if err := a.journal.Close(); err != nil {
			clog.Warn("journal: close: %v", err)
		}
	}
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	if err := errors.Join(errs...); err != nil {
		clog.Warn("kota: close: %v", err)
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
