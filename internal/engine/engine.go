// Package engine runs everything a model response or the operator asks for
// through one pipeline: edits through the context-gated applier, commands
// through classification, policy, approval and the sandbox.
//
// The engine is single-flight. Every entry point holds one mutex for its
// whole duration, so the context store and approval state are never
// touched concurrently.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/xdg/kota/internal/agent"
	"github.com/xdg/kota/internal/approval"
	"github.com/xdg/kota/internal/audit"
	"github.com/xdg/kota/internal/clog"
	"github.com/xdg/kota/internal/command"
	"github.com/xdg/kota/internal/ctxstore"
	"github.com/xdg/kota/internal/edit"
	"github.com/xdg/kota/internal/journal"
	"github.com/xdg/kota/internal/policy"
	"github.com/xdg/kota/internal/sandbox"
	"github.com/xdg/kota/internal/selfmod"
	"github.com/xdg/kota/internal/term"
	"github.com/xdg/kota/internal/vcs"
)

// Options are the collaborators of an Engine. Store, Policy, Selector and
// Gate are required; the rest may be nil.
type Options struct {
	Store    *ctxstore.Store
	Policy   *policy.Store
	Selector *sandbox.Selector
	Gate     *approval.Gate

	Self     *selfmod.Controller
	Repo     *vcs.Repo
	Messages edit.Messager
	Agents   *agent.Registry
	Journal  *journal.Journal
	Audit    *audit.Logger

	// Profile is the initial sandbox profile name.
	Profile string
	// Timeout bounds every spawned command.
	Timeout time.Duration
	// SessionID tags journal entries.
	SessionID string

	// Reload re-reads configuration for /config reload after the policy
	// has been reloaded.
	Reload func() error
	// Describe renders the active configuration for /config show.
	Describe func() string
}

// Engine is the single entry point for proposed actions.
type Engine struct {
	mu sync.Mutex

	store    *ctxstore.Store
	policy   *policy.Store
	selector *sandbox.Selector
	gate     *approval.Gate
	applier  *edit.Applier
	self     *selfmod.Controller
	repo     *vcs.Repo
	agents   *agent.Registry
	journal  *journal.Journal
	audit    *audit.Logger

	profile   string
	timeout   time.Duration
	sessionID string
	reload    func() error
	describe  func() string
}

// New validates opts and returns an Engine.
func New(opts Options) (*Engine, error) {
	switch {
	case opts.Store == nil:
		return nil, errors.New("engine: context store is required")
	case opts.Policy == nil:
		return nil, errors.New("engine: policy is required")
	case opts.Selector == nil:
		return nil, errors.New("engine: sandbox selector is required")
	case opts.Gate == nil:
		return nil, errors.New("engine: approval gate is required")
	}
	if opts.Profile == "" {
		opts.Profile = sandbox.ProfileDevelopment
	}
	if _, err := sandbox.LookupProfile(opts.Profile); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	// A nil *vcs.Repo must not become a non-nil interface.
	var committer edit.Committer
	if opts.Repo != nil {
		committer = opts.Repo
	}
	var self edit.SelfModifier
	if opts.Self != nil {
		self = opts.Self
	}

	return &Engine{
		store:     opts.Store,
		policy:    opts.Policy,
		selector:  opts.Selector,
		gate:      opts.Gate,
		applier:   edit.NewApplier(opts.Store, committer, opts.Messages, self),
		self:      opts.Self,
		repo:      opts.Repo,
		agents:    opts.Agents,
		journal:   opts.Journal,
		audit:     opts.Audit,
		profile:   opts.Profile,
		timeout:   opts.Timeout,
		sessionID: opts.SessionID,
		reload:    opts.Reload,
		describe:  opts.Describe,
	}, nil
}

// Profile returns the active sandbox profile name.
func (e *Engine) Profile() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.profile
}

// Store returns the context store. Callers must not mutate it while an
// engine call is in progress.
func (e *Engine) Store() *ctxstore.Store {
	return e.store
}

// ProcessResponse extracts and runs every action in a model response.
// Edits run first as one approval batch, then commands as a second batch.
// Aborting the edit batch skips the commands too, and an edit to kota's own
// source ends processing with a Termination in the report.
func (e *Engine) ProcessResponse(ctx context.Context, responseID, text string) *Report {
	e.mu.Lock()
	defer e.mu.Unlock()

	plan := Extract(responseID, text)
	report := &Report{ResponseID: responseID, Errors: plan.Errors}
	for _, err := range plan.Errors {
		clog.Warn("engine: %s: %v", responseID, err)
		e.store.Notice("response "+responseID, "Malformed block ignored: %v", err)
	}

	halt := StatusNotAttempted
	halted := false
	if len(plan.Edits) > 0 {
		batch := e.gate.NewBatch()
		report.Edits = e.applier.Apply(ctx, plan.Blocks(), batch)
		for _, r := range report.Edits {
			e.recordEdit(ctx, r)
			if r.Termination != nil {
				report.Termination = r.Termination
			}
		}
		switch {
		case report.Termination != nil:
			halted = true
		case batch.Aborted():
			halted, halt = true, StatusAborted
		}
	}

	batch := e.gate.NewBatch()
	for _, act := range plan.Commands {
		if halted || batch.Aborted() {
			st := halt
			if !halted {
				st = StatusAborted
			}
			report.Commands = append(report.Commands, Outcome{Request: requestOf(act), Status: st})
			continue
		}
		report.Commands = append(report.Commands, e.execute(ctx, act, batch))
	}
	return report
}

// Dispatch runs one operator-typed line through the same pipeline as a
// model-proposed command.
func (e *Engine) Dispatch(ctx context.Context, raw string) Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.execute(ctx, actionFor(command.Classify(raw), 0), e.gate.NewBatch())
}

// execute runs one command-side action.
func (e *Engine) execute(ctx context.Context, act Action, gate edit.Gate) Outcome {
	switch a := act.(type) {
	case CommandAction:
		return e.run(ctx, a.Request, gate)
	case AgentTaskAction:
		return e.runAgentTask(ctx, a)
	case EditAction:
		results := e.applier.Apply(ctx, []edit.Block{a.Block}, gate)
		e.recordEdit(ctx, results[0])
		out := Outcome{Status: StatusCompleted, Err: results[0].Err}
		if results[0].Status != edit.StatusApplied {
			out.Status = StatusFailed
		}
		return out
	default:
		panic(fmt.Sprintf("engine: unexpected action %T", act))
	}
}

func requestOf(act Action) command.Request {
	switch a := act.(type) {
	case CommandAction:
		return a.Request
	case AgentTaskAction:
		return a.Request
	default:
		return command.Request{Raw: act.String()}
	}
}

// run is the command pipeline for a classified request.
func (e *Engine) run(ctx context.Context, req command.Request, gate edit.Gate) Outcome {
	out := Outcome{Request: req}
	_ = e.audit.LogRequest(req.Raw, req.Category.String())

	if req.Err != nil {
		out.Status, out.Err = StatusFailed, req.Err
		term.Fail("%v", req.Err)
		e.recordCommand(ctx, out)
		return out
	}

	if req.Autonomy == command.Autonomous {
		_ = e.audit.LogAutonomous(req.Raw, req.Category.String())
		out.Output, out.Err = e.dispatchVerb(ctx, req)
		out.Status = StatusDispatched
		if out.Err != nil {
			out.Status = StatusFailed
		}
		e.recordCommand(ctx, out)
		return out
	}

	shell := req.ShellCommand()
	isShell := req.Shell() || req.Verb == "execute" || req.Verb == "execute-and-capture"
	if isShell && shell == "" {
		out.Status, out.Err = StatusFailed, fmt.Errorf("/%s: missing command", req.Verb)
		e.recordCommand(ctx, out)
		return out
	}

	// Deny rules are checked before the operator is asked, and before any
	// approve-all in the batch can apply.
	if isShell {
		d := e.policy.Evaluate(shell)
		out.Policy = &d
		if !d.Allowed() {
			e.denied(ctx, &out, shell, d)
			return out
		}
	}

	item := approval.Item{Kind: approval.KindCommand, Summary: req.Raw, Detail: shell}
	switch {
	case isShell:
		item.Summary = "Run: " + shell
		item.Risk = approval.AssessCommand(shell)
	case req.Category == command.CategoryConfiguration:
		item.Kind, item.Risk = approval.KindConfig, approval.RiskMedium
	default:
		item.Risk = approval.RiskMedium
	}
	decision, err := gate.Confirm(item)
	if !decision.Approved() {
		out.Status, out.Err = StatusRejected, decision.Err()
		if decision == approval.Abort {
			out.Status = StatusAborted
			_ = e.audit.LogAbort(req.Raw)
		} else {
			_ = e.audit.LogReject(req.Raw, "operator")
		}
		if err != nil {
			out.Err = errors.Join(out.Err, err)
		}
		term.Printf("Skipped: %s\n", req.Raw)
		e.recordCommand(ctx, out)
		return out
	}
	_ = e.audit.LogApprove(req.Raw)

	if isShell {
		e.spawn(ctx, &out, shell, req.Verb != "execute")
	} else {
		out.Output, out.Err = e.dispatchVerb(ctx, req)
		out.Status = StatusDispatched
		if out.Err != nil {
			out.Status = StatusFailed
		}
	}
	e.recordCommand(ctx, out)
	return out
}

// denied records a policy violation for both the model and the operator.
func (e *Engine) denied(ctx context.Context, out *Outcome, shell string, d policy.Decision) {
	out.Status, out.Err = StatusPolicyDenied, d.Err()
	rule := ""
	if d.Rule != nil {
		rule = d.Rule.String()
	}
	e.store.Record(ctxstore.Record{
		Kind:   ctxstore.KindPolicyViolation,
		Source: shell,
		Text:   fmt.Sprintf("Command refused by policy (%s). It was not run. Propose a different command.", d.Reason),
	})
	term.Warn("policy denied %q: %s", shell, d.Reason)
	_ = e.audit.LogPolicyDeny(shell, rule, d.Reason)
	e.recordCommand(ctx, *out)
}

// spawn resolves the sandbox and runs shell in it. No process starts
// without a resolved profile.
func (e *Engine) spawn(ctx context.Context, out *Outcome, shell string, capture bool) {
	inv, err := e.selector.Select(e.profile)
	if err != nil {
		out.Status, out.Err = StatusSandboxFailed, err
		term.Error("sandbox: %v", err)
		_ = e.audit.LogSandboxFail(shell, err.Error())
		e.store.Notice(shell, "Command not run: %v", err)
		return
	}
	out.Profile = inv.Profile.Name

	res, err := sandbox.Spawn(ctx, inv, shell, e.timeout)
	out.Result = &res
	out.Err = err
	var se *sandbox.SpawnError
	switch {
	case errors.Is(err, sandbox.ErrTimedOut):
		out.Status = StatusTimedOut
		_ = e.audit.LogTimeout(shell, inv.Profile.Name, res.Duration)
	case errors.As(err, &se):
		out.Status = StatusSandboxFailed
		_ = e.audit.LogSandboxFail(shell, err.Error())
	case err != nil:
		out.Status = StatusFailed
	default:
		out.Status = StatusCompleted
		_ = e.audit.LogComplete(shell, inv.Profile.Name, res.ExitCode, res.Duration)
	}

	text := formatResult(res, err)
	term.Rule(shell)
	term.Block(text)
	if capture {
		e.store.Record(ctxstore.Record{Kind: ctxstore.KindExecution, Source: shell, Text: text})
	}
}

func formatResult(res sandbox.Result, err error) string {
	text := res.Output()
	if res.Truncated {
		text += "\n[output truncated]"
	}
	switch {
	case res.TimedOut:
		text += fmt.Sprintf("\n[%v]", err)
	case err != nil:
		text += fmt.Sprintf("\n[error: %v]", err)
	default:
		text += fmt.Sprintf("\n[exit status %d]", res.ExitCode)
	}
	return text
}

// runAgentTask sends a task to a helper agent. Agent verbs are autonomous.
func (e *Engine) runAgentTask(ctx context.Context, a AgentTaskAction) Outcome {
	out := Outcome{Request: a.Request, Status: StatusDispatched}
	_ = e.audit.LogAutonomous(a.Request.Raw, a.Request.Category.String())

	answer, err := e.agents.Delegate(ctx, a.Agent, a.Task)
	if err != nil {
		out.Status, out.Err = StatusFailed, err
		term.Fail("%v", err)
		e.recordCommand(ctx, out)
		return out
	}
	out.Output = answer
	term.Rule("agent " + a.Agent)
	term.Block(answer)
	if a.Capture {
		e.store.AddSnippet("agent "+a.Agent, answer)
	}
	e.recordCommand(ctx, out)
	return out
}
