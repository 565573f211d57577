package engine

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xdg/kota/internal/agent"
	"github.com/xdg/kota/internal/approval"
	"github.com/xdg/kota/internal/audit"
	"github.com/xdg/kota/internal/command"
	"github.com/xdg/kota/internal/ctxstore"
	"github.com/xdg/kota/internal/edit"
	"github.com/xdg/kota/internal/journal"
	"github.com/xdg/kota/internal/model"
	"github.com/xdg/kota/internal/policy"
	"github.com/xdg/kota/internal/sandbox"
	"github.com/xdg/kota/internal/selfmod"
	"github.com/xdg/kota/internal/term"
	"github.com/xdg/kota/internal/vcs"
)

type fixture struct {
	dir      string
	engine   *Engine
	prompter *approval.MockPrompter
	store    *ctxstore.Store
	journal  *journal.Journal
	audit    *bytes.Buffer
}

var testRules = []policy.Rule{
	{Pattern: "rm *", Action: policy.Deny, Reason: "no deleting"},
	{Pattern: "echo *", Action: policy.Allow},
	{Pattern: "touch *", Action: policy.Allow},
	{Pattern: "sleep *", Action: policy.Allow},
}

func newFixture(t *testing.T, responses ...approval.Decision) *fixture {
	t.Helper()
	return newFixtureWith(t, func(*Options) {}, responses...)
}

func newFixtureWith(t *testing.T, tweak func(*Options), responses ...approval.Decision) *fixture {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not installed")
	}
	term.Discard()
	t.Cleanup(term.Reset)

	dir := t.TempDir()
	store := ctxstore.New(dir, nil)
	rules, err := policy.New(testRules, policy.Deny)
	if err != nil {
		t.Fatal(err)
	}
	j, err := journal.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { j.Close() })

	prompter := approval.NewMockPrompter(responses...)
	var auditBuf bytes.Buffer
	opts := Options{
		Store:     store,
		Policy:    policy.NewStaticStore(rules),
		Selector:  sandbox.NewSelector(sandbox.BackendNone, dir),
		Gate:      approval.NewGate(approval.ModePrompt, prompter),
		Journal:   j,
		Audit:     audit.NewLogger(&auditBuf, "test"),
		Timeout:   10 * time.Second,
		SessionID: "test",
	}
	tweak(&opts)
	e, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return &fixture{dir: dir, engine: e, prompter: prompter, store: store, journal: j, audit: &auditBuf}
}

func (f *fixture) write(t *testing.T, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(f.dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func (f *fixture) read(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(f.dir, name))
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func bash(lines ...string) string {
	return "```bash\n" + strings.Join(lines, "\n") + "\n```\n"
}

func editBlock(path, search, replace string) string {
	return path + "\n<<<<<<< SEARCH\n" + search + "\n=======\n" + replace + "\n>>>>>>> REPLACE\n"
}

func TestNew_RequiresCollaborators(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Error("New() with no options should fail")
	}
	f := newFixture(t)
	if f.engine.Profile() != sandbox.ProfileDevelopment {
		t.Errorf("default profile = %s", f.engine.Profile())
	}
	_, err := New(Options{
		Store:    f.store,
		Policy:   policy.NewStaticStore(policy.Default()),
		Selector: sandbox.NewSelector(sandbox.BackendNone, f.dir),
		Gate:     approval.NewGate(approval.ModeReject, nil),
		Profile:  "root",
	})
	if !errors.Is(err, sandbox.ErrUnknownProfile) {
		t.Errorf("New() with bad profile error = %v", err)
	}
}

func TestExtract_ClassifiesOnce(t *testing.T) {
	text := editBlock("a.txt", "x", "y") + bash("echo hi", "/agent delegate reviewer look at a.txt", "git status")
	plan := Extract("r1", text)
	if len(plan.Edits) != 1 || len(plan.Commands) != 3 {
		t.Fatalf("plan = %+v", plan)
	}
	if c, ok := plan.Commands[0].(CommandAction); !ok || c.Request.Category != command.CategoryExecution {
		t.Errorf("Commands[0] = %#v", plan.Commands[0])
	}
	a, ok := plan.Commands[1].(AgentTaskAction)
	if !ok || a.Agent != "reviewer" || a.Task != "look at a.txt" || !a.Capture {
		t.Errorf("Commands[1] = %#v", plan.Commands[1])
	}
	if c, ok := plan.Commands[2].(CommandAction); !ok || c.Request.Category != command.CategoryVersionControl {
		t.Errorf("Commands[2] = %#v", plan.Commands[2])
	}
}

func TestAutonomousVerbsNeverConfirm(t *testing.T) {
	f := newFixture(t, approval.ApproveOne)
	f.write(t, "a.txt", "hello\n")

	for _, line := range []string{
		"/context add a.txt",
		"/context show",
		"/context snippet remember this",
		"/security status",
		"/security sandbox-profile",
		"/security approval-mode",
		"/memory add prefer small diffs",
		"/memory search diffs",
		"/memory",
		"/agent list",
		"/config show",
	} {
		out := f.engine.Dispatch(context.Background(), line)
		if out.Request.Autonomy != command.Autonomous {
			t.Errorf("%s classified %s", line, out.Request.Autonomy)
		}
		if out.Status != StatusDispatched {
			t.Errorf("%s: status = %s, err = %v", line, out.Status, out.Err)
		}
	}
	if n := len(f.prompter.Calls); n != 0 {
		t.Errorf("operator prompted %d times for autonomous verbs", n)
	}
	if !f.store.Contains("a.txt") {
		t.Error("/context add did not add the file")
	}
	notes, _ := f.journal.SearchNotes(context.Background(), "small diffs", 5)
	if len(notes) != 1 {
		t.Errorf("memory note not saved: %+v", notes)
	}
}

func TestPolicyDenyIgnoresApproveAll(t *testing.T) {
	f := newFixture(t, approval.ApproveAll)
	f.write(t, "victim.txt", "keep me\n")

	report := f.engine.ProcessResponse(context.Background(), "r1", bash("echo first", "rm victim.txt", "echo last"))
	if len(report.Commands) != 3 {
		t.Fatalf("got %d outcomes", len(report.Commands))
	}
	if report.Commands[0].Status != StatusCompleted || report.Commands[2].Status != StatusCompleted {
		t.Errorf("allowed commands: %s, %s", report.Commands[0].Status, report.Commands[2].Status)
	}
	denied := report.Commands[1]
	if denied.Status != StatusPolicyDenied || !errors.Is(denied.Err, policy.ErrPolicyViolation) {
		t.Errorf("rm outcome = %s %v", denied.Status, denied.Err)
	}
	if denied.Result != nil {
		t.Error("denied command must not be spawned")
	}
	if f.read(t, "victim.txt") != "keep me\n" {
		t.Error("denied command ran")
	}
	if len(f.prompter.Calls) != 1 {
		t.Errorf("prompted %d times, want 1 (approve-all on the first command)", len(f.prompter.Calls))
	}

	var violation bool
	for _, r := range f.store.Records() {
		if r.Kind == ctxstore.KindPolicyViolation && r.Source == "rm victim.txt" {
			violation = true
		}
	}
	if !violation {
		t.Error("policy violation not recorded to context")
	}
	if !strings.Contains(f.audit.String(), "POLICY_DENY") {
		t.Errorf("audit log missing POLICY_DENY:\n%s", f.audit.String())
	}
}

func TestDefaultDenyNeverPrompts(t *testing.T) {
	f := newFixture(t, approval.ApproveOne)
	out := f.engine.Dispatch(context.Background(), "python3 -c 'print(1)'")
	if out.Status != StatusPolicyDenied || out.Policy.Tier != policy.TierDefault {
		t.Errorf("outcome = %s tier=%v", out.Status, out.Policy)
	}
	if len(f.prompter.Calls) != 0 {
		t.Error("a denied command must not reach the operator prompt")
	}
}

func TestCommandRunsAndIsCaptured(t *testing.T) {
	f := newFixture(t, approval.ApproveOne)
	report := f.engine.ProcessResponse(context.Background(), "r1", bash("echo hello"))
	out := report.Commands[0]
	if out.Status != StatusCompleted || out.Result == nil || out.Result.Stdout != "hello\n" {
		t.Fatalf("outcome = %+v", out)
	}
	if out.Profile != sandbox.ProfileDevelopment {
		t.Errorf("Profile = %q", out.Profile)
	}

	item := f.prompter.Calls[0]
	if item.Kind != approval.KindCommand || item.Detail != "echo hello" {
		t.Errorf("prompt item = %+v", item)
	}

	records := f.store.Records()
	if len(records) != 1 || records[0].Kind != ctxstore.KindExecution || !strings.Contains(records[0].Text, "hello") {
		t.Errorf("records = %+v", records)
	}

	actions, err := f.journal.Actions(context.Background(), journal.Filter{Kind: journal.ActionCommand})
	if err != nil || len(actions) != 1 || actions[0].Status != "completed" || actions[0].SessionID != "test" {
		t.Errorf("journal = %+v, %v", actions, err)
	}
	if !strings.Contains(f.audit.String(), `EXEC COMPLETE session=test cmd="echo hello" profile="development" exit=0`) {
		t.Errorf("audit log:\n%s", f.audit.String())
	}
}

func TestExecuteShowsButDoesNotCapture(t *testing.T) {
	f := newFixture(t, approval.ApproveOne, approval.ApproveOne)
	if out := f.engine.Dispatch(context.Background(), "/execute echo shown"); out.Status != StatusCompleted {
		t.Fatalf("/execute = %s %v", out.Status, out.Err)
	}
	if len(f.store.Records()) != 0 {
		t.Error("/execute output should not enter context")
	}
	if out := f.engine.Dispatch(context.Background(), "/execute-and-capture echo kept"); out.Status != StatusCompleted {
		t.Fatalf("/execute-and-capture = %s %v", out.Status, out.Err)
	}
	if len(f.store.Records()) != 1 {
		t.Error("/execute-and-capture output should enter context")
	}
}

func TestRejectedCommandDoesNotRun(t *testing.T) {
	f := newFixture(t, approval.Reject)
	out := f.engine.Dispatch(context.Background(), "touch made.txt")
	if out.Status != StatusRejected || !errors.Is(out.Err, approval.ErrUserRejected) {
		t.Errorf("outcome = %s %v", out.Status, out.Err)
	}
	if _, err := os.Stat(filepath.Join(f.dir, "made.txt")); err == nil {
		t.Error("rejected command ran")
	}
}

func TestAbortStopsCommandBatch(t *testing.T) {
	f := newFixture(t, approval.Abort)
	report := f.engine.ProcessResponse(context.Background(), "r1", bash("touch one.txt", "touch two.txt"))
	if report.Commands[0].Status != StatusAborted || report.Commands[1].Status != StatusAborted {
		t.Errorf("statuses = %s, %s", report.Commands[0].Status, report.Commands[1].Status)
	}
	if len(f.prompter.Calls) != 1 {
		t.Errorf("prompted %d times after abort", len(f.prompter.Calls))
	}
}

func TestEditAbortHaltsCommands(t *testing.T) {
	f := newFixture(t, approval.Abort)
	f.write(t, "app.txt", "a=1\n")
	if _, err := f.store.Add("app.txt"); err != nil {
		t.Fatal(err)
	}

	report := f.engine.ProcessResponse(context.Background(), "r1", editBlock("app.txt", "a=1", "a=2")+bash("touch after.txt"))
	if report.Edits[0].Status != edit.StatusAborted {
		t.Errorf("edit status = %s", report.Edits[0].Status)
	}
	if report.Commands[0].Status != StatusAborted {
		t.Errorf("command status = %s, want aborted", report.Commands[0].Status)
	}
	if len(f.prompter.Calls) != 1 {
		t.Errorf("prompted %d times", len(f.prompter.Calls))
	}
	if f.read(t, "app.txt") != "a=1\n" {
		t.Error("aborted edit was written")
	}
}

func TestEditThenCommand(t *testing.T) {
	f := newFixture(t, approval.ApproveOne, approval.ApproveOne)
	f.write(t, "app.txt", "a=1\nb=2\n")
	if _, err := f.store.Add("app.txt"); err != nil {
		t.Fatal(err)
	}

	report := f.engine.ProcessResponse(context.Background(), "r1", editBlock("app.txt", "a=1", "a=9")+bash("echo done"))
	if report.Applied() != 1 || f.read(t, "app.txt") != "a=9\nb=2\n" {
		t.Errorf("edit not applied: %+v", report.Edits)
	}
	if report.Commands[0].Status != StatusCompleted {
		t.Errorf("command = %s", report.Commands[0].Status)
	}
	if f.prompter.Calls[0].Kind != approval.KindEdit || f.prompter.Calls[1].Kind != approval.KindCommand {
		t.Errorf("edits must be confirmed before commands: %+v", f.prompter.Calls)
	}
}

func TestFenceInsideEditIsNotACommand(t *testing.T) {
	readme := "## Install\n\n```bash\nmake install\n```\n"
	text := editBlock("README.md", "## Install\n", readme) + bash("echo done")

	plan := Extract("r1", text)
	if len(plan.Edits) != 1 || len(plan.Commands) != 1 {
		t.Fatalf("edits=%d commands=%d, want 1 and 1", len(plan.Edits), len(plan.Commands))
	}
	if c := plan.Commands[0].(CommandAction); c.Request.Raw != "echo done" {
		t.Errorf("command = %q, want echo done", c.Request.Raw)
	}
	if plan.Edits[0].Block.Replace != readme {
		t.Errorf("replace text changed: %q", plan.Edits[0].Block.Replace)
	}

	f := newFixture(t, approval.ApproveOne, approval.Reject)
	f.write(t, "README.md", "# kota\n## Install\n")
	if _, err := f.store.Add("README.md"); err != nil {
		t.Fatal(err)
	}
	report := f.engine.ProcessResponse(context.Background(), "r1", text)
	if report.Applied() != 1 || f.read(t, "README.md") != "# kota\n"+readme {
		t.Errorf("README edit not applied: %+v", report.Edits)
	}
	if len(report.Commands) != 1 || strings.Contains(report.Commands[0].Request.Raw, "make") {
		t.Errorf("commands = %+v", report.Commands)
	}
}

func TestEditOutsideContextIsDenied(t *testing.T) {
	f := newFixture(t, approval.ApproveAll)
	f.write(t, "secret.txt", "x=1\n")

	report := f.engine.ProcessResponse(context.Background(), "r1", editBlock("secret.txt", "x=1", "x=2"))
	if report.Edits[0].Status != edit.StatusAccessDenied {
		t.Errorf("status = %s", report.Edits[0].Status)
	}
	if len(f.prompter.Calls) != 0 {
		t.Error("operator prompted for an edit that cannot apply")
	}
	if !strings.Contains(f.audit.String(), "EDIT_DENY") {
		t.Errorf("audit log:\n%s", f.audit.String())
	}
}

func TestTimeoutReported(t *testing.T) {
	f := newFixtureWith(t, func(o *Options) { o.Timeout = 200 * time.Millisecond }, approval.ApproveOne)
	out := f.engine.Dispatch(context.Background(), "sleep 30")
	if out.Status != StatusTimedOut || !errors.Is(out.Err, sandbox.ErrTimedOut) {
		t.Errorf("outcome = %s %v", out.Status, out.Err)
	}
	if !strings.Contains(f.audit.String(), "EXEC TIMEOUT") {
		t.Errorf("audit log:\n%s", f.audit.String())
	}
}

func TestSandboxUnavailableBlocksSpawn(t *testing.T) {
	f := newFixtureWith(t, func(o *Options) {
		s := sandbox.NewSelector(sandbox.BackendBwrap, o.Selector.Workdir)
		s.LookPath = func(string) (string, error) { return "", exec.ErrNotFound }
		o.Selector = s
	}, approval.ApproveOne)

	out := f.engine.Dispatch(context.Background(), "touch nope.txt")
	if out.Status != StatusSandboxFailed || !errors.Is(out.Err, sandbox.ErrBackendUnavailable) {
		t.Errorf("outcome = %s %v", out.Status, out.Err)
	}
	if out.Result != nil {
		t.Error("no process may run without a sandbox")
	}
	if _, err := os.Stat(filepath.Join(f.dir, "nope.txt")); err == nil {
		t.Error("command ran without a sandbox")
	}
}

func TestConfigurationVerbsNeedApproval(t *testing.T) {
	f := newFixture(t, approval.Reject, approval.ApproveOne, approval.ApproveOne)

	out := f.engine.Dispatch(context.Background(), "/security sandbox-profile minimal")
	if out.Status != StatusRejected || f.engine.Profile() != sandbox.ProfileDevelopment {
		t.Errorf("rejected change applied: %s, profile %s", out.Status, f.engine.Profile())
	}
	out = f.engine.Dispatch(context.Background(), "/security sandbox-profile minimal")
	if out.Status != StatusDispatched || f.engine.Profile() != sandbox.ProfileMinimal {
		t.Errorf("approved change: %s %v, profile %s", out.Status, out.Err, f.engine.Profile())
	}
	if f.prompter.Calls[0].Kind != approval.KindConfig {
		t.Errorf("prompt kind = %s", f.prompter.Calls[0].Kind)
	}

	out = f.engine.Dispatch(context.Background(), "/security sandbox-profile root")
	if !errors.Is(out.Err, sandbox.ErrUnknownProfile) {
		t.Errorf("unknown profile error = %v", out.Err)
	}
}

func TestUnknownVerb(t *testing.T) {
	f := newFixture(t, approval.ApproveOne)
	out := f.engine.Dispatch(context.Background(), "/frobnicate now")
	if out.Status != StatusFailed || !errors.Is(out.Err, command.ErrUnknownVerb) {
		t.Errorf("outcome = %s %v", out.Status, out.Err)
	}
	if len(f.prompter.Calls) != 0 {
		t.Error("unknown verbs must not prompt")
	}
}

func TestAgentDelegation(t *testing.T) {
	registry := agent.NewRegistry()
	registry.Register(agent.NewCommandAgent("reviewer", "reviews", model.ResponderFunc(func(_ context.Context, task string) (string, error) {
		return "looks fine: " + task, nil
	})))
	f := newFixtureWith(t, func(o *Options) { o.Agents = registry })

	out := f.engine.Dispatch(context.Background(), "/agent delegate reviewer a.txt")
	if out.Status != StatusDispatched || out.Output != "looks fine: a.txt" {
		t.Fatalf("outcome = %+v", out)
	}
	records := f.store.Records()
	if len(records) != 1 || records[0].Kind != ctxstore.KindSnippet {
		t.Errorf("delegated answer not captured: %+v", records)
	}

	out = f.engine.Dispatch(context.Background(), "/agent query reviewer quick question")
	if out.Status != StatusDispatched || len(f.store.Records()) != 1 {
		t.Errorf("query should not be captured: %+v", f.store.Records())
	}

	out = f.engine.Dispatch(context.Background(), "/agent delegate planner x")
	if !errors.Is(out.Err, agent.ErrUnknownAgent) {
		t.Errorf("unknown agent error = %v", out.Err)
	}
	if len(f.prompter.Calls) != 0 {
		t.Error("agent verbs are autonomous")
	}
}

func TestGitVerbsWithoutRepository(t *testing.T) {
	f := newFixture(t, approval.ApproveOne)
	out := f.engine.Dispatch(context.Background(), "/git status")
	if !errors.Is(out.Err, ErrNoRepository) {
		t.Errorf("error = %v, want ErrNoRepository", out.Err)
	}
	if len(f.prompter.Calls) != 0 {
		t.Error("/git status only reads and should not prompt")
	}
	out = f.engine.Dispatch(context.Background(), "/git commit msg")
	if !errors.Is(out.Err, ErrNoRepository) {
		t.Errorf("error = %v, want ErrNoRepository", out.Err)
	}
	if len(f.prompter.Calls) != 1 {
		t.Error("/git commit requires approval")
	}
}

func TestMemoryWithoutJournal(t *testing.T) {
	f := newFixtureWith(t, func(o *Options) { o.Journal = nil })
	out := f.engine.Dispatch(context.Background(), "/memory show")
	if !errors.Is(out.Err, ErrNoJournal) {
		t.Errorf("error = %v", out.Err)
	}
}

func initGit(t *testing.T, dir string) *vcs.Repo {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	t.Setenv("GIT_AUTHOR_NAME", "kota test")
	t.Setenv("GIT_AUTHOR_EMAIL", "kota@example.com")
	t.Setenv("GIT_COMMITTER_NAME", "kota test")
	t.Setenv("GIT_COMMITTER_EMAIL", "kota@example.com")
	t.Setenv("GIT_CONFIG_GLOBAL", filepath.Join(dir, ".nogitconfig"))
	if out, err := exec.Command("git", "-C", dir, "init", "-q").CombinedOutput(); err != nil {
		t.Fatalf("git init: %v: %s", err, out)
	}
	repo, err := vcs.Open(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}
	return repo
}

func TestOwnSourceEditRequestsRestart(t *testing.T) {
	var repo *vcs.Repo
	f := newFixtureWith(t, func(o *Options) {
		repo = initGit(t, o.Selector.Workdir)
		o.Repo = repo
		o.Self = selfmod.New(o.Selector.Workdir, nil, repo)
	}, approval.ApproveOne, approval.ApproveOne)

	f.write(t, "main.go", "package main\n\nconst version = 1\n")
	if _, err := f.store.Add("main.go"); err != nil {
		t.Fatal(err)
	}

	text := editBlock("main.go", "const version = 1", "const version = 2") + bash("touch later.txt")
	report := f.engine.ProcessResponse(context.Background(), "r1", text)

	if report.Termination == nil || report.Termination.Code != selfmod.ExitRestart {
		t.Fatalf("Termination = %+v, want restart", report.Termination)
	}
	if report.Edits[0].Status != edit.StatusSelfModified {
		t.Errorf("edit status = %s", report.Edits[0].Status)
	}
	if report.Commands[0].Status != StatusNotAttempted {
		t.Errorf("command after self-edit = %s, want not-attempted", report.Commands[0].Status)
	}
	if _, err := os.Stat(filepath.Join(f.dir, "later.txt")); err == nil {
		t.Error("command ran after a self-edit")
	}
	log, err := repo.Log(context.Background(), 1)
	if err != nil || log == "" {
		t.Errorf("self-edit not committed: %q %v", log, err)
	}
	if !strings.Contains(f.audit.String(), "SELF_MODIFY") {
		t.Errorf("audit log:\n%s", f.audit.String())
	}
}

func TestGitVerbs(t *testing.T) {
	f := newFixtureWith(t, func(o *Options) {
		o.Repo = initGit(t, o.Selector.Workdir)
	}, approval.ApproveOne, approval.ApproveOne)
	f.write(t, "notes.txt", "n\n")

	if out := f.engine.Dispatch(context.Background(), "/git stage notes.txt"); out.Err != nil {
		t.Fatalf("/git stage: %v", out.Err)
	}
	out := f.engine.Dispatch(context.Background(), "/git commit add notes")
	if out.Err != nil || !strings.HasPrefix(out.Output, "committed ") {
		t.Fatalf("/git commit = %q %v", out.Output, out.Err)
	}
	if len(f.prompter.Calls) != 2 {
		t.Errorf("stage and commit should each prompt, got %d calls", len(f.prompter.Calls))
	}

	f.write(t, "notes.txt", "changed\n")
	out = f.engine.Dispatch(context.Background(), "/git status")
	if out.Status != StatusDispatched || out.Err != nil || !strings.Contains(out.Output, "##") {
		t.Errorf("/git status = %s %q %v", out.Status, out.Output, out.Err)
	}
	out = f.engine.Dispatch(context.Background(), "/git diff notes.txt")
	if out.Status != StatusDispatched || !strings.Contains(out.Output, "+changed") {
		t.Errorf("/git diff = %s %q %v", out.Status, out.Output, out.Err)
	}
	if len(f.prompter.Calls) != 2 {
		t.Errorf("status and diff should not prompt, got %d calls", len(f.prompter.Calls))
	}
}
