package session

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xdg/kota/internal/approval"
	"github.com/xdg/kota/internal/ctxstore"
	"github.com/xdg/kota/internal/engine"
	"github.com/xdg/kota/internal/model"
	"github.com/xdg/kota/internal/policy"
	"github.com/xdg/kota/internal/sandbox"
	"github.com/xdg/kota/internal/selfmod"
	"github.com/xdg/kota/internal/term"
	"github.com/xdg/kota/internal/vcs"
)

type harness struct {
	dir      string
	session  *Session
	prompter *approval.MockPrompter
	prompts  []string
}

func newHarness(t *testing.T, input string, self bool, respond func(prompt string) (string, error), responses ...approval.Decision) *harness {
	t.Helper()
	term.Discard()
	t.Cleanup(term.Reset)

	h := &harness{dir: t.TempDir(), prompter: approval.NewMockPrompter(responses...)}
	rules, err := policy.New([]policy.Rule{{Pattern: "echo *", Action: policy.Allow}}, policy.Deny)
	if err != nil {
		t.Fatal(err)
	}

	opts := engine.Options{
		Store:    ctxstore.New(h.dir, nil),
		Policy:   policy.NewStaticStore(rules),
		Selector: sandbox.NewSelector(sandbox.BackendNone, h.dir),
		Gate:     approval.NewGate(approval.ModePrompt, h.prompter),
		Timeout:  10 * time.Second,
	}
	var ctrl *selfmod.Controller
	if self {
		repo := initGit(t, h.dir)
		ctrl = selfmod.New(h.dir, nil, repo)
		opts.Repo, opts.Self = repo, ctrl
	}
	eng, err := engine.New(opts)
	if err != nil {
		t.Fatal(err)
	}

	var responder model.Responder
	if respond != nil {
		responder = model.ResponderFunc(func(_ context.Context, prompt string) (string, error) {
			h.prompts = append(h.prompts, prompt)
			return respond(prompt)
		})
	}
	s, err := New(Options{
		Engine:    eng,
		Responder: responder,
		Self:      ctrl,
		In:        bufio.NewReader(strings.NewReader(input)),
		Out:       &bytes.Buffer{},
	})
	if err != nil {
		t.Fatal(err)
	}
	ids := 0
	s.newID = func() string {
		ids++
		return "resp-" + string(rune('0'+ids))
	}
	h.session = s
	return h
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

func TestNew_RequiresEngine(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Error("New() without engine should fail")
	}
}

func TestRun_QuitExitsNormally(t *testing.T) {
	h := newHarness(t, "/help\n/quit\n/context show\n", false, nil)
	got := h.session.Run(context.Background())
	if got.Code != selfmod.ExitNormal || got.Restart() {
		t.Errorf("Run() = %+v, want normal exit", got)
	}
	if h.session.Input.Lines != 2 {
		t.Errorf("read %d lines, want 2 (stop at /quit)", h.session.Input.Lines)
	}
}

func TestRun_EOFExitsNormally(t *testing.T) {
	h := newHarness(t, "/context show", false, nil)
	if got := h.session.Run(context.Background()); got.Code != selfmod.ExitNormal {
		t.Errorf("Run() = %+v", got)
	}
	if h.session.Input.Lines != 1 {
		t.Errorf("unterminated last line not handled")
	}
}

func TestRun_CancelledContext(t *testing.T) {
	h := newHarness(t, "/context show\n", false, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if got := h.session.Run(ctx); got.Code != selfmod.ExitNormal {
		t.Errorf("Run() = %+v", got)
	}
}

func TestAsk_SendsContextAndHistory(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not installed")
	}
	replies := []string{"Try this:\n```bash\necho from-model\n```\n", "No changes needed."}
	h := newHarness(t, "", false, func(string) (string, error) {
		r := replies[0]
		replies = replies[1:]
		return r, nil
	}, approval.ApproveOne)
	if err := os.WriteFile(filepath.Join(h.dir, "a.txt"), []byte("alpha\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	h.session.Handle(ctx, "/context add a.txt")
	if _, done := h.session.Handle(ctx, "say hi"); done {
		t.Fatal("session ended unexpectedly")
	}
	if _, done := h.session.Handle(ctx, "anything else?"); done {
		t.Fatal("session ended unexpectedly")
	}

	if len(h.prompts) != 2 {
		t.Fatalf("model called %d times", len(h.prompts))
	}
	first := h.prompts[0]
	if !strings.Contains(first, "### File: a.txt") || !strings.Contains(first, "say hi") {
		t.Errorf("first prompt missing context or request:\n%s", first)
	}
	second := h.prompts[1]
	if !strings.Contains(second, "Operator: say hi") || !strings.Contains(second, "from-model") {
		t.Errorf("second prompt missing history or captured output:\n%s", second)
	}

	reports := h.session.Conversation.Reports
	if len(reports) != 2 || reports[0].Commands[0].Status != engine.StatusCompleted {
		t.Errorf("reports = %+v", reports)
	}
	if reports[0].ResponseID != "resp-1" {
		t.Errorf("ResponseID = %q", reports[0].ResponseID)
	}
}

func TestAsk_ModelErrorContinues(t *testing.T) {
	h := newHarness(t, "", false, func(string) (string, error) {
		return "", errors.New("model offline")
	})
	if _, done := h.session.Handle(context.Background(), "hello"); done {
		t.Error("a model failure must not end the session")
	}
	if len(h.session.Conversation.Turns) != 0 {
		t.Error("failed request recorded as a turn")
	}
}

func TestAsk_NoResponder(t *testing.T) {
	h := newHarness(t, "", false, nil)
	if _, done := h.session.Handle(context.Background(), "hello"); done {
		t.Error("session ended without a responder")
	}
}

func TestResponseFile(t *testing.T) {
	h := newHarness(t, "", false, nil, approval.ApproveOne)
	if err := os.WriteFile(filepath.Join(h.dir, "notes.txt"), []byte("v=1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	resp := "notes.txt\n<<<<<<< SEARCH\nv=1\n=======\nv=2\n>>>>>>> REPLACE\n"
	if err := os.WriteFile(filepath.Join(h.dir, "resp.md"), []byte(resp), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	h.session.Handle(ctx, "/context add notes.txt")
	if _, done := h.session.Handle(ctx, "/response resp.md"); done {
		t.Fatal("session ended")
	}
	data, _ := os.ReadFile(filepath.Join(h.dir, "notes.txt"))
	if string(data) != "v=2\n" {
		t.Errorf("notes.txt = %q", data)
	}

	h.session.Handle(ctx, "/response missing.md")
	if len(h.session.Conversation.Reports) != 1 {
		t.Error("missing response file should not be processed")
	}
}

func TestSelfEditEndsWithRestart(t *testing.T) {
	reply := "main.go\n<<<<<<< SEARCH\nconst n = 1\n=======\nconst n = 2\n>>>>>>> REPLACE\n"
	h := newHarness(t, "/context add main.go\nbump it\n/context show\n", true, func(string) (string, error) {
		return reply, nil
	}, approval.ApproveOne)
	if err := os.WriteFile(filepath.Join(h.dir, "main.go"), []byte("package main\n\nconst n = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got := h.session.Run(context.Background())
	if got.Code != selfmod.ExitRestart || !got.Restart() {
		t.Fatalf("Run() = %+v, want restart", got)
	}
	if h.session.Input.Lines != 2 {
		t.Errorf("read %d lines after restart was requested", h.session.Input.Lines)
	}
	if again := h.session.quit(); again.Code != selfmod.ExitRestart {
		t.Errorf("quit after self-edit = %d, want pending restart", again.Code)
	}
}

func TestBuildPrompt(t *testing.T) {
	got := buildPrompt("/work", "/context show", "### File: a\n", []Turn{{Request: "q1", Response: "r1\n"}}, "q2")
	for _, want := range []string{"working in /work", "/context show", "## Context", "### File: a", "Operator: q1", "r1", "## Request\n\nq2"} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(buildPrompt("/w", "", "", nil, "x"), "## Conversation") {
		t.Error("empty history rendered")
	}
}
