package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/xdg/kota/internal/config"
	"github.com/xdg/kota/internal/model"
)

func echoAgent(name string) *CommandAgent {
	return NewCommandAgent(name, "echoes "+name, model.ResponderFunc(func(_ context.Context, task string) (string, error) {
		return name + ": " + task, nil
	}))
}

func TestRegistry_ListAndDescribe(t *testing.T) {
	r := NewRegistry()
	r.Register(echoAgent("tester"))
	r.Register(echoAgent("reviewer"))

	if got := strings.Join(r.List(), ","); got != "reviewer,tester" {
		t.Errorf("List() = %s, want sorted names", got)
	}
	desc, err := r.Describe("reviewer")
	if err != nil || desc != "reviewer: echoes reviewer" {
		t.Errorf("Describe() = %q, %v", desc, err)
	}
}

func TestRegistry_Delegate(t *testing.T) {
	r := NewRegistry()
	r.Register(echoAgent("reviewer"))

	out, err := r.Delegate(context.Background(), "reviewer", "check main.go")
	if err != nil {
		t.Fatalf("Delegate() error = %v", err)
	}
	if out != "reviewer: check main.go" {
		t.Errorf("Delegate() = %q", out)
	}
	if _, err := r.Delegate(context.Background(), "reviewer", "  "); err == nil {
		t.Error("Delegate() with empty task should fail")
	}
}

func TestRegistry_Unknown(t *testing.T) {
	empty := NewRegistry()
	_, err := empty.Get("x")
	if !errors.Is(err, ErrUnknownAgent) || !strings.Contains(err.Error(), "no agents configured") {
		t.Errorf("Get() on empty registry error = %v", err)
	}

	r := NewRegistry()
	r.Register(echoAgent("reviewer"))
	_, err = r.Delegate(context.Background(), "planner", "task")
	if !errors.Is(err, ErrUnknownAgent) || !strings.Contains(err.Error(), "reviewer") {
		t.Errorf("Delegate() error = %v, want unknown agent listing reviewer", err)
	}

	var nilRegistry *Registry
	if _, err := nilRegistry.Get("x"); !errors.Is(err, ErrUnknownAgent) {
		t.Errorf("nil registry Get() error = %v", err)
	}
}

func TestRegistry_AgentError(t *testing.T) {
	r := NewRegistry()
	r.Register(NewCommandAgent("broken", "", model.ResponderFunc(func(context.Context, string) (string, error) {
		return "", errors.New("exit 1")
	})))
	_, err := r.Delegate(context.Background(), "broken", "task")
	if err == nil || !strings.Contains(err.Error(), "agent broken: exit 1") {
		t.Errorf("Delegate() error = %v", err)
	}
	desc, _ := r.Describe("broken")
	if desc != "broken: (no description)" {
		t.Errorf("Describe() = %q", desc)
	}
}

func TestFromConfig(t *testing.T) {
	r := FromConfig([]config.AgentConfig{
		{Name: "reviewer", Description: "reviews diffs", Command: "llm", Args: []string{"-s", "review"}},
	}, time.Minute)

	a, err := r.Get("reviewer")
	if err != nil {
		t.Fatal(err)
	}
	ca, ok := a.(*CommandAgent)
	if !ok {
		t.Fatalf("agent type = %T", a)
	}
	cr, ok := ca.responder.(*model.CommandResponder)
	if !ok || cr.Command != "llm" || cr.Timeout != time.Minute {
		t.Errorf("responder = %+v", ca.responder)
	}
}
