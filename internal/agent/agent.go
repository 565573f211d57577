// Package agent provides the helper agents reachable through the /agent
// verbs. Each agent has a name, a one-line description and a way to answer a
// task. Routing heuristics are out of scope: the operator or model names the
// agent explicitly.
package agent

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/xdg/kota/internal/config"
	"github.com/xdg/kota/internal/model"
)

// ErrUnknownAgent is returned for a name that is not registered.
var ErrUnknownAgent = errors.New("unknown agent")

// Agent answers tasks delegated to it.
type Agent interface {
	// Name returns the agent identifier used in /agent verbs.
	Name() string
	// Description is a one-line summary for /agent list.
	Description() string
	// Run answers task.
	Run(ctx context.Context, task string) (string, error)
}

// Registry maps agent names to their implementations.
type Registry struct {
	agents map[string]Agent
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{agents: make(map[string]Agent)}
}

// FromConfig builds a registry of command agents. Each shares the model
// timeout.
func FromConfig(cfgs []config.AgentConfig, timeout time.Duration) *Registry {
	r := NewRegistry()
	for _, c := range cfgs {
		r.Register(&CommandAgent{
			name:        c.Name,
			description: c.Description,
			responder:   model.NewCommandResponder(c.Command, c.Args, timeout),
		})
	}
	return r
}

// Register adds a, replacing any agent with the same name.
func (r *Registry) Register(a Agent) {
	r.agents[a.Name()] = a
}

// Get returns the agent with the given name.
func (r *Registry) Get(name string) (Agent, error) {
	if r != nil {
		if a, ok := r.agents[name]; ok {
			return a, nil
		}
	}
	if r.Len() == 0 {
		return nil, fmt.Errorf("%w %q: no agents configured", ErrUnknownAgent, name)
	}
	return nil, fmt.Errorf("%w %q (available: %s)", ErrUnknownAgent, name, strings.Join(r.List(), ", "))
}

// List returns the names of all registered agents, sorted.
func (r *Registry) List() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.agents))
	for name := range r.agents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered agents.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.agents)
}

// Describe returns "name: description" for the named agent.
func (r *Registry) Describe(name string) (string, error) {
	a, err := r.Get(name)
	if err != nil {
		return "", err
	}
	desc := a.Description()
	if desc == "" {
		desc = "(no description)"
	}
	return a.Name() + ": " + desc, nil
}

// Delegate runs task on the named agent.
func (r *Registry) Delegate(ctx context.Context, name, task string) (string, error) {
	a, err := r.Get(name)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(task) == "" {
		return "", fmt.Errorf("agent %s: empty task", name)
	}
	out, err := a.Run(ctx, task)
	if err != nil {
		return "", fmt.Errorf("agent %s: %w", name, err)
	}
	return out, nil
}

// CommandAgent is an agent backed by an external command.
type CommandAgent struct {
	name        string
	description string
	responder   model.Responder
}

// NewCommandAgent returns an agent answering through responder.
func NewCommandAgent(name, description string, responder model.Responder) *CommandAgent {
	return &CommandAgent{name: name, description: description, responder: responder}
}

func (a *CommandAgent) Name() string        { return a.name }
func (a *CommandAgent) Description() string { return a.description }

// Run sends task to the agent's command.
func (a *CommandAgent) Run(ctx context.Context, task string) (string, error) {
	return a.responder.Respond(ctx, task)
}
