package engine

import (
	"fmt"
	"strings"

	"github.com/xdg/kota/internal/command"
	"github.com/xdg/kota/internal/edit"
)

// Action is one thing a model response asks for. The set of variants is
// closed: EditAction, CommandAction and AgentTaskAction.
type Action interface {
	fmt.Stringer
	action()
}

// EditAction is a parsed search/replace block.
type EditAction struct {
	Block edit.Block
}

// CommandAction is a classified command line.
type CommandAction struct {
	Request command.Request
	Line    int
}

// AgentTaskAction hands a task to a named helper agent. Delegated answers
// are captured into context; queries are only shown to the operator.
type AgentTaskAction struct {
	Request command.Request
	Agent   string
	Task    string
	Capture bool
}

func (EditAction) action()      {}
func (CommandAction) action()   {}
func (AgentTaskAction) action() {}

func (a EditAction) String() string      { return "edit " + a.Block.Path }
func (a CommandAction) String() string   { return "command " + a.Request.Raw }
func (a AgentTaskAction) String() string { return "agent " + a.Agent + ": " + a.Task }

// Plan is every action found in one response, in order: all edits, then
// all commands.
type Plan struct {
	ResponseID string
	Edits      []EditAction
	Commands   []Action // CommandAction or AgentTaskAction
	Errors     []error
}

// Blocks returns the edit blocks of the plan.
func (p Plan) Blocks() []edit.Block {
	out := make([]edit.Block, len(p.Edits))
	for i, e := range p.Edits {
		out[i] = e.Block
	}
	return out
}

// Empty reports whether the plan has nothing to do.
func (p Plan) Empty() bool {
	return len(p.Edits) == 0 && len(p.Commands) == 0
}

// Extract parses a response into a Plan. Every command line is classified
// here, once; later stages use the stored classification.
func Extract(responseID, text string) Plan {
	p := Plan{ResponseID: responseID}

	blocks, perrs := edit.Parse(responseID, text)
	for _, b := range blocks {
		p.Edits = append(p.Edits, EditAction{Block: b})
	}
	for _, e := range perrs {
		p.Errors = append(p.Errors, e)
	}

	proposals, cerrs := command.ParseBlocks(withoutEdits(text, blocks))
	for _, prop := range proposals {
		p.Commands = append(p.Commands, actionFor(command.Classify(prop.Text), prop.Line))
	}
	for _, e := range cerrs {
		p.Errors = append(p.Errors, e)
	}
	return p
}

// withoutEdits blanks the lines of every parsed edit block so fences inside
// search or replacement text are not taken as commands. Line numbers are
// kept.
func withoutEdits(text string, blocks []edit.Block) string {
	if len(blocks) == 0 {
		return text
	}
	lines := strings.Split(text, "\n")
	for _, b := range blocks {
		for i := b.Line - 1; i < b.EndLine && i < len(lines); i++ {
			lines[i] = ""
		}
	}
	return strings.Join(lines, "\n")
}

// actionFor wraps a classified request in its Action variant.
func actionFor(req command.Request, line int) Action {
	if req.Verb == "agent" && (req.Sub == "delegate" || req.Sub == "query") && req.Err == nil {
		name, task, _ := strings.Cut(strings.TrimSpace(req.Arg), " ")
		return AgentTaskAction{
			Request: req,
			Agent:   name,
			Task:    strings.TrimSpace(task),
			Capture: req.Sub == "delegate",
		}
	}
	return CommandAction{Request: req, Line: line}
}
