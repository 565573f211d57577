// Package command classifies proposed commands into a closed set of
// categories and derives whether each may run without confirmation.
//
// A line starting with "/" is a control verb; anything else is a shell
// command. Classification is purely syntactic and never consults policy.
package command

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownVerb is set on a Request whose control verb is not recognized.
var ErrUnknownVerb = errors.New("unknown command")

// Category is the semantic class of a command.
type Category int

const (
	CategoryContext Category = iota
	CategoryAgent
	CategorySecurity
	CategoryMemory
	CategoryExecution
	CategoryVersionControl
	CategoryConfiguration
)

var categoryNames = map[Category]string{
	CategoryContext:        "context",
	CategoryAgent:          "agent",
	CategorySecurity:       "security",
	CategoryMemory:         "memory",
	CategoryExecution:      "execution",
	CategoryVersionControl: "version-control",
	CategoryConfiguration:  "configuration",
}

func (c Category) String() string {
	if n, ok := categoryNames[c]; ok {
		return n
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// Autonomy says whether a command needs operator confirmation.
type Autonomy int

const (
	Autonomous Autonomy = iota
	ApprovalRequired
)

func (a Autonomy) String() string {
	if a == Autonomous {
		return "autonomous"
	}
	return "approval-required"
}

// autonomyTable is fixed. Read-only and self-descriptive categories run
// freely; anything that mutates state or runs a process needs a human.
var autonomyTable = map[Category]Autonomy{
	CategoryContext:        Autonomous,
	CategoryAgent:          Autonomous,
	CategorySecurity:       Autonomous,
	CategoryMemory:         Autonomous,
	CategoryExecution:      ApprovalRequired,
	CategoryVersionControl: ApprovalRequired,
	CategoryConfiguration:  ApprovalRequired,
}

// AutonomyOf returns the autonomy class for c. Unknown categories require
// approval.
func AutonomyOf(c Category) Autonomy {
	if a, ok := autonomyTable[c]; ok {
		return a
	}
	return ApprovalRequired
}

// Request is a classified command.
type Request struct {
	Raw      string
	Category Category
	Autonomy Autonomy

	// Verb and Sub name a control verb, e.g. "git" and "commit" for
	// "/git commit msg". Both are empty for shell commands.
	Verb string
	Sub  string
	// Arg is the remaining text after the verb and subcommand, or the
	// whole command line for shell commands.
	Arg string
	// Err is ErrUnknownVerb for an unrecognized control verb.
	Err error
}

// Shell reports whether the request is a shell command line.
func (r Request) Shell() bool {
	return r.Verb == ""
}

// ShellCommand returns the shell text the request would run: the whole
// line for shell requests, the argument of /execute verbs, or "".
func (r Request) ShellCommand() string {
	switch {
	case r.Shell():
		return r.Arg
	case r.Verb == "execute" || r.Verb == "execute-and-capture":
		return r.Arg
	default:
		return ""
	}
}

func (r Request) String() string {
	return fmt.Sprintf("%s [%s, %s]", r.Raw, r.Category, r.Autonomy)
}

type verbSpec struct {
	category Category
	subs     map[string]Category // nil: verb takes no subcommand
	// setters lists subcommands that become configuration changes when
	// given an argument.
	setters map[string]bool
}

var verbs = map[string]verbSpec{
	"context": {category: CategoryContext, subs: map[string]Category{
		"add": CategoryContext, "show": CategoryContext, "clear": CategoryContext, "snippet": CategoryContext,
	}},
	"execute":             {category: CategoryExecution},
	"execute-and-capture": {category: CategoryExecution},
	// status and diff only read the repository, like /config show below.
	"git": {category: CategoryVersionControl, subs: map[string]Category{
		"stage": CategoryVersionControl, "commit": CategoryVersionControl,
		"status": CategoryContext, "diff": CategoryContext,
	}},
	"agent": {category: CategoryAgent, subs: map[string]Category{
		"list": CategoryAgent, "describe": CategoryAgent, "delegate": CategoryAgent, "query": CategoryAgent,
	}},
	"security": {
		category: CategorySecurity,
		subs: map[string]Category{
			"status": CategorySecurity, "sandbox-profile": CategorySecurity, "approval-mode": CategorySecurity,
		},
		setters: map[string]bool{"sandbox-profile": true, "approval-mode": true},
	},
	"memory": {category: CategoryMemory, subs: map[string]Category{
		"show": CategoryMemory, "search": CategoryMemory, "add": CategoryMemory,
	}},
	"config": {category: CategoryConfiguration, subs: map[string]Category{
		"reload": CategoryConfiguration, "show": CategorySecurity,
	}},
}

// aliases maps older single-word verbs onto verb and subcommand.
var aliases = map[string][2]string{
	"add_file":      {"context", "add"},
	"add_snippet":   {"context", "snippet"},
	"show_context":  {"context", "show"},
	"clear_context": {"context", "clear"},
	"run":           {"execute", ""},
	"run_add":       {"execute-and-capture", ""},
	"git_add":       {"git", "stage"},
	"git_commit":    {"git", "commit"},
	"git_status":    {"git", "status"},
	"git_diff":      {"git", "diff"},
	"agents":        {"agent", "list"},
	"delegate":      {"agent", "delegate"},
	"ask_agent":     {"agent", "query"},
	"sandbox":       {"security", "sandbox-profile"},
	"approval":      {"security", "approval-mode"},
}

// Classify assigns a category and autonomy class to raw. It is a pure
// function of its input.
func Classify(raw string) Request {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "/") {
		return classifyShell(raw, text)
	}

	word, rest := cut(text[1:])
	verb, sub := word, ""
	if a, ok := aliases[word]; ok {
		verb, sub = a[0], a[1]
	}

	def, ok := verbs[verb]
	if !ok {
		return unknown(raw, word)
	}

	if def.subs != nil && sub == "" {
		sub, rest = cut(rest)
		if sub == "" {
			sub = defaultSub(verb)
		}
	}

	cat := def.category
	if def.subs != nil {
		c, ok := def.subs[sub]
		if !ok {
			return unknown(raw, word+" "+sub)
		}
		cat = c
		if def.setters[sub] && rest != "" {
			cat = CategoryConfiguration
		}
	}

	return Request{
		Raw:      raw,
		Category: cat,
		Autonomy: AutonomyOf(cat),
		Verb:     verb,
		Sub:      sub,
		Arg:      rest,
	}
}

func classifyShell(raw, text string) Request {
	cat := CategoryExecution
	if first, _ := cut(text); first == "git" {
		cat = CategoryVersionControl
	}
	return Request{Raw: raw, Category: cat, Autonomy: AutonomyOf(cat), Arg: text}
}

func unknown(raw, word string) Request {
	return Request{
		Raw:      raw,
		Category: CategoryConfiguration,
		Autonomy: ApprovalRequired,
		Verb:     word,
		Err:      fmt.Errorf("%w: /%s", ErrUnknownVerb, word),
	}
}

// defaultSub is the subcommand used when a verb is given alone.
func defaultSub(verb string) string {
	switch verb {
	case "context", "memory", "config":
		return "show"
	case "security", "git":
		return "status"
	case "agent":
		return "list"
	default:
		return ""
	}
}

// cut splits s into its first whitespace-delimited word and the trimmed rest.
func cut(s string) (string, string) {
	s = strings.TrimSpace(s)
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i+1:])
}

// Verbs returns usage lines for every control verb.
func Verbs() []string {
	return []string{
		"/context add PATH | show | clear | snippet TEXT",
		"/execute CMD",
		"/execute-and-capture CMD",
		"/git stage PATH... | commit MSG | status | diff [--staged] [PATH...]",
		"/agent list | describe NAME | delegate NAME TASK | query NAME QUESTION",
		"/security status | sandbox-profile [NAME] | approval-mode [MODE]",
		"/memory show | search QUERY | add TEXT",
		"/config show | reload",
	}
}
