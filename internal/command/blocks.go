package command

import (
	"fmt"
	"strings"
)

// fenceLangs are the info strings that mark a fenced block as commands.
var fenceLangs = map[string]bool{
	"bash":    true,
	"sh":      true,
	"shell":   true,
	"command": true,
}

// Proposal is one command line taken from a fenced block.
type Proposal struct {
	Text string
	Line int // 1-based line in the response
}

// ParseError describes a command block that was dropped.
type ParseError struct {
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("command block at line %d: %s", e.Line, e.Reason)
}

// ParseBlocks extracts command lines from fenced blocks in text. Every
// non-blank line that is not a comment is a separate proposal, in order.
// A line ending in a backslash continues onto the next line. A block with
// no closing fence is dropped with a ParseError.
func ParseBlocks(text string) ([]Proposal, []*ParseError) {
	lines := strings.Split(text, "\n")
	var (
		props []Proposal
		errs  []*ParseError
	)

	for i := 0; i < len(lines); i++ {
		if !isCommandFence(lines[i]) {
			continue
		}
		open := i
		var (
			block   []Proposal
			pending strings.Builder
			start   int
			closed  bool
		)
		for i++; i < len(lines); i++ {
			line := strings.TrimSpace(lines[i])
			if line == "```" {
				closed = true
				break
			}
			if pending.Len() == 0 && (line == "" || strings.HasPrefix(line, "#")) {
				continue
			}
			if pending.Len() == 0 {
				start = i + 1
			}
			if cont, ok := strings.CutSuffix(line, "\\"); ok {
				pending.WriteString(cont)
				continue
			}
			pending.WriteString(line)
			block = append(block, Proposal{Text: pending.String(), Line: start})
			pending.Reset()
		}
		if !closed {
			errs = append(errs, &ParseError{Line: open + 1, Reason: "missing closing ```"})
			continue
		}
		if pending.Len() > 0 {
			block = append(block, Proposal{Text: strings.TrimSpace(pending.String()), Line: start})
		}
		props = append(props, block...)
	}
	return props, errs
}

// ContainsBlocks reports whether text has a command fence.
func ContainsBlocks(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		if isCommandFence(line) {
			return true
		}
	}
	return false
}

func isCommandFence(line string) bool {
	info, ok := strings.CutPrefix(strings.TrimSpace(line), "```")
	if !ok {
		return false
	}
	lang, _, _ := strings.Cut(strings.TrimSpace(info), " ")
	return fenceLangs[lang]
}
