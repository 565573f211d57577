package approval

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Prompter presents an Item to the operator and returns their decision.
type Prompter interface {
	Prompt(item Item) (Decision, error)
}

// StdinPrompter reads single-letter answers from In and writes the item
// and prompt to Out. Invalid answers are re-prompted; there is no timeout.
type StdinPrompter struct {
	In  io.Reader
	Out io.Writer

	reader *bufio.Reader
}

// NewStdinPrompter creates a StdinPrompter that reads from r and writes to w.
func NewStdinPrompter(r io.Reader, w io.Writer) *StdinPrompter {
	return &StdinPrompter{In: r, Out: w}
}

// Prompt displays item and reads y/n/a/q. Empty input means no.
// Reaching end of input aborts.
func (p *StdinPrompter) Prompt(item Item) (Decision, error) {
	if p.reader == nil {
		p.reader = bufio.NewReader(p.In)
	}

	_, _ = fmt.Fprintf(p.Out, "\n%s [%s] %s (risk: %s)\n", item.Risk.Symbol(), item.Kind, item.Summary, item.Risk)
	if item.Detail != "" {
		for _, line := range strings.Split(strings.TrimRight(item.Detail, "\n"), "\n") {
			_, _ = fmt.Fprintf(p.Out, "  %s\n", line)
		}
	}

	for {
		_, _ = fmt.Fprint(p.Out, "Proceed? [y]es / [N]o / [a]ll remaining / [q]uit batch: ")
		line, err := p.reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return Abort, fmt.Errorf("failed to read input: %w", err)
		}
		if d, ok := parseAnswer(line); ok {
			return d, nil
		}
		if errors.Is(err, io.EOF) {
			_, _ = fmt.Fprintln(p.Out)
			return Abort, fmt.Errorf("failed to read input: %w", io.EOF)
		}
		_, _ = fmt.Fprintf(p.Out, "Please answer y, n, a or q.\n")
	}
}

// parseAnswer maps an answer line to a decision. Empty input is Reject.
func parseAnswer(line string) (Decision, bool) {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return ApproveOne, true
	case "", "n", "no":
		return Reject, line != ""
	case "a", "all":
		return ApproveAll, true
	case "q", "quit", "abort":
		return Abort, true
	default:
		return Reject, false
	}
}

// MockPrompter implements Prompter for testing, returning pre-configured
// decisions.
type MockPrompter struct {
	// Responses is a queue of decisions returned by successive calls.
	// When exhausted, Reject is returned.
	Responses []Decision
	// Errors is a queue of errors for successive calls. A non-nil entry is
	// returned instead of the response.
	Errors []error
	// Calls records every item passed to Prompt.
	Calls []Item

	callIndex int
}

// NewMockPrompter creates a MockPrompter with the given responses.
func NewMockPrompter(responses ...Decision) *MockPrompter {
	return &MockPrompter{Responses: responses}
}

// Prompt returns the next pre-configured response or error.
func (m *MockPrompter) Prompt(item Item) (Decision, error) {
	m.Calls = append(m.Calls, item)
	i := m.callIndex
	m.callIndex++

	if i < len(m.Errors) && m.Errors[i] != nil {
		return Abort, m.Errors[i]
	}
	if i < len(m.Responses) {
		return m.Responses[i], nil
	}
	return Reject, nil
}
