package ctxstore

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// RecordKind identifies what produced a Record.
type RecordKind int

const (
	// KindExecution is the captured result of a spawned command.
	KindExecution RecordKind = iota
	// KindNotice is an instruction back to the model, e.g. "read this file first".
	KindNotice
	// KindPolicyViolation reports a command that policy refused to run.
	KindPolicyViolation
	// KindSnippet is operator-supplied free text.
	KindSnippet
	// KindOutcome reports the result of an edit or verb.
	KindOutcome
)

var kindNames = map[RecordKind]string{
	KindExecution:       "execution",
	KindNotice:          "notice",
	KindPolicyViolation: "policy-violation",
	KindSnippet:         "snippet",
	KindOutcome:         "outcome",
}

func (k RecordKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Record is a piece of context that is not a file snapshot.
type Record struct {
	Kind   RecordKind
	Source string // command text, path, or label
	Text   string
	At     time.Time
}

// Record appends r. A zero At is set to the current time.
func (s *Store) Record(r Record) {
	if r.At.IsZero() {
		r.At = s.now()
	}
	s.records = append(s.records, r)
}

// Notice records an instruction for the model about source.
func (s *Store) Notice(source, format string, args ...any) {
	s.Record(Record{Kind: KindNotice, Source: source, Text: fmt.Sprintf(format, args...)})
}

// AddSnippet records operator-supplied text under label.
func (s *Store) AddSnippet(label, text string) {
	s.Record(Record{Kind: KindSnippet, Source: label, Text: text})
}

// Records returns a copy of all records, oldest first.
func (s *Store) Records() []Record {
	return slices.Clone(s.records)
}

func (r Record) render() string {
	var b strings.Builder
	switch r.Kind {
	case KindExecution:
		fmt.Fprintf(&b, "### Output: %s\n```\n%s", r.Source, r.Text)
		if !strings.HasSuffix(r.Text, "\n") {
			b.WriteByte('\n')
		}
		b.WriteString("```\n")
	default:
		fmt.Fprintf(&b, "### %s: %s\n%s\n", r.Kind, r.Source, r.Text)
	}
	return b.String()
}
