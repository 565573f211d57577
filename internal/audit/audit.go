// Package audit writes an append-only trail of every action kota proposed,
// approved, refused or ran. Entries are single lines of key=value pairs.
package audit

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// EventType is the kind of audit entry.
type EventType string

// Command events.
const (
	EventRequest     EventType = "REQUEST"
	EventAutonomous  EventType = "AUTONOMOUS"
	EventPolicyDeny  EventType = "POLICY_DENY"
	EventApprove     EventType = "APPROVE"
	EventReject      EventType = "REJECT"
	EventAbort       EventType = "ABORT"
	EventComplete    EventType = "COMPLETE"
	EventTimeout     EventType = "TIMEOUT"
	EventSandboxFail EventType = "SANDBOX_FAIL"
)

// Edit events.
const (
	EventEditApply  EventType = "EDIT_APPLY"
	EventEditReject EventType = "EDIT_REJECT"
	EventEditDeny   EventType = "EDIT_DENY"
	EventEditFail   EventType = "EDIT_FAIL"
	EventSelfModify EventType = "SELF_MODIFY"
)

// Event is one audit entry. Which optional fields are written depends on
// Type.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Session   string

	// Cmd is the command line for command events.
	Cmd string
	// Path is the workdir-relative file for edit events.
	Path string

	Category string
	Profile  string
	Rule     string
	Reason   string
	Commit   string
	ExitCode int
	Duration time.Duration
}

// IsEdit reports whether e concerns a file edit rather than a command.
func (e *Event) IsEdit() bool {
	switch e.Type {
	case EventEditApply, EventEditReject, EventEditDeny, EventEditFail, EventSelfModify:
		return true
	}
	return false
}

// Format returns the log line for e, without a trailing newline.
//
//	2024-01-15T14:32:05Z EXEC COMPLETE session=ab12 cmd="go test ./..." profile="development" exit=0 duration=2.3s
//	2024-01-15T14:32:05Z EDIT EDIT_APPLY session=ab12 path="main.go" commit="1a2b3c4"
func (e *Event) Format() string {
	var b strings.Builder

	b.WriteString(e.Timestamp.UTC().Format(time.RFC3339))
	if e.IsEdit() {
		b.WriteString(" EDIT ")
	} else {
		b.WriteString(" EXEC ")
	}
	b.WriteString(string(e.Type))

	b.WriteString(" session=")
	b.WriteString(e.Session)
	if e.IsEdit() {
		b.WriteString(" path=")
		b.WriteString(quoteValue(e.Path))
	} else {
		b.WriteString(" cmd=")
		b.WriteString(quoteValue(e.Cmd))
	}

	e.formatTypeSpecificFields(&b)
	return b.String()
}

func (e *Event) formatTypeSpecificFields(b *strings.Builder) {
	switch e.Type {
	case EventRequest, EventAutonomous:
		writeOptionalField(b, "category", e.Category)
	case EventPolicyDeny:
		writeOptionalField(b, "rule", e.Rule)
		writeOptionalField(b, "reason", e.Reason)
	case EventComplete:
		writeOptionalField(b, "profile", e.Profile)
		b.WriteString(" exit=")
		b.WriteString(strconv.Itoa(e.ExitCode))
		b.WriteString(" duration=")
		b.WriteString(formatDuration(e.Duration))
	case EventTimeout:
		writeOptionalField(b, "profile", e.Profile)
		b.WriteString(" duration=")
		b.WriteString(formatDuration(e.Duration))
	case EventSandboxFail, EventEditDeny, EventEditFail, EventReject:
		writeOptionalField(b, "reason", e.Reason)
	case EventEditApply, EventSelfModify:
		writeOptionalField(b, "commit", e.Commit)
		writeOptionalField(b, "reason", e.Reason)
	}
}

// writeOptionalField appends " key=quoted_value" if value is non-empty.
func writeOptionalField(b *strings.Builder, key, value string) {
	if value == "" {
		return
	}
	b.WriteString(" ")
	b.WriteString(key)
	b.WriteString("=")
	b.WriteString(quoteValue(value))
}

// quoteValue always quotes so values with spaces stay one field.
func quoteValue(s string) string {
	return strconv.Quote(s)
}

// formatDuration formats d as e.g. "12.0ms", "2.3s" or "1m30s".
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.1fms", float64(d)/float64(time.Millisecond))
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return d.Round(time.Second).String()
}

// Logger writes audit events to an io.Writer. A nil *Logger discards.
type Logger struct {
	mu      sync.Mutex
	w       io.Writer
	session string
	now     func() time.Time
}

// NewLogger creates an audit logger that tags every event with session.
func NewLogger(w io.Writer, session string) *Logger {
	return &Logger{w: w, session: session, now: time.Now}
}

// OpenFile opens path for appending, creating it and its directory.
// The caller closes the returned file.
func OpenFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create audit dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	return f, nil
}

// Log writes e, filling in the timestamp and session when unset.
func (l *Logger) Log(e *Event) error {
	if l == nil || l.w == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if e.Timestamp.IsZero() {
		e.Timestamp = l.now()
	}
	if e.Session == "" {
		e.Session = l.session
	}
	if _, err := io.WriteString(l.w, e.Format()+"\n"); err != nil {
		return fmt.Errorf("write audit event: %w", err)
	}
	return nil
}

// LogRequest logs a command entering the pipeline.
func (l *Logger) LogRequest(cmd, category string) error {
	return l.Log(&Event{Type: EventRequest, Cmd: cmd, Category: category})
}

// LogAutonomous logs a verb dispatched without approval.
func (l *Logger) LogAutonomous(cmd, category string) error {
	return l.Log(&Event{Type: EventAutonomous, Cmd: cmd, Category: category})
}

// LogPolicyDeny logs a command refused by policy.
func (l *Logger) LogPolicyDeny(cmd, rule, reason string) error {
	return l.Log(&Event{Type: EventPolicyDeny, Cmd: cmd, Rule: rule, Reason: reason})
}

// LogApprove logs an operator approval.
func (l *Logger) LogApprove(cmd string) error {
	return l.Log(&Event{Type: EventApprove, Cmd: cmd})
}

// LogReject logs an operator rejection.
func (l *Logger) LogReject(cmd, reason string) error {
	return l.Log(&Event{Type: EventReject, Cmd: cmd, Reason: reason})
}

// LogAbort logs an operator abort.
func (l *Logger) LogAbort(cmd string) error {
	return l.Log(&Event{Type: EventAbort, Cmd: cmd})
}

// LogComplete logs a command that ran to completion.
func (l *Logger) LogComplete(cmd, profile string, exitCode int, duration time.Duration) error {
	return l.Log(&Event{Type: EventComplete, Cmd: cmd, Profile: profile, ExitCode: exitCode, Duration: duration})
}

// LogTimeout logs a command killed at its timeout.
func (l *Logger) LogTimeout(cmd, profile string, duration time.Duration) error {
	return l.Log(&Event{Type: EventTimeout, Cmd: cmd, Profile: profile, Duration: duration})
}

// LogSandboxFail logs a command that could not be started in its sandbox.
func (l *Logger) LogSandboxFail(cmd, reason string) error {
	return l.Log(&Event{Type: EventSandboxFail, Cmd: cmd, Reason: reason})
}

// LogEdit logs the outcome of one edit block.
func (l *Logger) LogEdit(typ EventType, path, commit, reason string) error {
	return l.Log(&Event{Type: typ, Path: path, Commit: commit, Reason: reason})
}
