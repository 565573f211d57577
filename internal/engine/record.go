package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/xdg/kota/internal/audit"
	"github.com/xdg/kota/internal/clog"
	"github.com/xdg/kota/internal/edit"
	"github.com/xdg/kota/internal/journal"
	"github.com/xdg/kota/internal/term"
)

var editAuditTypes = map[edit.Status]audit.EventType{
	edit.StatusApplied:       audit.EventEditApply,
	edit.StatusRejected:      audit.EventEditReject,
	edit.StatusAborted:       audit.EventEditReject,
	edit.StatusAccessDenied:  audit.EventEditDeny,
	edit.StatusMatchFailed:   audit.EventEditFail,
	edit.StatusIOFailed:      audit.EventEditFail,
	edit.StatusSelfModified:  audit.EventSelfModify,
	edit.StatusSelfModFailed: audit.EventEditFail,
}

// recordEdit writes an edit result to the audit log and the journal and
// reports it to the operator.
func (e *Engine) recordEdit(ctx context.Context, r edit.Result) {
	rel := e.store.Rel(r.Path)
	reason := ""
	if r.Err != nil {
		reason = r.Err.Error()
	}

	switch r.Status {
	case edit.StatusApplied, edit.StatusSelfModified:
		if r.Commit != "" {
			term.Ack("Applied %s (commit %s)", rel, r.Commit)
		} else {
			term.Ack("Applied %s", rel)
		}
		if r.Err != nil {
			term.Warn("%v", r.Err)
		}
	case edit.StatusNotAttempted:
	default:
		term.Fail("Edit %s: %s", rel, r.Status)
	}

	if typ, ok := editAuditTypes[r.Status]; ok {
		_ = e.audit.LogEdit(typ, rel, r.Commit, reason)
	}
	e.journalRecord(ctx, journal.Action{
		Kind:    journal.ActionEdit,
		Subject: rel,
		Status:  r.Status.String(),
		Detail:  reason,
		Commit:  r.Commit,
	})
}

// recordCommand writes a command outcome to the journal.
func (e *Engine) recordCommand(ctx context.Context, o Outcome) {
	kind := journal.ActionCommand
	if !o.Request.Shell() && o.Request.Verb != "execute" && o.Request.Verb != "execute-and-capture" {
		kind = journal.ActionVerb
		if o.Request.Verb == "agent" {
			kind = journal.ActionAgent
		}
	}
	var detail []string
	if o.Err != nil {
		detail = append(detail, o.Err.Error())
	}
	if o.Profile != "" {
		detail = append(detail, "profile="+o.Profile)
	}
	a := journal.Action{
		Kind:    kind,
		Subject: o.Request.Raw,
		Status:  o.Status.String(),
		Detail:  strings.Join(detail, "; "),
	}
	if o.Result != nil {
		a.ExitCode = o.Result.ExitCode
	}
	e.journalRecord(ctx, a)
}

func (e *Engine) journalRecord(ctx context.Context, a journal.Action) {
	if e.journal == nil {
		return
	}
	a.SessionID = e.sessionID
	if _, err := e.journal.Record(ctx, a); err != nil {
		clog.Warn("engine: journal: %v", err)
	}
}

func formatNotes(notes []journal.Note) string {
	if len(notes) == 0 {
		return "no notes"
	}
	var b strings.Builder
	for _, n := range notes {
		fmt.Fprintf(&b, "#%d %s  %s\n", n.ID, n.CreatedAt.Local().Format("2006-01-02"), n.Text)
	}
	return strings.TrimSuffix(b.String(), "\n")
}
