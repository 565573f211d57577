package edit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/xdg/kota/internal/approval"
	"github.com/xdg/kota/internal/clog"
	"github.com/xdg/kota/internal/ctxstore"
	"github.com/xdg/kota/internal/fsutil"
	"github.com/xdg/kota/internal/selfmod"
)

// Status is the outcome of one block.
type Status int

const (
	StatusApplied Status = iota
	StatusRejected
	StatusAborted
	StatusAccessDenied
	StatusMatchFailed
	StatusIOFailed
	StatusSelfModified
	StatusSelfModFailed
	StatusNotAttempted
)

var statusNames = map[Status]string{
	StatusApplied:       "applied",
	StatusRejected:      "rejected",
	StatusAborted:       "aborted",
	StatusAccessDenied:  "access-denied",
	StatusMatchFailed:   "match-failed",
	StatusIOFailed:      "io-failed",
	StatusSelfModified:  "self-modified",
	StatusSelfModFailed: "self-modify-failed",
	StatusNotAttempted:  "not-attempted",
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Result is the outcome of applying one block.
type Result struct {
	Block       Block
	Path        string // absolute target path
	Status      Status
	Diff        Diff
	Commit      string // short hash, when committed
	Err         error
	Termination *selfmod.Termination
}

// Gate confirms one item. *approval.Batch satisfies it.
type Gate interface {
	Confirm(item approval.Item) (approval.Decision, error)
}

// Committer records applied edits in version control.
type Committer interface {
	Stage(ctx context.Context, paths ...string) error
	Commit(ctx context.Context, message string, paths ...string) (string, error)
}

// Messager produces a commit message for a diff. It returns fallback when
// no better message can be produced.
type Messager interface {
	CommitMessage(ctx context.Context, diff, fallback string) string
}

// SelfModifier finalizes edits to kota's own source.
type SelfModifier interface {
	IsOwnPath(abs string) bool
	Finalize(ctx context.Context, e selfmod.Edit) selfmod.Termination
}

// Applier applies parsed blocks against the context store.
type Applier struct {
	store    *ctxstore.Store
	repo     Committer
	messages Messager
	self     SelfModifier
}

// NewApplier creates an Applier. repo, messages and self may be nil: without
// repo edits are not committed, without messages the fallback message is
// used, and without self no path is treated as kota's own.
func NewApplier(store *ctxstore.Store, repo Committer, messages Messager, self SelfModifier) *Applier {
	return &Applier{store: store, repo: repo, messages: messages, self: self}
}

// Apply applies blocks in order, asking gate about each one that passes the
// context and match checks. Processing stops after an abort or after an
// edit to kota's own source; the remaining blocks are reported as aborted or
// not attempted.
func (a *Applier) Apply(ctx context.Context, blocks []Block, gate Gate) []Result {
	results := make([]Result, 0, len(blocks))
	var (
		halted bool
		rest   Status
	)
	for _, b := range blocks {
		if halted {
			results = append(results, Result{Block: b, Path: a.store.Resolve(b.Path), Status: rest})
			continue
		}
		r := a.applyOne(ctx, b, gate)
		results = append(results, r)
		switch r.Status {
		case StatusAborted:
			halted, rest = true, StatusAborted
		case StatusSelfModified, StatusSelfModFailed:
			halted, rest = true, StatusNotAttempted
		}
	}
	return results
}

func (a *Applier) applyOne(ctx context.Context, b Block, gate Gate) Result {
	abs := a.store.Resolve(b.Path)
	rel := a.store.Rel(abs)
	res := Result{Block: b, Path: abs}

	if !a.store.Contains(abs) {
		a.store.Notice(rel, "Edit refused: %s is not in context. Read this file first (/context add %s), then propose the edit again.", rel, rel)
		res.Status = StatusAccessDenied
		res.Err = fmt.Errorf("%s: %w", rel, ErrAccessDenied)
		return res
	}

	// Always match against what is on disk now, not the snapshot.
	current, err := os.ReadFile(abs)
	if err != nil {
		res.Status = StatusIOFailed
		res.Err = &WriteError{Path: rel, Op: "read", Err: err}
		return res
	}

	start, merr := locate(rel, current, []byte(b.Search))
	if merr != nil {
		a.store.Notice(rel, "Edit not applied: %v. Re-read the file (/context add %s) and quote the search text exactly.", merr, rel)
		res.Status = StatusMatchFailed
		res.Err = merr
		return res
	}

	updated := make([]byte, 0, len(current)-len(b.Search)+len(b.Replace))
	updated = append(updated, current[:start]...)
	updated = append(updated, b.Replace...)
	updated = append(updated, current[start+len(b.Search):]...)
	res.Diff = unifiedDiff(rel, current, updated)

	own := a.self != nil && a.self.IsOwnPath(abs)
	summary := "Edit " + rel
	if own {
		summary += " (kota source: commit and restart)"
	}
	decision, err := gate.Confirm(approval.Item{
		Kind:    approval.KindEdit,
		Summary: summary,
		Detail:  res.Diff.Text,
		Risk:    approval.AssessEdit(own),
	})
	if !decision.Approved() {
		res.Status = StatusRejected
		if decision == approval.Abort {
			res.Status = StatusAborted
		}
		res.Err = decision.Err()
		if err != nil {
			res.Err = errors.Join(res.Err, err)
		}
		return res
	}

	if err := fsutil.WriteFileAtomic(abs, updated); err != nil {
		res.Status = StatusIOFailed
		res.Err = &WriteError{Path: rel, Op: "write", Err: err}
		return res
	}
	clog.Info("edit: applied %s (+%d -%d)", rel, res.Diff.Added, res.Diff.Removed)
	a.store.Record(ctxstore.Record{
		Kind:   ctxstore.KindOutcome,
		Source: rel,
		Text:   "Edit applied:\n" + res.Diff.Text,
	})

	message := a.commitMessage(ctx, rel, res.Diff)

	if own {
		t := a.self.Finalize(ctx, selfmod.Edit{Path: abs, Original: current, Message: message})
		res.Termination = &t
		res.Status = StatusSelfModified
		if t.Err != nil {
			res.Status = StatusSelfModFailed
			res.Err = t.Err
		}
		return res
	}

	res.Status = StatusApplied
	if a.repo == nil {
		clog.Debug("edit: no repository, %s left uncommitted", rel)
		return res
	}
	if err := a.repo.Stage(ctx, abs); err != nil {
		clog.Warn("edit: stage %s: %v", rel, err)
		res.Err = fmt.Errorf("commit %s: %w", rel, err)
		return res
	}
	hash, err := a.repo.Commit(ctx, message, abs)
	if err != nil {
		clog.Warn("edit: commit %s: %v", rel, err)
		res.Err = fmt.Errorf("commit %s: %w", rel, err)
		return res
	}
	res.Commit = hash
	return res
}

func (a *Applier) commitMessage(ctx context.Context, rel string, d Diff) string {
	fallback := fmt.Sprintf("Edit %s (+%d -%d)", rel, d.Added, d.Removed)
	if a.messages == nil {
		return fallback
	}
	msg := a.messages.CommitMessage(ctx, d.Text, fallback)
	if msg == "" {
		return fallback
	}
	return msg
}

// locate returns the offset of the single occurrence of search in content.
// Overlapping occurrences count separately.
func locate(rel string, content, search []byte) (int, error) {
	if len(search) == 0 {
		return 0, &MatchError{Path: rel, Empty: true}
	}
	var starts []int
	for off := 0; off < len(content); {
		i := bytes.Index(content[off:], search)
		if i < 0 {
			break
		}
		starts = append(starts, off+i)
		off += i + 1
	}
	if len(starts) == 1 {
		return starts[0], nil
	}
	merr := &MatchError{Path: rel, Count: len(starts)}
	for _, st := range starts {
		merr.Lines = append(merr.Lines, bytes.Count(content[:st], []byte("\n"))+1)
	}
	return 0, merr
}
