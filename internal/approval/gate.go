package approval

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/xdg/kota/internal/clog"
)

// Mode controls whether the gate asks the operator at all.
type Mode int

const (
	// ModePrompt asks the operator about every item.
	ModePrompt Mode = iota
	// ModeReject rejects every item without asking. Used when no operator
	// is attached.
	ModeReject
)

func (m Mode) String() string {
	if m == ModeReject {
		return "reject"
	}
	return "prompt"
}

// ParseMode resolves a configured mode name. "auto" selects ModePrompt
// when in is a terminal and ModeReject otherwise.
func ParseMode(name string, in *os.File) (Mode, error) {
	switch name {
	case "prompt":
		return ModePrompt, nil
	case "reject":
		return ModeReject, nil
	case "", "auto":
		if in != nil && term.IsTerminal(int(in.Fd())) {
			return ModePrompt, nil
		}
		clog.Info("approval: stdin is not a terminal, rejecting approval-required actions")
		return ModeReject, nil
	default:
		return ModePrompt, fmt.Errorf("unknown approval mode %q (want auto, prompt or reject)", name)
	}
}

// Gate asks the operator to confirm items.
type Gate struct {
	mode     Mode
	prompter Prompter
	asked    int
}

// NewGate creates a Gate that asks through p.
func NewGate(mode Mode, p Prompter) *Gate {
	return &Gate{mode: mode, prompter: p}
}

// Mode returns the current mode.
func (g *Gate) Mode() Mode {
	return g.mode
}

// SetMode changes the mode for subsequent items.
func (g *Gate) SetMode(m Mode) {
	g.mode = m
}

// Asked returns how many times the operator has been prompted.
func (g *Gate) Asked() int {
	return g.asked
}

// Confirm asks about a single item. Blocks until the operator answers.
func (g *Gate) Confirm(item Item) (Decision, error) {
	if g.mode == ModeReject {
		clog.Debug("approval: %s %q rejected (mode reject)", item.Kind, item.Summary)
		return Reject, nil
	}
	g.asked++
	d, err := g.prompter.Prompt(item)
	if err != nil {
		return Abort, fmt.Errorf("approval prompt: %w", err)
	}
	clog.Debug("approval: %s %q -> %s", item.Kind, item.Summary, d)
	return d, nil
}

// NewBatch starts a batch of related items.
func (g *Gate) NewBatch() *Batch {
	return &Batch{gate: g}
}

// Batch applies sticky decisions across the items of one model response.
type Batch struct {
	gate       *Gate
	approveAll bool
	aborted    bool
}

// Confirm returns the decision for item. After ApproveAll every later item
// is approved without prompting; after Abort, or a prompt failure, every
// later item is aborted without prompting.
func (b *Batch) Confirm(item Item) (Decision, error) {
	if b.aborted {
		return Abort, nil
	}
	if b.approveAll {
		return ApproveAll, nil
	}
	d, err := b.gate.Confirm(item)
	switch {
	case err != nil:
		b.aborted = true
		return Abort, err
	case d == ApproveAll:
		b.approveAll = true
	case d == Abort:
		b.aborted = true
	}
	return d, nil
}

// Aborted reports whether the batch has been aborted.
func (b *Batch) Aborted() bool {
	return b.aborted
}

// Abort marks the batch aborted so no further items are offered.
func (b *Batch) Abort() {
	b.aborted = true
}
