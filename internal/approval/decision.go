// Package approval implements the human confirmation checkpoint for
// state-mutating actions.
//
// A Gate asks the operator about one Item at a time. A Batch wraps a Gate
// for the items proposed by a single model response: "approve all" applies
// to the rest of that batch only, and "abort" stops the batch without
// prompting for anything left in it.
package approval

import (
	"errors"
	"fmt"
)

// ErrUserRejected reports that the operator declined an item.
var ErrUserRejected = errors.New("rejected by operator")

// ErrUserAborted reports that the operator aborted the current batch.
var ErrUserAborted = errors.New("aborted by operator")

// Decision is the operator's answer for one item.
type Decision int

const (
	// Reject skips this item; later items are still offered.
	Reject Decision = iota
	// ApproveOne approves this item only.
	ApproveOne
	// ApproveAll approves this item and every later item in the batch.
	ApproveAll
	// Abort skips this item and every later item in the batch.
	Abort
)

func (d Decision) String() string {
	switch d {
	case Reject:
		return "reject"
	case ApproveOne:
		return "approve"
	case ApproveAll:
		return "approve-all"
	case Abort:
		return "abort"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

// Approved reports whether the item may proceed.
func (d Decision) Approved() bool {
	return d == ApproveOne || d == ApproveAll
}

// Err returns the error describing a negative decision, or nil.
func (d Decision) Err() error {
	switch d {
	case Reject:
		return ErrUserRejected
	case Abort:
		return ErrUserAborted
	default:
		return nil
	}
}

// Kind identifies what an Item would change.
type Kind int

const (
	KindEdit Kind = iota
	KindCommand
	KindConfig
)

func (k Kind) String() string {
	switch k {
	case KindEdit:
		return "edit"
	case KindCommand:
		return "command"
	case KindConfig:
		return "config"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Item describes one pending action for the operator.
type Item struct {
	Kind    Kind
	Summary string // one line, e.g. "Edit app.txt"
	Detail  string // diff or command text
	Risk    Risk
}
