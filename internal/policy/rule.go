// Package policy decides whether a shell command may be run at all.
//
// Rules are evaluated in two tiers. Exact rules are looked up by the whole
// trimmed command string. If none matches, pattern rules are tried in
// declaration order and the first match wins. If nothing matches, the
// configured default applies; the default default is deny.
//
// Overlapping allow and deny patterns are resolved only by order: put the
// narrow rule first. With "rm *" denied at position 0 and "rm -i *" allowed
// at position 1, "rm -i file" is denied.
package policy

import (
	"errors"
	"fmt"
)

// ErrPolicyViolation is wrapped by the error for a denied command.
var ErrPolicyViolation = errors.New("denied by policy")

// Action is what a rule does with a matching command.
type Action int

const (
	Deny Action = iota
	Allow
)

func (a Action) String() string {
	if a == Allow {
		return "allow"
	}
	return "deny"
}

// ParseAction parses "allow" or "deny".
func ParseAction(s string) (Action, error) {
	switch s {
	case "allow":
		return Allow, nil
	case "deny":
		return Deny, nil
	default:
		return Deny, fmt.Errorf("invalid action %q, must be allow or deny", s)
	}
}

// Rule is one entry of the policy.
type Rule struct {
	Pattern string
	Action  Action
	Exact   bool
	Order   int
	Reason  string
}

func (r Rule) String() string {
	kind := "pattern"
	if r.Exact {
		kind = "exact"
	}
	return fmt.Sprintf("#%d %s %s %q", r.Order, r.Action, kind, r.Pattern)
}

// Tier says which stage of evaluation produced a Decision.
type Tier int

const (
	TierExact Tier = iota
	TierPattern
	TierDefault
)

func (t Tier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierPattern:
		return "pattern"
	default:
		return "default"
	}
}

// Decision is the result of evaluating a command.
type Decision struct {
	Action Action
	Rule   *Rule // nil for TierDefault
	Tier   Tier
	Reason string
}

// Allowed reports whether the command may proceed to approval.
func (d Decision) Allowed() bool {
	return d.Action == Allow
}

// Err returns an error wrapping ErrPolicyViolation for a denied decision.
func (d Decision) Err() error {
	if d.Allowed() {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrPolicyViolation, d.Reason)
}
