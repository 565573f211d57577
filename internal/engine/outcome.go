package engine

import (
	"fmt"

	"github.com/xdg/kota/internal/command"
	"github.com/xdg/kota/internal/edit"
	"github.com/xdg/kota/internal/policy"
	"github.com/xdg/kota/internal/sandbox"
	"github.com/xdg/kota/internal/selfmod"
)

// Status is the outcome of one command.
type Status int

const (
	StatusCompleted Status = iota
	StatusDispatched
	StatusPolicyDenied
	StatusRejected
	StatusAborted
	StatusSandboxFailed
	StatusTimedOut
	StatusFailed
	StatusNotAttempted
)

var statusNames = map[Status]string{
	StatusCompleted:     "completed",
	StatusDispatched:    "dispatched",
	StatusPolicyDenied:  "policy-denied",
	StatusRejected:      "rejected",
	StatusAborted:       "aborted",
	StatusSandboxFailed: "sandbox-failed",
	StatusTimedOut:      "timed-out",
	StatusFailed:        "failed",
	StatusNotAttempted:  "not-attempted",
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Outcome is what happened to one command or agent task.
type Outcome struct {
	Request command.Request
	Status  Status
	Policy  *policy.Decision // set for shell commands
	Result  *sandbox.Result  // set when a process ran
	Profile string
	Output  string // verb output shown to the operator
	Err     error
}

// Report summarizes a processed response.
type Report struct {
	ResponseID  string
	Edits       []edit.Result
	Commands    []Outcome
	Errors      []error
	Termination *selfmod.Termination
}

// Applied returns how many edits were written.
func (r *Report) Applied() int {
	n := 0
	for _, e := range r.Edits {
		switch e.Status {
		case edit.StatusApplied, edit.StatusSelfModified:
			n++
		}
	}
	return n
}
