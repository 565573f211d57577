package policy

import "fmt"

// DefaultPolicyYAML is the policy used when no policy file exists, and the
// content written to a new policy file.
const DefaultPolicyYAML = `# kota command policy
#
# Every shell command is checked here before it can be offered for approval.
# A denied command is never run, whatever the operator answers.
#
# Evaluation order:
#   1. "exact" rules: the whole command, trimmed, must equal the string.
#   2. "pattern" rules, top to bottom. The FIRST match wins.
#   3. "default" when nothing matches (deny unless set to allow).
#
# Overlapping patterns are resolved only by their order in this file.
# Put narrow rules above broad ones:
#
#   - pattern: "rm *"        # position 0, wins for "rm -i file"
#     action: deny
#   - pattern: "rm -i *"     # position 1, never reached for rm commands
#     action: allow
#
# Patterns are globs over the whole command: "*" matches anything, "?" one
# character. Prefix with "re:" to use a Go regular expression instead.
# Commands joined with ;, &&, ||, | or using $(...) must also be allowed
# piece by piece.

default: deny

rules:
  # Read-only inspection.
  - exact: "ls"
    action: allow
  - exact: "pwd"
    action: allow
  - exact: "git status"
    action: allow
  - exact: "git diff"
    action: allow

  # Destructive or privileged programs.
  - pattern: "rm *"
    action: deny
    reason: "file deletion is not delegated"
  - pattern: "sudo *"
    action: deny
    reason: "privilege escalation"
  - pattern: "re:^(chmod|chown|dd|mkfs)( |$)"
    action: deny
    reason: "permission and device changes"
  - pattern: "git push*"
    action: deny
    reason: "publishing is done by the operator"
  - pattern: "git reset --hard*"
    action: deny
    reason: "discards work"
  - pattern: "* | sh*"
    action: deny
    reason: "piping into a shell"

  # Common development commands.
  - pattern: "ls *"
    action: allow
  - pattern: "cat *"
    action: allow
  - pattern: "grep *"
    action: allow
  - pattern: "head *"
    action: allow
  - pattern: "tail *"
    action: allow
  - pattern: "wc *"
    action: allow
  - pattern: "git log*"
    action: allow
  - pattern: "git diff *"
    action: allow
  - pattern: "git show*"
    action: allow
  - pattern: "go build*"
    action: allow
  - pattern: "go test*"
    action: allow
  - pattern: "go vet*"
    action: allow
  - pattern: "make*"
    action: allow
`

// Default returns an Engine for DefaultPolicyYAML.
func Default() *Engine {
	f, err := ParseYAML([]byte(DefaultPolicyYAML))
	if err != nil {
		panic(fmt.Sprintf("default policy: %v", err))
	}
	e, err := f.Compile()
	if err != nil {
		panic(fmt.Sprintf("default policy: %v", err))
	}
	return e
}
