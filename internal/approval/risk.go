package approval

import (
	"fmt"
	"strings"
)

// Risk is a hint shown to the operator alongside an Item.
type Risk int

const (
	RiskLow Risk = iota
	RiskMedium
	RiskHigh
	RiskCritical
)

func (r Risk) String() string {
	switch r {
	case RiskLow:
		return "low"
	case RiskMedium:
		return "medium"
	case RiskHigh:
		return "high"
	case RiskCritical:
		return "critical"
	default:
		return fmt.Sprintf("risk(%d)", int(r))
	}
}

// Symbol returns a one-character marker for the risk level.
func (r Risk) Symbol() string {
	switch r {
	case RiskLow:
		return "✓"
	case RiskMedium:
		return "!"
	case RiskHigh:
		return "⚠"
	default:
		return "✗"
	}
}

var (
	criticalPrograms = map[string]bool{
		"rm": true, "sudo": true, "su": true, "doas": true,
		"chmod": true, "chown": true, "mkfs": true, "dd": true,
	}
	mediumPrograms = map[string]bool{
		"mv": true, "cp": true, "ln": true, "touch": true,
		"mkdir": true, "git": true, "make": true, "go": true,
	}
	highArgs = []string{"--force", "-rf", "-fr", "--hard", "--no-verify"}
)

// AssessCommand estimates the risk of a shell command line. Compound
// commands are split on ;, &&, || and | and the highest segment risk wins.
func AssessCommand(command string) Risk {
	risk := RiskLow
	if strings.Contains(command, "| sh") || strings.Contains(command, "| bash") {
		risk = RiskHigh
	}
	for _, seg := range splitSegments(command) {
		if r := assessSegment(seg); r > risk {
			risk = r
		}
	}
	return risk
}

// AssessEdit estimates the risk of a file edit. Edits to kota's own source
// trigger a restart and are always high.
func AssessEdit(ownSource bool) Risk {
	if ownSource {
		return RiskHigh
	}
	return RiskLow
}

func assessSegment(seg string) Risk {
	fields := strings.Fields(seg)
	// Skip leading VAR=value assignments.
	for len(fields) > 0 && strings.Contains(fields[0], "=") && !strings.HasPrefix(fields[0], "=") {
		fields = fields[1:]
	}
	if len(fields) == 0 {
		return RiskLow
	}
	prog := fields[0]
	if i := strings.LastIndexByte(prog, '/'); i >= 0 {
		prog = prog[i+1:]
	}
	if criticalPrograms[prog] {
		return RiskCritical
	}
	for _, arg := range fields[1:] {
		for _, h := range highArgs {
			if arg == h {
				return RiskHigh
			}
		}
		if strings.HasPrefix(arg, ">") && strings.Contains(arg, "/") && !strings.HasSuffix(arg, "/dev/null") {
			return RiskHigh
		}
	}
	if mediumPrograms[prog] || strings.Contains(seg, ">") {
		return RiskMedium
	}
	return RiskLow
}

func splitSegments(command string) []string {
	return strings.FieldsFunc(strings.NewReplacer("&&", ";", "||", ";", "|", ";").Replace(command), func(r rune) bool {
		return r == ';' || r == '\n'
	})
}
