package policy

import (
	"fmt"
	"regexp"
	"strings"
)

type compiledRule struct {
	Rule
	re *regexp.Regexp
}

// Engine evaluates commands against an immutable rule set.
type Engine struct {
	exact    map[string]Rule
	patterns []compiledRule
	rules    []Rule
	def      Action
}

// New builds an Engine from rules. Rules are ordered by their position in
// the slice; any Order field is overwritten. An invalid pattern fails the
// whole rule set.
func New(rules []Rule, def Action) (*Engine, error) {
	e := &Engine{
		exact: make(map[string]Rule),
		rules: make([]Rule, 0, len(rules)),
		def:   def,
	}
	for i, r := range rules {
		r.Order = i
		if strings.TrimSpace(r.Pattern) == "" {
			return nil, fmt.Errorf("rule %d: empty pattern", i)
		}
		e.rules = append(e.rules, r)
		if r.Exact {
			key := strings.TrimSpace(r.Pattern)
			if _, dup := e.exact[key]; !dup {
				e.exact[key] = r
			}
			continue
		}
		re, err := compilePattern(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		e.patterns = append(e.patterns, compiledRule{Rule: r, re: re})
	}
	return e, nil
}

// Rules returns the rules in evaluation order.
func (e *Engine) Rules() []Rule {
	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// Default returns the action for commands no rule matches.
func (e *Engine) Default() Action {
	return e.def
}

// Evaluate decides whether cmd may run. A compound command (joined with
// ;, &&, ||, | or containing command substitution) must also have every
// component allowed on its own.
func (e *Engine) Evaluate(cmd string) Decision {
	d := e.evaluateOne(cmd)
	if !d.Allowed() {
		return d
	}
	segs := segments(cmd)
	if len(segs) <= 1 {
		return d
	}
	for _, seg := range segs {
		sd := e.evaluateOne(seg)
		if !sd.Allowed() {
			sd.Reason = fmt.Sprintf("component %q: %s", seg, sd.Reason)
			return sd
		}
	}
	return d
}

func (e *Engine) evaluateOne(cmd string) Decision {
	key := strings.TrimSpace(cmd)
	if r, ok := e.exact[key]; ok {
		return Decision{Action: r.Action, Rule: &r, Tier: TierExact, Reason: reason(r)}
	}
	for i := range e.patterns {
		cr := &e.patterns[i]
		if cr.re.MatchString(key) {
			r := cr.Rule
			return Decision{Action: r.Action, Rule: &r, Tier: TierPattern, Reason: reason(r)}
		}
	}
	return Decision{
		Action: e.def,
		Tier:   TierDefault,
		Reason: fmt.Sprintf("no rule matched (default %s)", e.def),
	}
}

func reason(r Rule) string {
	if r.Reason != "" {
		return r.Reason
	}
	return fmt.Sprintf("matched rule %s", r)
}

// compilePattern turns a rule pattern into a regexp. A "re:" prefix takes
// the rest as a Go regular expression, unanchored unless it anchors itself.
// Otherwise the pattern is a glob over the whole command: "*" matches any
// run of characters, "?" matches one, everything else is literal.
func compilePattern(p string) (*regexp.Regexp, error) {
	if expr, ok := strings.CutPrefix(p, "re:"); ok {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid regular expression %q: %w", expr, err)
		}
		return re, nil
	}

	var b strings.Builder
	b.WriteString(`(?s)^`)
	for _, r := range strings.TrimSpace(p) {
		switch r {
		case '*':
			b.WriteString(`.*`)
		case '?':
			b.WriteString(`.`)
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString(`$`)
	return regexp.Compile(b.String())
}

// segments splits a command line on shell control operators and command
// substitution. Quoting is not interpreted, which errs toward more
// segments and therefore stricter evaluation.
func segments(cmd string) []string {
	r := strings.NewReplacer(
		">&", ">&", "<&", "<&", "&>", "&>", // redirections, not operators
		"&&", "\x00", "||", "\x00", ";", "\x00", "|", "\x00", "&", "\x00",
		"\n", "\x00", "$(", "\x00", "`", "\x00", ")", "\x00",
	)
	var out []string
	for _, s := range strings.Split(r.Replace(cmd), "\x00") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
