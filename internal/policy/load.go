package policy

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/xdg/kota/internal/config"
)

// File is the on-disk policy format, shared by YAML and CUE sources.
type File struct {
	Default string      `yaml:"default,omitempty" json:"default,omitempty"`
	Rules   []RuleEntry `yaml:"rules,omitempty" json:"rules,omitempty"`
}

// RuleEntry is one rule as written in a policy file. Exactly one of Exact
// and Pattern must be set.
type RuleEntry struct {
	Exact   string `yaml:"exact,omitempty" json:"exact,omitempty"`
	Pattern string `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	Action  string `yaml:"action" json:"action"`
	Reason  string `yaml:"reason,omitempty" json:"reason,omitempty"`
}

// cueSchema constrains CUE policy files. It is closed, so unknown fields
// are rejected just like the strict YAML decoder does.
const cueSchema = `
default?: "allow" | "deny"
rules?: [...close({
	exact?:   string
	pattern?: string
	action:   "allow" | "deny"
	reason?:  string
})]
`

// ParseYAML parses a YAML policy document.
func ParseYAML(data []byte) (*File, error) {
	var f File
	if err := config.StrictUnmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse policy: %w", err)
	}
	return &f, nil
}

// ParseCUE parses a CUE policy document and validates it against the
// policy schema. filename is used in error messages.
func ParseCUE(filename string, data []byte) (*File, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString("close({"+cueSchema+"})", cue.Filename("policy-schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile policy schema: %w", err)
	}

	value := ctx.CompileBytes(data, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("parse policy: %w", err)
	}
	unified := schema.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("validate policy: %w", err)
	}

	var f File
	if err := unified.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode policy: %w", err)
	}
	return &f, nil
}

// Compile converts a parsed file into an Engine.
func (f *File) Compile() (*Engine, error) {
	def := Deny
	if f.Default != "" {
		a, err := ParseAction(f.Default)
		if err != nil {
			return nil, fmt.Errorf("default: %w", err)
		}
		def = a
	}

	rules := make([]Rule, 0, len(f.Rules))
	for i, e := range f.Rules {
		if (e.Exact == "") == (e.Pattern == "") {
			return nil, fmt.Errorf("rules[%d]: exactly one of exact or pattern must be set", i)
		}
		a, err := ParseAction(e.Action)
		if err != nil {
			return nil, fmt.Errorf("rules[%d].action: %w", i, err)
		}
		r := Rule{Pattern: e.Pattern, Action: a, Reason: e.Reason}
		if e.Exact != "" {
			r.Pattern, r.Exact = e.Exact, true
		}
		rules = append(rules, r)
	}
	return New(rules, def)
}

// LoadFile reads and compiles the policy at path. Files ending in .cue are
// parsed as CUE, anything else as YAML.
func LoadFile(path string) (*Engine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy %s: %w", path, err)
	}

	var f *File
	if strings.EqualFold(filepath.Ext(path), ".cue") {
		f, err = ParseCUE(path, data)
	} else {
		f, err = ParseYAML(data)
	}
	if err != nil {
		return nil, fmt.Errorf("load policy %s: %w", path, err)
	}

	e, err := f.Compile()
	if err != nil {
		return nil, fmt.Errorf("load policy %s: %w", path, err)
	}
	return e, nil
}

// WriteDefault writes the commented default policy to path unless a file
// already exists there.
func WriteDefault(path string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat policy file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create policy dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(DefaultPolicyYAML), 0o600); err != nil {
		return fmt.Errorf("write default policy: %w", err)
	}
	return nil
}
