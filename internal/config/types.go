// Package config provides configuration types for kota. These types map
// to the YAML file at ~/.config/kota/config.yaml.
package config

// GlobalConfig represents the top-level configuration for kota.
type GlobalConfig struct {
	Workdir    string           `yaml:"workdir,omitempty"`
	Policy     PolicyConfig     `yaml:"policy,omitempty"`
	Sandbox    SandboxConfig    `yaml:"sandbox,omitempty"`
	Execution  ExecutionConfig  `yaml:"execution,omitempty"`
	Approval   ApprovalConfig   `yaml:"approval,omitempty"`
	SelfModify SelfModifyConfig `yaml:"self_modify,omitempty"`
	Model      ModelConfig      `yaml:"model,omitempty"`
	Agents     []AgentConfig    `yaml:"agents,omitempty"`
	Journal    JournalConfig    `yaml:"journal,omitempty"`
	Log        LogConfig        `yaml:"log,omitempty"`
}

// PolicyConfig locates the command policy file. The file itself is parsed
// by the policy package (YAML or CUE).
type PolicyConfig struct {
	File string `yaml:"file,omitempty"`
}

// SandboxConfig selects the isolation profile and backend for spawned commands.
type SandboxConfig struct {
	Profile string `yaml:"profile,omitempty"`
	Backend string `yaml:"backend,omitempty"`
}

// ExecutionConfig bounds spawned commands.
type ExecutionConfig struct {
	Timeout        string `yaml:"timeout,omitempty"`
	MaxOutputBytes int    `yaml:"max_output_bytes,omitempty"`
	Shell          string `yaml:"shell,omitempty"`
}

// ApprovalConfig controls how the approval gate asks the operator.
// Mode is one of "auto", "prompt" or "reject".
type ApprovalConfig struct {
	Mode string `yaml:"mode,omitempty"`
}

// SelfModifyConfig identifies the assistant's own source tree. Edits under
// SourceRoot or to any of Paths trigger the restart protocol.
type SelfModifyConfig struct {
	SourceRoot string   `yaml:"source_root,omitempty"`
	Paths      []string `yaml:"paths,omitempty"`
}

// ModelConfig configures the external command that produces model responses.
// The command receives the prompt on stdin and writes the response to stdout.
type ModelConfig struct {
	Command string   `yaml:"command,omitempty"`
	Args    []string `yaml:"args,omitempty"`
	Timeout string   `yaml:"timeout,omitempty"`
}

// AgentConfig declares a named helper agent reachable through /agent
// delegate and /agent query. Like the model, an agent is an external
// command that reads a task on stdin and prints its answer.
type AgentConfig struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	Command     string   `yaml:"command"`
	Args        []string `yaml:"args,omitempty"`
}

// JournalConfig locates the SQLite action journal.
type JournalConfig struct {
	Path     string `yaml:"path,omitempty"`
	Disabled bool   `yaml:"disabled,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	File    string `yaml:"file,omitempty"`
	Level   string `yaml:"level,omitempty"`
	Journal bool   `yaml:"journal,omitempty"`
	Audit   string `yaml:"audit,omitempty"`
}
