package config

import "github.com/xdg/kota/internal/clog"

// Default values applied to fields left empty in the config file.
const (
	DefaultSandboxProfile = "development"
	DefaultSandboxBackend = "auto"
	DefaultTimeout        = "30s"
	DefaultMaxOutputBytes = 64 * 1024
	DefaultShell          = "/bin/sh"
	DefaultApprovalMode   = "auto"
	DefaultModelTimeout   = "5m"
	DefaultLogLevel       = "info"
)

// DefaultGlobalConfig returns a GlobalConfig with all defaults populated.
// Security baseline: commands run in the development profile, every
// state-mutating action goes through the approval gate, and unmatched
// commands are denied by the default policy file.
func DefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		Policy: PolicyConfig{
			File: DefaultPolicyPath(),
		},
		Sandbox: SandboxConfig{
			Profile: DefaultSandboxProfile,
			Backend: DefaultSandboxBackend,
		},
		Execution: ExecutionConfig{
			Timeout:        DefaultTimeout,
			MaxOutputBytes: DefaultMaxOutputBytes,
			Shell:          DefaultShell,
		},
		Approval: ApprovalConfig{
			Mode: DefaultApprovalMode,
		},
		Model: ModelConfig{
			Timeout: DefaultModelTimeout,
		},
		Journal: JournalConfig{
			Path: DefaultJournalPath(),
		},
		Log: LogConfig{
			File:  clog.DefaultLogPath(),
			Level: DefaultLogLevel,
			Audit: DefaultAuditPath(),
		},
	}
}

// applyDefaults fills empty fields of cfg from DefaultGlobalConfig.
func applyDefaults(cfg *GlobalConfig) {
	def := DefaultGlobalConfig()
	if cfg.Policy.File == "" {
		cfg.Policy.File = def.Policy.File
	}
	if cfg.Sandbox.Profile == "" {
		cfg.Sandbox.Profile = def.Sandbox.Profile
	}
	if cfg.Sandbox.Backend == "" {
		cfg.Sandbox.Backend = def.Sandbox.Backend
	}
	if cfg.Execution.Timeout == "" {
		cfg.Execution.Timeout = def.Execution.Timeout
	}
	if cfg.Execution.MaxOutputBytes == 0 {
		cfg.Execution.MaxOutputBytes = def.Execution.MaxOutputBytes
	}
	if cfg.Execution.Shell == "" {
		cfg.Execution.Shell = def.Execution.Shell
	}
	if cfg.Approval.Mode == "" {
		cfg.Approval.Mode = def.Approval.Mode
	}
	if cfg.Model.Timeout == "" {
		cfg.Model.Timeout = def.Model.Timeout
	}
	if cfg.Journal.Path == "" {
		cfg.Journal.Path = def.Journal.Path
	}
	if cfg.Log.File == "" {
		cfg.Log.File = def.Log.File
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
	if cfg.Log.Audit == "" {
		cfg.Log.Audit = def.Log.Audit
	}
}

// defaultConfigTemplate is written by WriteDefaultConfig. Every setting is
// commented out so the built-in defaults stay in effect until edited.
const defaultConfigTemplate = `# kota configuration
#
# Project directory commands run in and edits are resolved against.
# Defaults to the current directory.
# workdir: ~/src/myproject

policy:
  # Ordered allow/deny rules for shell commands. Exact rules are checked
  # first; pattern rules are then evaluated in declaration order and the
  # first match wins, so put narrow denies above broad allows.
  # file: ~/.config/kota/policy.yaml

sandbox:
  # One of: minimal, development, read-only
  # profile: development
  # One of: auto, seatbelt, bwrap, none
  # backend: auto

execution:
  # timeout: 30s
  # max_output_bytes: 65536
  # shell: /bin/sh

approval:
  # auto: prompt on a terminal, reject when stdin is not interactive
  # prompt: always prompt
  # reject: never prompt, reject every approval-required action
  # mode: auto

self_modify:
  # Root of kota's own source tree. Edits here trigger a commit and
  # restart (exit status 123) for the supervising loop.
  # Off by default: with neither source_root nor paths set, no edit is
  # treated as an own-source edit and kota never asks for a restart.
  # source_root: ~/src/kota
  # paths: []

model:
  # External command that reads a prompt on stdin and prints a response.
  # command: llm
  # args: ["-m", "claude"]
  # timeout: 5m

# Helper agents for /agent delegate and /agent query. Each runs like the
# model command and shares its timeout.
# agents:
#   - name: reviewer
#     description: reviews diffs for mistakes
#     command: llm
#     args: ["-s", "You review code changes."]

journal:
  # path: ~/.local/state/kota/journal.db
  # disabled: false

log:
  # file: ~/.local/state/kota/kota.log
  # level: info
  # journal: false
  # audit: ~/.local/state/kota/audit.log
`
