package config

import (
	"fmt"
	"time"
)

var (
	validLogLevels = map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	validApprovalModes = map[string]bool{
		"auto":   true,
		"prompt": true,
		"reject": true,
	}
	validSandboxProfiles = map[string]bool{
		"minimal":     true,
		"development": true,
		"read-only":   true,
	}
	validSandboxBackends = map[string]bool{
		"auto":     true,
		"seatbelt": true,
		"bwrap":    true,
		"none":     true,
	}
)

// ValidateGlobalConfig checks that every set field holds a valid value.
// Empty fields are valid; defaults are applied after validation.
// Returns an error naming the offending field.
func ValidateGlobalConfig(cfg *GlobalConfig) error {
	if p := cfg.Sandbox.Profile; p != "" && !validSandboxProfiles[p] {
		return fmt.Errorf("sandbox.profile: invalid value %q, must be one of: minimal, development, read-only", p)
	}
	if b := cfg.Sandbox.Backend; b != "" && !validSandboxBackends[b] {
		return fmt.Errorf("sandbox.backend: invalid value %q, must be one of: auto, seatbelt, bwrap, none", b)
	}

	if cfg.Execution.Timeout != "" {
		if err := validatePositiveDuration(cfg.Execution.Timeout, "execution.timeout"); err != nil {
			return err
		}
	}
	if cfg.Execution.MaxOutputBytes < 0 {
		return fmt.Errorf("execution.max_output_bytes: must be non-negative, got %d", cfg.Execution.MaxOutputBytes)
	}

	if m := cfg.Approval.Mode; m != "" && !validApprovalModes[m] {
		return fmt.Errorf("approval.mode: invalid value %q, must be one of: auto, prompt, reject", m)
	}

	if cfg.Model.Timeout != "" {
		if err := validatePositiveDuration(cfg.Model.Timeout, "model.timeout"); err != nil {
			return err
		}
	}

	seen := make(map[string]bool, len(cfg.Agents))
	for i, a := range cfg.Agents {
		if a.Name == "" {
			return fmt.Errorf("agents[%d].name: required", i)
		}
		if seen[a.Name] {
			return fmt.Errorf("agents[%d].name: duplicate agent %q", i, a.Name)
		}
		seen[a.Name] = true
		if a.Command == "" {
			return fmt.Errorf("agents[%d].command: required", i)
		}
	}

	if l := cfg.Log.Level; l != "" && !validLogLevels[l] {
		return fmt.Errorf("log.level: invalid value %q, must be one of: debug, info, warn, error", l)
	}

	return nil
}

// validatePositiveDuration checks that s parses as a duration greater than zero.
func validatePositiveDuration(s, field string) error {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("%s: invalid duration %q: %w", field, s, err)
	}
	if d <= 0 {
		return fmt.Errorf("%s: must be positive, got %q", field, s)
	}
	return nil
}

// ExecutionTimeout returns the parsed execution timeout.
// The config must have been validated and defaulted.
func (c *GlobalConfig) ExecutionTimeout() time.Duration {
	d, err := time.ParseDuration(c.Execution.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// ModelTimeout returns the parsed model command timeout.
func (c *GlobalConfig) ModelTimeout() time.Duration {
	d, err := time.ParseDuration(c.Model.Timeout)
	if err != nil {
		return 5 * time.Minute
	}
	return d
}
