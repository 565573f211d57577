package config

import (
	"strings"
	"testing"
)

func TestValidateGlobalConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     GlobalConfig
		wantErr string
	}{
		{name: "empty is valid"},
		{name: "defaults are valid", cfg: *DefaultGlobalConfig()},
		{
			name:    "unknown backend",
			cfg:     GlobalConfig{Sandbox: SandboxConfig{Backend: "docker"}},
			wantErr: "sandbox.backend",
		},
		{
			name:    "zero timeout",
			cfg:     GlobalConfig{Execution: ExecutionConfig{Timeout: "0s"}},
			wantErr: "must be positive",
		},
		{
			name:    "negative output bound",
			cfg:     GlobalConfig{Execution: ExecutionConfig{MaxOutputBytes: -1}},
			wantErr: "execution.max_output_bytes",
		},
		{
			name:    "bad model timeout",
			cfg:     GlobalConfig{Model: ModelConfig{Timeout: "forever"}},
			wantErr: "model.timeout",
		},
		{
			name:    "agent without command",
			cfg:     GlobalConfig{Agents: []AgentConfig{{Name: "reviewer"}}},
			wantErr: "agents[0].command",
		},
		{
			name: "duplicate agent",
			cfg: GlobalConfig{Agents: []AgentConfig{
				{Name: "a", Command: "x"},
				{Name: "a", Command: "y"},
			}},
			wantErr: "duplicate agent",
		},
		{
			name:    "bad log level",
			cfg:     GlobalConfig{Log: LogConfig{Level: "trace"}},
			wantErr: "log.level",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateGlobalConfig(&tt.cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("ValidateGlobalConfig() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ValidateGlobalConfig() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}
