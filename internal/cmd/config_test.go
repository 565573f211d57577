package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/xdg/kota/internal/clog"
	"github.com/xdg/kota/internal/term"
)

// captureOutput redirects term output for the duration of the test.
func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	term.SetOutput(&buf)
	term.SetErrOutput(&buf)
	clog.Discard()
	t.Cleanup(func() {
		term.Reset()
		clog.Reset()
	})
	return &buf
}

// isolateConfig points every config and state path at temporary
// directories and returns the config home.
func isolateConfig(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	configFile, logLevel = "", ""
	return tmpDir
}

func TestConfigCmd_HasSubcommands(t *testing.T) {
	expected := map[string]bool{
		"show": false,
		"path": false,
		"init": false,
	}

	for _, cmd := range configCmd.Commands() {
		if _, ok := expected[cmd.Name()]; ok {
			expected[cmd.Name()] = true
		}
	}

	for name, found := range expected {
		if !found {
			t.Errorf("missing subcommand: %s", name)
		}
	}
}

func TestConfigPath_PrintsPath(t *testing.T) {
	tmpDir := isolateConfig(t)
	out := captureOutput(t)

	runConfigPath(&cobra.Command{}, nil)

	want := filepath.Join(tmpDir, "kota", "config.yaml")
	if strings.TrimSpace(out.String()) != want {
		t.Errorf("config path = %q, want %q", out.String(), want)
	}
}

func TestConfigInit_CreatesFile(t *testing.T) {
	tmpDir := isolateConfig(t)
	captureOutput(t)

	err := runConfigInit(&cobra.Command{}, nil)
	if err != nil {
		t.Fatalf("runConfigInit() error = %v", err)
	}

	configPath := filepath.Join(tmpDir, "kota", "config.yaml")
	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("config file not created: %v", err)
	}
	if info.Size() == 0 {
		t.Error("config file should not be empty")
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "kota", "policy.yaml")); err != nil {
		t.Errorf("policy file not created: %v", err)
	}

	// A second run leaves both files alone.
	if err := runConfigInit(&cobra.Command{}, nil); err != nil {
		t.Fatalf("second runConfigInit() error = %v", err)
	}
}

func TestConfigShow_LoadsConfig(t *testing.T) {
	isolateConfig(t)
	out := captureOutput(t)

	// Should succeed even if no config exists (uses defaults)
	if err := runConfigShow(&cobra.Command{}, nil); err != nil {
		t.Fatalf("runConfigShow() error = %v", err)
	}
	for _, want := range []string{"sandbox:", "profile: development", "approval:"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("config show missing %q:\n%s", want, out.String())
		}
	}
}

func TestConfigShow_ExplicitFile(t *testing.T) {
	isolateConfig(t)
	out := captureOutput(t)

	path := filepath.Join(t.TempDir(), "kota.yaml")
	if err := os.WriteFile(path, []byte("sandbox:\n  profile: minimal\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	configFile = path
	t.Cleanup(func() { configFile = "" })

	if err := runConfigShow(&cobra.Command{}, nil); err != nil {
		t.Fatalf("runConfigShow() error = %v", err)
	}
	if !strings.Contains(out.String(), "profile: minimal") {
		t.Errorf("config show ignored --config:\n%s", out.String())
	}
}

func TestConfigShow_InvalidFile(t *testing.T) {
	isolateConfig(t)
	captureOutput(t)

	path := filepath.Join(t.TempDir(), "kota.yaml")
	if err := os.WriteFile(path, []byte("sandbox:\n  profile: root\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	configFile = path
	t.Cleanup(func() { configFile = "" })

	err := runConfigShow(&cobra.Command{}, nil)
	if err == nil || !strings.Contains(err.Error(), "sandbox.profile") {
		t.Errorf("error = %v, want sandbox.profile validation error", err)
	}
}
