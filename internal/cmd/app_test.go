package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xdg/kota/internal/config"
	"github.com/xdg/kota/internal/engine"
	"github.com/xdg/kota/internal/selfmod"
)

func TestNewApp_ContextAddConfirms(t *testing.T) {
	isolateConfig(t)
	out := captureOutput(t)
	work := t.TempDir()
	if err := os.WriteFile(filepath.Join(work, "app.txt"), []byte("a=1\nb=2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	a, err := newApp(ctx, config.DefaultGlobalConfig(), appOptions{Workdir: work, Backend: "none", Approval: "reject"})
	if err != nil {
		t.Fatalf("newApp() error = %v", err)
	}
	t.Cleanup(func() { a.Close(selfmod.ExitNormal) })

	got := a.engine.Dispatch(ctx, "/context add app.txt")
	if got.Status != engine.StatusDispatched || got.Err != nil {
		t.Fatalf("Dispatch() = %+v", got)
	}
	if !strings.Contains(out.String(), "Added app.txt to context (8 bytes)") {
		t.Errorf("no confirmation in operator output:\n%s", out.String())
	}
	if !a.engine.Store().Contains("app.txt") {
		t.Error("app.txt not in context")
	}
}
