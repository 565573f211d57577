package sandbox

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// ErrBackendUnavailable means the isolation tool for a backend is not
// installed or not supported on this OS.
var ErrBackendUnavailable = errors.New("sandbox backend unavailable")

// Backend is the isolation mechanism used to wrap a command.
type Backend string

const (
	BackendAuto     Backend = "auto"
	BackendSeatbelt Backend = "seatbelt"
	BackendBwrap    Backend = "bwrap"
	BackendNone     Backend = "none"
)

// ParseBackend validates a backend name from configuration.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.TrimSpace(s)); b {
	case BackendAuto, BackendSeatbelt, BackendBwrap, BackendNone:
		return b, nil
	case "":
		return BackendAuto, nil
	default:
		return "", fmt.Errorf("invalid sandbox backend %q, must be auto, seatbelt, bwrap or none", s)
	}
}

// SpawnError reports a failure to set up isolation or start a process.
type SpawnError struct {
	Backend Backend
	Op      string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("sandbox %s: %s: %v", e.Backend, e.Op, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// Invocation is a resolved sandbox: the wrapper argv placed before the
// shell, plus the environment and directory the process runs with.
type Invocation struct {
	Profile   Profile
	Backend   Backend
	Workdir   string
	TempDir   string // private temp dir, created on spawn; "" if none
	Wrapper   []string
	Env       []string
	Shell     string
	MaxOutput int
}

// Argv returns the full argv that runs command under the invocation.
func (inv Invocation) Argv(command string) []string {
	shell := inv.Shell
	if shell == "" {
		shell = DefaultShell
	}
	argv := make([]string, 0, len(inv.Wrapper)+3)
	argv = append(argv, inv.Wrapper...)
	return append(argv, shell, "-c", command)
}

func (inv Invocation) String() string {
	return fmt.Sprintf("%s/%s in %s", inv.Profile.Name, inv.Backend, inv.Workdir)
}

// DefaultShell runs every command.
const DefaultShell = "/bin/sh"

// DefaultMaxOutput bounds each of stdout and stderr.
const DefaultMaxOutput = 64 * 1024

// Selector resolves profile names into Invocations for one working
// directory and backend.
type Selector struct {
	Backend   Backend
	Workdir   string
	Shell     string
	MaxOutput int

	// LookPath and GOOS are replaceable for tests.
	LookPath func(string) (string, error)
	GOOS     string
}

// NewSelector returns a Selector for workdir using backend.
func NewSelector(backend Backend, workdir string) *Selector {
	return &Selector{
		Backend:   backend,
		Workdir:   workdir,
		Shell:     DefaultShell,
		MaxOutput: DefaultMaxOutput,
		LookPath:  exec.LookPath,
		GOOS:      runtime.GOOS,
	}
}

// Select resolves name into an Invocation. Unknown names fail with
// ErrUnknownProfile. A backend whose tool is missing fails with a
// *SpawnError wrapping ErrBackendUnavailable; there is no silent fallback
// to running unisolated.
func (s *Selector) Select(name string) (Invocation, error) {
	p, err := LookupProfile(name)
	if err != nil {
		return Invocation{}, err
	}

	workdir, err := filepath.Abs(s.Workdir)
	if err != nil {
		return Invocation{}, &SpawnError{Backend: s.Backend, Op: "resolve workdir", Err: err}
	}
	if fi, err := os.Stat(workdir); err != nil || !fi.IsDir() {
		if err == nil {
			err = fmt.Errorf("%s is not a directory", workdir)
		}
		return Invocation{}, &SpawnError{Backend: s.Backend, Op: "resolve workdir", Err: err}
	}

	workdir = realPath(workdir)

	backend, err := s.resolveBackend()
	if err != nil {
		return Invocation{}, err
	}

	tmp := filepath.Join(realPath(os.TempDir()), "kota-sandbox")
	inv := Invocation{
		Profile:   p,
		Backend:   backend,
		Workdir:   workdir,
		Env:       safeEnv(workdir, tmp, p.WriteTemp),
		Shell:     s.Shell,
		MaxOutput: s.MaxOutput,
	}
	if p.WriteTemp {
		inv.TempDir = tmp
	}
	if inv.MaxOutput <= 0 {
		inv.MaxOutput = DefaultMaxOutput
	}

	switch backend {
	case BackendSeatbelt:
		inv.Wrapper = []string{
			"sandbox-exec",
			"-D", "WORKDIR=" + workdir,
			"-D", "TMPDIR=" + tmp,
			"-p", p.SeatbeltPolicy(),
		}
	case BackendBwrap:
		inv.Wrapper = append([]string{"bwrap"}, p.bwrapArgs(workdir, tmp)...)
	}
	return inv, nil
}

// realPath resolves symlinks in p, or returns p unchanged when it cannot.
// Seatbelt matches subpath rules against resolved paths, and on macOS the
// temp dir lives under /var, which is a link to /private/var.
func realPath(p string) string {
	if r, err := filepath.EvalSymlinks(p); err == nil {
		return r
	}
	return p
}

func (s *Selector) resolveBackend() (Backend, error) {
	b := s.Backend
	if b == "" {
		b = BackendAuto
	}
	switch b {
	case BackendNone:
		return BackendNone, nil
	case BackendAuto:
		switch s.GOOS {
		case "darwin":
			b = BackendSeatbelt
		case "linux":
			b = BackendBwrap
		default:
			return "", &SpawnError{Backend: BackendAuto, Op: "select", Err: fmt.Errorf("%w: no isolation tool for %s", ErrBackendUnavailable, s.GOOS)}
		}
	}

	tool := map[Backend]string{BackendSeatbelt: "sandbox-exec", BackendBwrap: "bwrap"}[b]
	if tool == "" {
		return "", &SpawnError{Backend: b, Op: "select", Err: fmt.Errorf("%w: %q", ErrBackendUnavailable, b)}
	}
	if _, err := s.LookPath(tool); err != nil {
		return "", &SpawnError{Backend: b, Op: "select", Err: fmt.Errorf("%w: %s not found", ErrBackendUnavailable, tool)}
	}
	return b, nil
}
