// Package sandbox selects an isolation wrapper for shell commands and runs
// them under it.
//
// Only the built-in profiles exist. A profile name is the only thing a
// caller chooses; no user text is ever spliced into isolation policy. The
// working directory reaches seatbelt as a -D parameter and bwrap as a bind
// argument, never as policy source.
package sandbox

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownProfile is returned by Select for a name outside the built-in set.
var ErrUnknownProfile = errors.New("unknown sandbox profile")

// Profile names.
const (
	ProfileMinimal     = "minimal"
	ProfileDevelopment = "development"
	ProfileReadOnly    = "read-only"
)

// Profile describes what a sandboxed command may touch.
type Profile struct {
	Name        string
	Description string

	// ReadWorkdir allows reading the working directory tree.
	ReadWorkdir bool
	// WriteWorkdir allows writing the working directory tree.
	WriteWorkdir bool
	// WriteTemp allows a private writable temp directory.
	WriteTemp bool
}

var profiles = map[string]Profile{
	ProfileMinimal: {
		Name:        ProfileMinimal,
		Description: "system binaries only; no access to the working directory",
	},
	ProfileReadOnly: {
		Name:        ProfileReadOnly,
		Description: "read the working directory; no writes",
		ReadWorkdir: true,
	},
	ProfileDevelopment: {
		Name:         ProfileDevelopment,
		Description:  "read and write the working directory and a temp directory",
		ReadWorkdir:  true,
		WriteWorkdir: true,
		WriteTemp:    true,
	},
}

// LookupProfile returns the built-in profile with the given name.
func LookupProfile(name string) (Profile, error) {
	p, ok := profiles[strings.TrimSpace(name)]
	if !ok {
		return Profile{}, fmt.Errorf("%w %q (valid: %s)", ErrUnknownProfile, name, strings.Join(ProfileNames(), ", "))
	}
	return p, nil
}

// ProfileNames returns the built-in profile names, sorted.
func ProfileNames() []string {
	names := make([]string, 0, len(profiles))
	for n := range profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Profiles returns the built-in profiles sorted by name.
func Profiles() []Profile {
	out := make([]Profile, 0, len(profiles))
	for _, n := range ProfileNames() {
		out = append(out, profiles[n])
	}
	return out
}

// Network access is never granted by a built-in profile.
const seatbeltBase = `(version 1)
(deny default)
(allow process-exec)
(allow process-fork)
(allow signal (target same-sandbox))
(allow sysctl-read)
(allow mach-lookup)
(allow file-read-metadata)
(allow file-read*
  (subpath "/usr")
  (subpath "/bin")
  (subpath "/sbin")
  (subpath "/System")
  (subpath "/Library")
  (subpath "/private/etc")
  (subpath "/private/var/db/timezone")
  (subpath "/opt/homebrew")
  (literal "/dev/null")
  (literal "/dev/random")
  (literal "/dev/urandom")
  (literal "/dev/tty"))
(allow file-write* (literal "/dev/null"))
`

// SeatbeltPolicy renders the sandbox-exec policy for p. The working and
// temp directories are referenced as the WORKDIR and TMPDIR parameters.
func (p Profile) SeatbeltPolicy() string {
	var b strings.Builder
	b.WriteString(seatbeltBase)
	if p.ReadWorkdir {
		b.WriteString("(allow file-read* (subpath (param \"WORKDIR\")))\n")
	}
	if p.WriteWorkdir {
		b.WriteString("(allow file-write* (subpath (param \"WORKDIR\")))\n")
	}
	if p.WriteTemp {
		b.WriteString("(allow file-read* file-write* (subpath (param \"TMPDIR\")))\n")
	}
	return b.String()
}

// bwrapArgs returns the bubblewrap arguments for p, ending with "--" so the
// shell argv can follow. tmp is the host directory exported as TMPDIR; it is
// bound over the fresh /tmp when the profile may write temp files.
func (p Profile) bwrapArgs(workdir, tmp string) []string {
	args := []string{
		"--unshare-all",
		"--die-with-parent",
		"--ro-bind", "/usr", "/usr",
		"--ro-bind-try", "/bin", "/bin",
		"--ro-bind-try", "/sbin", "/sbin",
		"--ro-bind-try", "/lib", "/lib",
		"--ro-bind-try", "/lib64", "/lib64",
		"--ro-bind-try", "/etc", "/etc",
		"--proc", "/proc",
		"--dev", "/dev",
		"--tmpfs", "/tmp",
	}
	switch {
	case p.WriteWorkdir:
		args = append(args, "--bind", workdir, workdir, "--chdir", workdir)
	case p.ReadWorkdir:
		args = append(args, "--ro-bind", workdir, workdir, "--chdir", workdir)
	default:
		args = append(args, "--chdir", "/")
	}
	switch {
	case !p.WriteTemp:
		args = append(args, "--remount-ro", "/tmp")
	case tmp != "":
		args = append(args, "--bind", tmp, tmp)
	}
	return append(args, "--")
}
