// Package version provides version information for kota.
// The Version variable is set at build time via ldflags.
package version

import "runtime/debug"

// Version is the current version of kota.
// Set at build time via: -ldflags "-X github.com/xdg/kota/internal/version.Version=v1.0.0"
// Defaults to "dev" for development builds.
var Version = "dev"

// Revision returns the VCS revision the binary was built from, or "".
// Supervised rebuilds after self-modification are identified by it.
func Revision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	return revisionOf(info.Settings)
}

func revisionOf(settings []debug.BuildSetting) string {
	rev, dirty := "", false
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if len(rev) > 12 {
		rev = rev[:12]
	}
	if rev != "" && dirty {
		rev += "-dirty"
	}
	return rev
}
