package sandbox

import (
	"os"
	"path/filepath"
	"sort"
)

const fallbackPath = "/usr/local/bin:/usr/bin:/bin"

// passthroughEnv are host variables a sandboxed command may see. Anything
// else, including credentials and tokens, is dropped.
var passthroughEnv = []string{
	"PATH",
	"USER",
	"LOGNAME",
	"LANG",
	"LC_ALL",
	"TERM",
	"GOPATH",
	"GOROOT",
	"GOCACHE",
	"GOMODCACHE",
	"GOPROXY",
	"GOFLAGS",
	"CARGO_HOME",
	"RUSTUP_HOME",
	"VIRTUAL_ENV",
}

// safeEnv builds the environment for a sandboxed process.
func safeEnv(workdir, tmp string, writeTemp bool) []string {
	vars := map[string]string{
		"PWD":   workdir,
		"SHELL": DefaultShell,
	}
	for _, k := range passthroughEnv {
		if v := os.Getenv(k); v != "" {
			vars[k] = v
		}
	}
	if vars["PATH"] == "" {
		vars["PATH"] = fallbackPath
	}
	if home, err := os.UserHomeDir(); err == nil {
		vars["HOME"] = home
	}
	if writeTemp {
		vars["TMPDIR"] = tmp
	} else {
		vars["TMPDIR"] = filepath.Clean(os.TempDir())
	}

	env := make([]string, 0, len(vars))
	for k, v := range vars {
		env = append(env, k+"="+v)
	}
	sort.Strings(env)
	return env
}
