// Package pathutil resolves the paths kota is handed: config entries,
// context paths typed by the operator and paths named in edit blocks.
package pathutil

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandHome expands "~" and a leading "~/". Other forms, including
// "~user", are returned as is, and so is path when there is no home
// directory.
func ExpandHome(path string) string {
	rest, ok := strings.CutPrefix(path, "~")
	if !ok || (rest != "" && rest[0] != '/') {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}

// Resolve returns path as an absolute, cleaned path. Relative paths are
// taken relative to root; a leading ~ is expanded first.
func Resolve(root, path string) string {
	path = ExpandHome(path)
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	return filepath.Clean(path)
}

// Within reports whether path is root itself or lies beneath it.
// Both arguments must be absolute and cleaned.
func Within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
