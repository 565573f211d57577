package edit

import (
	"fmt"
	"strings"
)

const diffContext = 3

// Diff is a single-hunk unified diff between two versions of a file.
type Diff struct {
	Text    string
	Added   int
	Removed int
}

// unifiedDiff renders the difference between before and after. A search
// and replace edit changes exactly one contiguous region, so trimming the
// common leading and trailing lines yields the only hunk.
func unifiedDiff(name string, before, after []byte) Diff {
	a := splitLines(string(before))
	b := splitLines(string(after))

	prefix := 0
	for prefix < len(a) && prefix < len(b) && a[prefix] == b[prefix] {
		prefix++
	}
	suffix := 0
	for suffix < len(a)-prefix && suffix < len(b)-prefix && a[len(a)-1-suffix] == b[len(b)-1-suffix] {
		suffix++
	}
	if prefix == len(a) && prefix == len(b) {
		return Diff{}
	}

	start := max(0, prefix-diffContext)
	oldEnd, newEnd := len(a)-suffix, len(b)-suffix
	tail := min(diffContext, suffix)

	oldCount := oldEnd + tail - start
	newCount := newEnd + tail - start

	var sb strings.Builder
	fmt.Fprintf(&sb, "--- a/%s\n+++ b/%s\n", name, name)
	fmt.Fprintf(&sb, "@@ -%s +%s @@\n", hunkRange(start, oldCount), hunkRange(start, newCount))
	for _, l := range a[start:prefix] {
		writeLine(&sb, ' ', l)
	}
	for _, l := range a[prefix:oldEnd] {
		writeLine(&sb, '-', l)
	}
	for _, l := range b[prefix:newEnd] {
		writeLine(&sb, '+', l)
	}
	for _, l := range a[oldEnd : oldEnd+tail] {
		writeLine(&sb, ' ', l)
	}

	return Diff{Text: sb.String(), Added: newEnd - prefix, Removed: oldEnd - prefix}
}

func hunkRange(start, count int) string {
	if count == 0 {
		return fmt.Sprintf("%d,0", start)
	}
	if count == 1 {
		return fmt.Sprintf("%d", start+1)
	}
	return fmt.Sprintf("%d,%d", start+1, count)
}

func writeLine(sb *strings.Builder, op byte, line string) {
	sb.WriteByte(op)
	sb.WriteString(line)
	if !strings.HasSuffix(line, "\n") {
		sb.WriteString("\n\\ No newline at end of file\n")
	}
}

// splitLines splits s after each newline. The last element has no newline
// when s does not end with one.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
