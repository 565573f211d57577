package model

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/xdg/kota/internal/clog"
)

const maxSubjectLen = 72

const commitPrompt = `Write a one-line git commit message (imperative mood, at most 72
characters, no quotes, no trailing period) for this change:

`

// CommitMessager asks the model for commit messages. With no Responder, or
// when the model fails or answers with nothing usable, the caller's
// fallback is used.
type CommitMessager struct {
	Responder Responder
}

// CommitMessage returns a commit subject line for diff.
func (m *CommitMessager) CommitMessage(ctx context.Context, diff, fallback string) string {
	if m == nil || m.Responder == nil {
		return fallback
	}
	resp, err := m.Responder.Respond(ctx, commitPrompt+diff)
	if err != nil {
		clog.Warn("model: commit message: %v; using fallback", err)
		return fallback
	}
	if subject := cleanSubject(resp); subject != "" {
		return subject
	}
	return fallback
}

// cleanSubject takes the first non-empty line of resp, strips wrapping
// quotes and code fences, and bounds its length.
func cleanSubject(resp string) string {
	for _, line := range strings.Split(resp, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "```") {
			continue
		}
		line = strings.Trim(line, "\"'`")
		line = strings.TrimSuffix(strings.TrimSpace(line), ".")
		if line == "" {
			continue
		}
		if utf8.RuneCountInString(line) > maxSubjectLen {
			r := []rune(line)
			line = strings.TrimSpace(string(r[:maxSubjectLen]))
		}
		return line
	}
	return ""
}
