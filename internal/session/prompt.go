package session

import (
	"fmt"
	"strings"
)

const instructions = `You are a coding assistant working in %s.

To change a file that is in the context below, reply with one block per change:

path/to/file
<<<<<<< SEARCH
exact lines currently in the file
=======
replacement lines
>>>>>>> REPLACE

The search text must match the file exactly once. Files that are not in the
context cannot be edited; ask for them with /context add PATH.

To run commands, put one command per line in a fenced block:

` + "```bash" + `
go test ./...
` + "```" + `

Every edit and command is shown to the operator for approval and commands
run in a sandbox. Lines starting with "/" are control verbs:
%s
`

// buildPrompt assembles the text sent to the model: instructions, the
// rendered context, the conversation so far and the new request.
func buildPrompt(workdir, verbs, context string, turns []Turn, request string) string {
	var b strings.Builder
	fmt.Fprintf(&b, instructions, workdir, verbs)
	if context != "" {
		b.WriteString("\n## Context\n\n")
		b.WriteString(context)
	}
	if len(turns) > 0 {
		b.WriteString("\n## Conversation\n\n")
		for _, t := range turns {
			fmt.Fprintf(&b, "Operator: %s\n\nAssistant:\n%s\n\n", t.Request, strings.TrimRight(t.Response, "\n"))
		}
	}
	b.WriteString("\n## Request\n\n")
	b.WriteString(request)
	b.WriteByte('\n')
	return b.String()
}
