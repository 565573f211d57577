package command

import (
	"strings"
	"testing"
)

func TestParseBlocks(t *testing.T) {
	text := strings.Join([]string{
		"Run these:",
		"```bash",
		"# list files",
		"ls -la",
		"",
		"go test \\",
		"  ./...",
		"```",
		"and then",
		"```sh",
		"git status",
		"```",
		"```go",
		"fmt.Println(1)",
		"```",
		"```command",
		"/context add main.go",
		"```",
	}, "\n")

	props, errs := ParseBlocks(text)
	if len(errs) != 0 {
		t.Fatalf("ParseBlocks() errs = %v", errs)
	}
	want := []Proposal{
		{Text: "ls -la", Line: 4},
		{Text: "go test ./...", Line: 6},
		{Text: "git status", Line: 11},
		{Text: "/context add main.go", Line: 17},
	}
	if len(props) != len(want) {
		t.Fatalf("props = %+v, want %+v", props, want)
	}
	for i := range want {
		if props[i] != want[i] {
			t.Errorf("props[%d] = %+v, want %+v", i, props[i], want[i])
		}
	}
}

func TestParseBlocks_Unterminated(t *testing.T) {
	text := "```bash\nls\n```\n```shell\nrm -rf /\n"
	props, errs := ParseBlocks(text)
	if len(props) != 1 || props[0].Text != "ls" {
		t.Errorf("props = %+v, want only ls", props)
	}
	if len(errs) != 1 || !strings.Contains(errs[0].Error(), "line 4") {
		t.Errorf("errs = %v, want one error at line 4", errs)
	}
}

func TestContainsBlocks(t *testing.T) {
	if !ContainsBlocks("text\n```sh\necho hello\n```") {
		t.Error("ContainsBlocks() = false")
	}
	if ContainsBlocks("```python\nprint(1)\n```") {
		t.Error("ContainsBlocks(python) = true")
	}
}
