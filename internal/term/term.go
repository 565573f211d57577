// Package term provides user-facing terminal output for the kota CLI.
// This is distinct from operational logging (see internal/clog).
//
// Everything the operator needs to audit goes through here: per-file
// context confirmations, proposed diffs, policy verdicts and command
// output. Print-style output is suppressed with --silent; warnings and
// errors never are.
package term

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// ruleWidth is the width of horizontal separators.
const ruleWidth = 60

// printer is the package's single output state.
type printer struct {
	mu     sync.Mutex
	stdout io.Writer
	stderr io.Writer
	silent bool
}

var p = &printer{stdout: os.Stdout, stderr: os.Stderr}

func orDefault(w, def io.Writer) io.Writer {
	if w == nil {
		return def
	}
	return w
}

// SetSilent turns print-style output off or back on.
func SetSilent(s bool) {
	p.mu.Lock()
	p.silent = s
	p.mu.Unlock()
}

// SetOutput redirects print-style output. nil restores os.Stdout.
func SetOutput(w io.Writer) {
	p.mu.Lock()
	p.stdout = orDefault(w, os.Stdout)
	p.mu.Unlock()
}

// SetErrOutput redirects warnings and errors. nil restores os.Stderr.
func SetErrOutput(w io.Writer) {
	p.mu.Lock()
	p.stderr = orDefault(w, os.Stderr)
	p.mu.Unlock()
}

func (p *printer) print(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.silent {
		_, _ = io.WriteString(p.stdout, s)
	}
}

func (p *printer) report(prefix, s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = io.WriteString(p.stderr, prefix+s+"\n")
}

func Printf(format string, a ...any) { p.print(fmt.Sprintf(format, a...)) }

func Println(a ...any) { p.print(fmt.Sprintln(a...)) }

// Ack prints a success line, such as a per-file context confirmation.
func Ack(format string, a ...any) { p.print("✓ " + fmt.Sprintf(format, a...) + "\n") }

// Fail prints a failure line for one action. The session carries on.
func Fail(format string, a ...any) { p.print("✗ " + fmt.Sprintf(format, a...) + "\n") }

// Rule prints a horizontal separator, titled when title is non-empty.
func Rule(title string) {
	if title == "" {
		p.print(strings.Repeat("─", ruleWidth) + "\n")
		return
	}
	p.print("── " + title + " " + strings.Repeat("─", max(ruleWidth-len(title)-4, 0)) + "\n")
}

// Block prints text indented by two spaces so diffs and command output
// stand apart from kota's own lines.
func Block(text string) {
	if text == "" {
		return
	}
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	p.print("  " + strings.Join(lines, "\n  ") + "\n")
}

// Warn and Error go to stderr and ignore silent mode.
func Warn(format string, a ...any) { p.report("Warning: ", fmt.Sprintf(format, a...)) }

func Error(format string, a ...any) { p.report("Error: ", fmt.Sprintf(format, a...)) }

// Stdout returns the writer print-style output goes to, io.Discard when
// silent. Tables and streamed output write to it directly.
func Stdout() io.Writer {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.silent {
		return io.Discard
	}
	return p.stdout
}

// Reset restores os.Stdout, os.Stderr and non-silent output.
func Reset() {
	p.mu.Lock()
	p.stdout, p.stderr, p.silent = os.Stdout, os.Stderr, false
	p.mu.Unlock()
}

// Discard drops all output, warnings included.
func Discard() {
	p.mu.Lock()
	p.stdout, p.stderr = io.Discard, io.Discard
	p.mu.Unlock()
}
