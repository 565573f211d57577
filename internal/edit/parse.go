// Package edit parses search/replace blocks out of model responses and
// applies them to files the model has been shown.
//
// Block format:
//
//	path/to/file.go
//	<<<<<<< SEARCH
//	exact text to find
//	=======
//	replacement text
//	>>>>>>> REPLACE
//
// Marker lines may carry trailing whitespace. Search and replacement text
// are taken byte for byte, lines joined with "\n".
package edit

import (
	"fmt"
	"strings"
)

const (
	markerSearch    = "<<<<<<< SEARCH"
	markerSeparator = "======="
	markerReplace   = ">>>>>>> REPLACE"
)

// Block is one proposed search/replace edit.
type Block struct {
	Path       string
	Search     string
	Replace    string
	ResponseID string
	Line       int // 1-based line of the path line in the response
	EndLine    int // 1-based line of the REPLACE marker
}

// ParseError describes a block that was dropped.
type ParseError struct {
	Line   int
	Path   string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("edit block for %s at line %d: %s", e.Path, e.Line, e.Reason)
	}
	return fmt.Sprintf("edit block at line %d: %s", e.Line, e.Reason)
}

// Contains reports whether text has anything that looks like an edit block.
func Contains(text string) bool {
	return strings.Contains(text, markerSearch)
}

// Parse extracts every well-formed block from text. Malformed blocks are
// dropped and reported; well-formed blocks before and after them are kept.
func Parse(responseID, text string) ([]Block, []*ParseError) {
	lines := strings.Split(text, "\n")
	var (
		blocks []Block
		errs   []*ParseError
	)

	for i := 0; i < len(lines); i++ {
		if !isMarker(lines[i], markerSearch) {
			continue
		}

		path := ""
		if i > 0 && !isAnyMarker(lines[i-1]) {
			path = cleanPath(lines[i-1])
		}
		startLine := i // 1-based number of the path line
		if path == "" {
			errs = append(errs, &ParseError{Line: i + 1, Reason: "missing file path before " + markerSearch})
			continue
		}

		search, next, perr := collect(lines, i+1, markerSeparator)
		if perr != "" {
			errs = append(errs, &ParseError{Line: startLine, Path: path, Reason: perr})
			i = next - 1
			continue
		}
		replace, next, perr := collect(lines, next, markerReplace)
		if perr != "" {
			errs = append(errs, &ParseError{Line: startLine, Path: path, Reason: perr})
			i = next - 1
			continue
		}

		blocks = append(blocks, Block{
			Path:       path,
			Search:     search,
			Replace:    replace,
			ResponseID: responseID,
			Line:       startLine,
			EndLine:    next,
		})
		i = next - 1
	}
	return blocks, errs
}

// collect gathers lines from start up to the terminator marker. It returns
// the joined content, the index just past the terminator, and a reason when
// the section is not properly terminated. On failure the returned index is
// where scanning should resume.
func collect(lines []string, start int, terminator string) (string, int, string) {
	for j := start; j < len(lines); j++ {
		line := lines[j]
		switch {
		case isMarker(line, terminator):
			return strings.Join(lines[start:j], "\n"), j + 1, ""
		case isMarker(line, markerSearch):
			// A new block starts before this one ended. Resume at its path line.
			return "", max(j-1, start), "unterminated block: missing " + terminator
		case terminator == markerSeparator && isMarker(line, markerReplace):
			return "", j + 1, "malformed block: missing separator " + markerSeparator
		}
	}
	return "", len(lines), "unterminated block: missing " + terminator
}

func isMarker(line, marker string) bool {
	return strings.TrimRight(line, " \t\r") == marker
}

func isAnyMarker(line string) bool {
	return isMarker(line, markerSearch) || isMarker(line, markerSeparator) || isMarker(line, markerReplace)
}

// cleanPath extracts a file path from the line preceding a block. Models
// sometimes wrap it in backticks or bold markers.
func cleanPath(line string) string {
	p := strings.TrimSuffix(strings.TrimSpace(line), ":")
	p = strings.Trim(p, "`*")
	p = strings.TrimSuffix(p, ":")
	return strings.TrimSpace(p)
}
