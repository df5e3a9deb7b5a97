// Package diffparse parses unified diff output, such as what `ruff format
// --diff` emits, and translates hunks into positional text edits.
package diffparse

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/davidjmoloney/cicd-ai-assistant/api/schemas"
)

// MalformedDiffError reports a diff that violates the unified diff grammar.
// The error is scoped to a single file: the parser discards that file's
// hunks and keeps parsing the remaining files.
type MalformedDiffError struct {
	FilePath string
	Line     int
	Reason   string
}

func (e *MalformedDiffError) Error() string {
	return fmt.Sprintf("malformed diff for %q at line %d: %s", e.FilePath, e.Line, e.Reason)
}

// hunkHeaderRe matches `@@ -old_start[,old_count] +new_start[,new_count] @@`.
// Omitted counts default to 1. Anything after the closing @@ (a section
// heading) is ignored.
var hunkHeaderRe = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

// Parse splits a multi-file unified diff into per-file hunk sets. Files with
// malformed hunks are dropped and reported through the returned error, which
// joins one MalformedDiffError per bad file; well-formed files are always
// returned. Callers that want per-file details use errors.As on the joined
// error's tree.
func Parse(text string) ([]schemas.FileDiff, error) {
	lines := strings.Split(text, "\n")

	var (
		files   []schemas.FileDiff
		current *schemas.FileDiff
		oldPath string
		errs    []error
	)

	flush := func() {
		if current != nil && len(current.Hunks) > 0 {
			files = append(files, *current)
		}
		current = nil
	}

	fail := func(lineNo int, reason string) {
		path := oldPath
		if current != nil {
			path = current.FilePath
		}
		errs = append(errs, &MalformedDiffError{FilePath: path, Line: lineNo, Reason: reason})
		current = nil
		// Skip ahead to the next file header.
	}

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		switch {
		case strings.HasPrefix(line, "--- "):
			flush()
			oldPath = stripPathPrefix(strings.TrimPrefix(line, "--- "))
		case strings.HasPrefix(line, "+++ "):
			flush()
			path := stripPathPrefix(strings.TrimPrefix(line, "+++ "))
			if path == "/dev/null" {
				path = oldPath
			}
			current = &schemas.FileDiff{FilePath: path}
		case strings.HasPrefix(line, "@@"):
			if current == nil {
				continue
			}
			m := hunkHeaderRe.FindStringSubmatch(line)
			if m == nil {
				fail(i+1, fmt.Sprintf("bad hunk header %q", line))
				continue
			}
			hunk := schemas.DiffHunk{
				OldStart: atoi(m[1]),
				OldCount: atoiDefault(m[2], 1),
				NewStart: atoi(m[3]),
				NewCount: atoiDefault(m[4], 1),
			}
			body, next, err := readHunkBody(lines, i+1, hunk.OldCount, hunk.NewCount)
			if err != nil {
				fail(i+1, err.Error())
				continue
			}
			hunk.OldLines = body.old
			hunk.NewLines = body.new
			current.Hunks = append(current.Hunks, hunk)
			i = next - 1
		}
	}
	flush()

	return files, errors.Join(errs...)
}

type hunkBody struct {
	old []string
	new []string
}

// readHunkBody consumes hunk lines starting at index from until the header's
// old and new counts are both satisfied. Context lines land in both slices.
func readHunkBody(lines []string, from, oldCount, newCount int) (hunkBody, int, error) {
	var body hunkBody
	oldLeft, newLeft := oldCount, newCount

	i := from
	for ; oldLeft > 0 || newLeft > 0; i++ {
		if i >= len(lines) {
			return body, i, errors.New("hunk truncated before declared counts were met")
		}
		line := lines[i]
		switch {
		case strings.HasPrefix(line, " "), line == "":
			if oldLeft <= 0 || newLeft <= 0 {
				return body, i, errors.New("context line exceeds declared counts")
			}
			body.old = append(body.old, line[min(1, len(line)):])
			body.new = append(body.new, line[min(1, len(line)):])
			oldLeft--
			newLeft--
		case strings.HasPrefix(line, "-"):
			if oldLeft <= 0 {
				return body, i, errors.New("deletion line exceeds declared old count")
			}
			body.old = append(body.old, line[1:])
			oldLeft--
		case strings.HasPrefix(line, "+"):
			if newLeft <= 0 {
				return body, i, errors.New("addition line exceeds declared new count")
			}
			body.new = append(body.new, line[1:])
			newLeft--
		case strings.HasPrefix(line, `\`):
			// "\ No newline at end of file" markers carry no content.
		default:
			return body, i, fmt.Errorf("unexpected line %q inside hunk", line)
		}
	}
	return body, i, nil
}

// HunkEdit translates a single hunk into the text edit that rewrites the
// hunk's old rows. The span covers rows [OldStart, OldStart+OldCount-1] at
// full line width; a hunk with OldCount == 0 becomes a zero-length insertion
// and a hunk with NewCount == 0 becomes a pure deletion whose span reaches
// past the final line's text so the rows are removed outright.
func HunkEdit(h schemas.DiffHunk) schemas.TextEdit {
	if h.OldCount == 0 {
		at := schemas.Position{Row: h.OldStart, Col: 0}
		content := ""
		if len(h.NewLines) > 0 {
			content = strings.Join(h.NewLines, "\n") + "\n"
		}
		return schemas.TextEdit{Span: schemas.NewSpan(at, at), Content: content}
	}

	lastRow := h.OldStart + h.OldCount - 1
	lastLen := 0
	if len(h.OldLines) > 0 {
		lastLen = len(h.OldLines[len(h.OldLines)-1])
	}

	if h.NewCount == 0 {
		return schemas.TextEdit{
			Span: schemas.NewSpan(
				schemas.Position{Row: h.OldStart, Col: 0},
				schemas.Position{Row: lastRow, Col: lastLen + 1},
			),
		}
	}

	return schemas.TextEdit{
		Span: schemas.NewSpan(
			schemas.Position{Row: h.OldStart, Col: 0},
			schemas.Position{Row: lastRow, Col: lastLen},
		),
		Content: strings.Join(h.NewLines, "\n"),
	}
}

// FileEdits translates every hunk of a file diff, in declared order.
func FileEdits(fd schemas.FileDiff) []schemas.TextEdit {
	edits := make([]schemas.TextEdit, 0, len(fd.Hunks))
	for _, h := range fd.Hunks {
		edits = append(edits, HunkEdit(h))
	}
	return edits
}

// stripPathPrefix removes the conventional a/ and b/ prefixes and any
// trailing timestamp some tools append after a tab.
func stripPathPrefix(p string) string {
	if tab := strings.IndexByte(p, '\t'); tab >= 0 {
		p = p[:tab]
	}
	p = strings.TrimSuffix(p, "\r")
	if strings.HasPrefix(p, "a/") || strings.HasPrefix(p, "b/") {
		return p[2:]
	}
	return p
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	return atoi(s)
}
