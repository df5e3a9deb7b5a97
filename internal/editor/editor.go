// Package editor applies positional text edits to source content. Edits are
// applied bottom-up so earlier splices never invalidate the coordinates of
// later ones, and a batch is rejected as a whole when any two edits overlap
// or any span falls outside the content.
package editor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/davidjmoloney/cicd-ai-assistant/api/schemas"
)

// OverlappingEditError rejects a batch containing two edits whose spans
// share text. No edit from the batch is applied.
type OverlappingEditError struct {
	A schemas.Span
	B schemas.Span
}

func (e *OverlappingEditError) Error() string {
	return fmt.Sprintf("overlapping edits %s and %s", e.A, e.B)
}

// OutOfBoundsSpanError rejects a batch containing a span whose rows do not
// exist in the target content.
type OutOfBoundsSpanError struct {
	Span      schemas.Span
	LineCount int
}

func (e *OutOfBoundsSpanError) Error() string {
	return fmt.Sprintf("span %s out of bounds for %d-line content", e.Span, e.LineCount)
}

// Apply rewrites lines according to the batch of edits and returns the new
// line slice. Lines keep their terminators; an edit's content may add or
// remove lines. The input slice is never mutated: on any error the caller's
// content is untouched.
func Apply(lines []string, edits []schemas.TextEdit) ([]string, error) {
	if len(edits) == 0 {
		out := make([]string, len(lines))
		copy(out, lines)
		return out, nil
	}

	for _, e := range edits {
		if !inBounds(e.Span, len(lines)) {
			return nil, &OutOfBoundsSpanError{Span: e.Span, LineCount: len(lines)}
		}
	}
	if a, b, ok := findOverlap(edits); ok {
		return nil, &OverlappingEditError{A: a, B: b}
	}

	ordered := make([]schemas.TextEdit, len(edits))
	copy(ordered, edits)
	// Bottom-up: later spans first.
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[j].Span.Start.Before(ordered[i].Span.Start)
	})

	out := make([]string, len(lines))
	copy(out, lines)
	for _, e := range ordered {
		out = splice(out, e)
	}
	return out, nil
}

// ApplyToContent is Apply over a raw string, splitting and rejoining with
// terminators preserved.
func ApplyToContent(content string, edits []schemas.TextEdit) (string, error) {
	applied, err := Apply(SplitLines(content), edits)
	if err != nil {
		return "", err
	}
	return strings.Join(applied, ""), nil
}

// SplitLines splits content into lines that keep their trailing terminator.
// Empty content yields no lines; a final line without a terminator is kept
// as-is.
func SplitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.SplitAfter(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// inBounds accepts spans whose rows exist in the content, plus the one
// append case: a zero-length span at the row just past the last line.
func inBounds(s schemas.Span, lineCount int) bool {
	if s.Start.Row < 1 {
		return false
	}
	if s.IsInsertion() && s.Start.Row == lineCount+1 && s.Start.Col == 0 {
		return true
	}
	return s.End.Row <= lineCount
}

func findOverlap(edits []schemas.TextEdit) (schemas.Span, schemas.Span, bool) {
	sorted := make([]schemas.TextEdit, len(edits))
	copy(sorted, edits)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Span.Start.Before(sorted[j].Span.Start)
	})
	// Track the span reaching furthest so far; adjacency alone misses a
	// long span swallowing several later ones.
	furthest := sorted[0].Span
	for i := 1; i < len(sorted); i++ {
		if furthest.Overlaps(sorted[i].Span) {
			return furthest, sorted[i].Span, true
		}
		if furthest.End.Before(sorted[i].Span.End) {
			furthest = sorted[i].Span
		}
	}
	return schemas.Span{}, schemas.Span{}, false
}

// splice replaces the text between the edit's span bounds. The prefix of the
// start line and the suffix of the end line survive; the concatenation is
// re-split so the replacement may change the line count. An end column past
// the end line's text consumes its terminator, which is how whole-line
// deletions remove rows entirely.
func splice(lines []string, e schemas.TextEdit) []string {
	startIdx := e.Span.Start.LineIndex()
	endIdx := e.Span.End.LineIndex()

	var startLine, endLine string
	if startIdx < len(lines) {
		startLine = lines[startIdx]
	}
	if endIdx < len(lines) {
		endLine = lines[endIdx]
	}

	prefix := startLine[:clamp(e.Span.Start.Col, len(startLine))]
	suffix := endLine[clamp(e.Span.End.Col, len(endLine)):]

	replacement := SplitLines(prefix + e.Content + suffix)

	tail := endIdx + 1
	if tail > len(lines) {
		tail = len(lines)
	}
	out := make([]string, 0, startIdx+len(replacement)+len(lines)-tail)
	out = append(out, lines[:startIdx]...)
	out = append(out, replacement...)
	out = append(out, lines[tail:]...)
	return out
}

func clamp(col, max int) int {
	if col < 0 {
		return 0
	}
	if col > max {
		return max
	}
	return col
}
