package schemas

import "fmt"

// -- Source Span Schemas --
//
// Positions address source text by line and column. Rows are 1-based line
// numbers; columns are 0-based byte offsets within the line, with span ends
// exclusive in the column sense (a span from column 4 to column 8 covers the
// bytes at offsets 4..7). Producers that report 1-based columns (Ruff) are
// normalized at their parser boundary, never downstream.

// Position identifies a single point in a source file.
type Position struct {
	Row int `json:"row"`    // 1-based line number.
	Col int `json:"column"` // 0-based byte offset within the line.
}

// Before reports whether p sorts strictly before q in row-major order.
func (p Position) Before(q Position) bool {
	if p.Row != q.Row {
		return p.Row < q.Row
	}
	return p.Col < q.Col
}

// LineIndex converts the 1-based row to a 0-based index into a line slice.
func (p Position) LineIndex() int {
	return p.Row - 1
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Row, p.Col)
}

// Span is a contiguous region of text between two positions, inclusive of
// Start and exclusive only in the column sense expressed by the producing
// tool. A span with Start == End is a pure insertion point.
type Span struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// NewSpan constructs a span and normalizes inverted bounds so that
// Start <= End always holds.
func NewSpan(start, end Position) Span {
	if end.Before(start) {
		start, end = end, start
	}
	return Span{Start: start, End: end}
}

// IsInsertion reports whether the span is zero length.
func (s Span) IsInsertion() bool {
	return s.Start == s.End
}

// ContainsRow reports whether the 1-based row falls inside the span's rows.
func (s Span) ContainsRow(row int) bool {
	return row >= s.Start.Row && row <= s.End.Row
}

// Overlaps reports whether two spans share any region of text. Touching at a
// single point (one span ending exactly where the other begins) does not
// count as overlap; insertions at the same point do.
func (s Span) Overlaps(o Span) bool {
	if s.IsInsertion() && o.IsInsertion() {
		return s.Start == o.Start
	}
	if s.End.Before(o.Start) || s.End == o.Start {
		return false
	}
	if o.End.Before(s.Start) || o.End == s.Start {
		return false
	}
	return true
}

func (s Span) String() string {
	return fmt.Sprintf("(%s)-(%s)", s.Start, s.End)
}

// TextEdit replaces the text covered by Span with Content. Empty content is
// a deletion; content may contain newlines and change the line count.
type TextEdit struct {
	Span    Span   `json:"span"`
	Content string `json:"content"`
}

// FixApplicability mirrors the applicability tag linters attach to their
// deterministic fixes.
type FixApplicability string

const (
	FixSafe    FixApplicability = "safe"
	FixUnsafe  FixApplicability = "unsafe"
	FixUnknown FixApplicability = "unknown"
)

// ParseApplicability maps a tool-reported applicability string onto the
// known values, defaulting to FixUnknown.
func ParseApplicability(raw string) FixApplicability {
	switch FixApplicability(raw) {
	case FixSafe, FixUnsafe:
		return FixApplicability(raw)
	default:
		return FixUnknown
	}
}

// Fix is a deterministic patch suggestion attached to a signal, e.g. Ruff's
// JSON `fix.edits[]`. Tools that cannot provide deterministic edits leave the
// signal's Fix nil and defer to the generation path.
type Fix struct {
	Applicability FixApplicability `json:"applicability"`
	Message       string           `json:"message,omitempty"`
	Edits         []TextEdit       `json:"edits"`
}

// -- Unified Diff Schemas --

// DiffHunk is one contiguous block of changes from a unified diff. Line
// numbers are 1-based; OldLines and NewLines hold the raw line text with the
// leading diff marker stripped (context lines appear in both).
type DiffHunk struct {
	OldStart int      `json:"old_start"`
	OldCount int      `json:"old_count"`
	NewStart int      `json:"new_start"`
	NewCount int      `json:"new_count"`
	OldLines []string `json:"old_lines"`
	NewLines []string `json:"new_lines"`
}

// FileDiff collects all hunks a unified diff declares for a single file.
type FileDiff struct {
	FilePath string     `json:"file_path"`
	Hunks    []DiffHunk `json:"hunks"`
}
