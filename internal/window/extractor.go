package window

import (
	"strings"

	"github.com/davidjmoloney/cicd-ai-assistant/api/schemas"
)

// Window is the extracted slice of a file, with 1-based inclusive row
// bounds. Fallback marks windows where a structural strategy could not
// locate or verify an enclosing block and the default line window was used
// instead.
type Window struct {
	StartRow int
	EndRow   int
	Text     string
	Strategy StrategyKind
	Fallback bool
}

// Extractor produces a context window for a strategy, the file's lines
// (terminators preserved), and the diagnostic's span.
type Extractor interface {
	Extract(strategy Strategy, lines []string, target schemas.Span) Window
}

// HeuristicExtractor locates blocks by scanning indentation. It never
// parses the source; when a scan cannot find a block containing the target
// row it falls back to a fixed line window.
type HeuristicExtractor struct {
	defaultLines int
}

func NewHeuristicExtractor(defaultLines int) *HeuristicExtractor {
	if defaultLines <= 0 {
		defaultLines = 7
	}
	return &HeuristicExtractor{defaultLines: defaultLines}
}

func (x *HeuristicExtractor) Extract(strategy Strategy, lines []string, target schemas.Span) Window {
	switch strategy.Kind {
	case StrategyFixedLines:
		n := strategy.Lines
		if n <= 0 {
			n = x.defaultLines
		}
		return x.fixedWindow(lines, target, n, StrategyFixedLines, false)
	case StrategyFunction:
		return x.blockWindow(lines, target, StrategyFunction, isDefLine)
	case StrategyClass:
		return x.blockWindow(lines, target, StrategyClass, isClassLine)
	case StrategyImports:
		return x.importWindow(lines, target)
	case StrategyTryExcept:
		return x.tryExceptWindow(lines, target)
	default:
		return x.fixedWindow(lines, target, x.defaultLines, StrategyFixedLines, false)
	}
}

func (x *HeuristicExtractor) fixedWindow(lines []string, target schemas.Span, n int, kind StrategyKind, fallback bool) Window {
	total := len(lines)
	start := target.Start.Row - n
	if start < 1 {
		start = 1
	}
	end := target.End.Row + n
	if end > total {
		end = total
	}
	if total == 0 || start > end {
		return Window{StartRow: 0, EndRow: 0, Strategy: kind, Fallback: fallback}
	}
	return Window{
		StartRow: start,
		EndRow:   end,
		Text:     strings.Join(lines[start-1:end], ""),
		Strategy: kind,
		Fallback: fallback,
	}
}

// fallbackWindow is the default line window flagged as a boundary fallback.
func (x *HeuristicExtractor) fallbackWindow(lines []string, target schemas.Span, kind StrategyKind) Window {
	return x.fixedWindow(lines, target, x.defaultLines, kind, true)
}

// blockWindow walks upward from the target to the nearest block opener
// whose indentation does not exceed the minimum indentation seen on the way
// up, then extends downward across the block's more-indented body.
func (x *HeuristicExtractor) blockWindow(lines []string, target schemas.Span, kind StrategyKind, opens func(string) bool) Window {
	row := target.Start.Row
	if row < 1 || row > len(lines) {
		return x.fallbackWindow(lines, target, kind)
	}

	openRow, baseIndent := -1, -1
	minIndent := -1
	for r := row; r >= 1; r-- {
		stripped := strings.TrimLeft(lines[r-1], " \t")
		if isBlankOrComment(stripped) {
			continue
		}
		indent := indentOf(lines[r-1])
		if opens(stripped) && (minIndent < 0 || indent <= minIndent) {
			openRow, baseIndent = r, indent
			break
		}
		if minIndent < 0 || indent < minIndent {
			minIndent = indent
		}
	}
	if openRow < 0 {
		return x.fallbackWindow(lines, target, kind)
	}

	endRow := scanBody(lines, openRow, baseIndent, nil)

	w := Window{
		StartRow: openRow,
		EndRow:   endRow,
		Text:     strings.Join(lines[openRow-1:endRow], ""),
		Strategy: kind,
	}
	if !containsTarget(w, target) {
		return x.fallbackWindow(lines, target, kind)
	}
	return w
}

// importWindow grows an import block from the target row in both directions.
// Blank and comment lines may sit inside the block but never extend its
// bounds, so a block always starts and ends on an import line.
func (x *HeuristicExtractor) importWindow(lines []string, target schemas.Span) Window {
	row := target.Start.Row
	if row < 1 || row > len(lines) {
		return x.fallbackWindow(lines, target, StrategyImports)
	}

	startRow, endRow := 0, 0
	for r := row; r >= 1; r-- {
		stripped := strings.TrimLeft(lines[r-1], " \t")
		if isImportLine(stripped) {
			startRow = r
			continue
		}
		if isBlankOrComment(stripped) {
			continue
		}
		break
	}
	for r := row; r <= len(lines); r++ {
		stripped := strings.TrimLeft(lines[r-1], " \t")
		if isImportLine(stripped) {
			endRow = r
			continue
		}
		if isBlankOrComment(stripped) {
			continue
		}
		break
	}

	if startRow == 0 || endRow == 0 {
		return x.fallbackWindow(lines, target, StrategyImports)
	}

	w := Window{
		StartRow: startRow,
		EndRow:   endRow,
		Text:     strings.Join(lines[startRow-1:endRow], ""),
		Strategy: StrategyImports,
	}
	if !containsTarget(w, target) {
		return x.fallbackWindow(lines, target, StrategyImports)
	}
	return w
}

// tryExceptWindow finds the nearest try opener above the target and extends
// through its body plus any except/else/finally clauses at the same
// indentation.
func (x *HeuristicExtractor) tryExceptWindow(lines []string, target schemas.Span) Window {
	row := target.Start.Row
	if row < 1 || row > len(lines) {
		return x.fallbackWindow(lines, target, StrategyTryExcept)
	}

	tryRow, baseIndent := -1, -1
	for r := row; r >= 1; r-- {
		stripped := strings.TrimLeft(lines[r-1], " \t")
		if isTryLine(stripped) {
			tryRow, baseIndent = r, indentOf(lines[r-1])
			break
		}
	}
	if tryRow < 0 {
		return x.fallbackWindow(lines, target, StrategyTryExcept)
	}

	endRow := scanBody(lines, tryRow, baseIndent, isHandlerLine)

	w := Window{
		StartRow: tryRow,
		EndRow:   endRow,
		Text:     strings.Join(lines[tryRow-1:endRow], ""),
		Strategy: StrategyTryExcept,
	}
	if !containsTarget(w, target) {
		return x.fallbackWindow(lines, target, StrategyTryExcept)
	}
	return w
}

// scanBody extends a block downward from its opening row. Lines indented
// deeper than base belong to the block; blank and comment lines are kept
// only when more block lines follow. A non-blank line at or under base
// indentation ends the block unless continues accepts it as a same-level
// continuation clause.
func scanBody(lines []string, openRow, baseIndent int, continues func(string) bool) int {
	endRow := openRow
	for r := openRow + 1; r <= len(lines); r++ {
		stripped := strings.TrimLeft(lines[r-1], " \t")
		if isBlankOrComment(stripped) {
			continue
		}
		indent := indentOf(lines[r-1])
		if indent > baseIndent {
			endRow = r
			continue
		}
		if indent == baseIndent && continues != nil && continues(stripped) {
			endRow = r
			continue
		}
		break
	}
	return endRow
}

func containsTarget(w Window, target schemas.Span) bool {
	return target.Start.Row >= w.StartRow && target.Start.Row <= w.EndRow
}

func indentOf(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

func isBlankOrComment(stripped string) bool {
	trimmed := strings.TrimRight(stripped, " \t\r\n")
	return trimmed == "" || strings.HasPrefix(trimmed, "#")
}

func isDefLine(stripped string) bool {
	return strings.HasPrefix(stripped, "def ") || strings.HasPrefix(stripped, "async def ")
}

func isClassLine(stripped string) bool {
	return strings.HasPrefix(stripped, "class ")
}

func isImportLine(stripped string) bool {
	return strings.HasPrefix(stripped, "import ") || strings.HasPrefix(stripped, "from ")
}

func isTryLine(stripped string) bool {
	return strings.HasPrefix(strings.TrimRight(stripped, " \t\r\n"), "try:")
}

func isHandlerLine(stripped string) bool {
	return strings.HasPrefix(stripped, "except") ||
		strings.HasPrefix(stripped, "else:") ||
		strings.HasPrefix(stripped, "finally")
}
