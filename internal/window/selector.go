// Package window chooses and extracts the slice of source code an agent
// needs to see around a diagnostic. Strategy selection is a pure table
// lookup; extraction scans indentation rather than parsing, with a
// parser-backed implementation available behind the same interface.
package window

// StrategyKind names the shape of context to extract around a span.
type StrategyKind string

const (
	StrategyFixedLines  StrategyKind = "fixed_lines"
	StrategyFunction    StrategyKind = "enclosing_function"
	StrategyClass       StrategyKind = "enclosing_class"
	StrategyImports     StrategyKind = "enclosing_import_block"
	StrategyTryExcept   StrategyKind = "enclosing_try_except"
)

// Strategy pairs a kind with its line radius. Lines is only meaningful for
// StrategyFixedLines.
type Strategy struct {
	Kind  StrategyKind
	Lines int
}

func fixedLines(n int) Strategy { return Strategy{Kind: StrategyFixedLines, Lines: n} }

// ruleStrategies maps tool rule codes to extraction strategies. Import and
// block-level rules get structural windows; everything else gets a symmetric
// line window sized by how local the fix usually is.
var ruleStrategies = map[string]Strategy{
	// Import hygiene needs the whole import block.
	"F401": {Kind: StrategyImports},
	"I001": {Kind: StrategyImports},
	"E402": {Kind: StrategyImports},

	// Bare except needs the whole try/except construct.
	"E722": {Kind: StrategyTryExcept},

	// Function-scoped dataflow and type errors.
	"F823":         {Kind: StrategyFunction},
	"union-attr":   {Kind: StrategyFunction},
	"return-value": {Kind: StrategyFunction},

	// Missing docstrings need the full signature in view.
	"D101": {Kind: StrategyClass},
	"D102": {Kind: StrategyFunction},
	"D103": {Kind: StrategyFunction},

	// Trivial single-line fixes.
	"F541": fixedLines(1),
	"F901": fixedLines(1),
	"E711": fixedLines(1),
	"E712": fixedLines(1),
	"E721": fixedLines(1),
	"B007": fixedLines(1),
	"B011": fixedLines(1),
	"B016": fixedLines(1),

	// Small surrounding context.
	"F601": fixedLines(3),
	"F841": fixedLines(3),
	"E731": fixedLines(3),
	"B006": fixedLines(3),
	"B015": fixedLines(3),

	// Moderate context.
	"F811":         fixedLines(5),
	"F821":         fixedLines(5),
	"B002":         fixedLines(5),
	"assignment":   fixedLines(5),
	"index":        fixedLines(5),
	"operator":     fixedLines(5),
	"name-defined": fixedLines(5),

	// Call-site mismatches need a broader view.
	"arg-type":     fixedLines(7),
	"call-arg":     fixedLines(7),
	"attr-defined": fixedLines(7),
}

// skipRules are diagnostics not worth attempting: override needs cross-file
// parent lookup, E999 means the file does not parse at all.
var skipRules = map[string]bool{
	"override": true,
	"E999":     true,
}

// Selector resolves rule codes to extraction strategies. It holds only the
// configured default width and performs no I/O, so identical inputs always
// yield identical strategies.
type Selector struct {
	defaultWidth int
}

func NewSelector(defaultWidth int) *Selector {
	if defaultWidth <= 0 {
		defaultWidth = 7
	}
	return &Selector{defaultWidth: defaultWidth}
}

// Select returns the strategy for a diagnostic. The message is part of the
// lookup contract for future message-sensitive rules; the current table
// keys on rule code alone.
func (s *Selector) Select(ruleCode, message string) Strategy {
	if st, ok := ruleStrategies[ruleCode]; ok {
		return st
	}
	return fixedLines(s.defaultWidth)
}

// ShouldSkip reports whether a diagnostic should not be attempted at all.
func (s *Selector) ShouldSkip(ruleCode string) bool {
	return skipRules[ruleCode]
}
