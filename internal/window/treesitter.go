package window

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/davidjmoloney/cicd-ai-assistant/api/schemas"
)

// TreeSitterExtractor is the parser-backed Extractor. It resolves enclosing
// blocks from the syntax tree instead of indentation, which survives
// decorators, multi-line signatures and nested defs that confuse the
// heuristic scan. Fixed line windows and all fallbacks are delegated to the
// heuristic implementation so the two extractors stay interchangeable.
type TreeSitterExtractor struct {
	heuristic *HeuristicExtractor
	lang      *sitter.Language
}

func NewTreeSitterExtractor(defaultLines int) *TreeSitterExtractor {
	return &TreeSitterExtractor{
		heuristic: NewHeuristicExtractor(defaultLines),
		lang:      python.GetLanguage(),
	}
}

func (x *TreeSitterExtractor) Extract(strategy Strategy, lines []string, target schemas.Span) Window {
	switch strategy.Kind {
	case StrategyFunction, StrategyClass, StrategyImports, StrategyTryExcept:
	default:
		return x.heuristic.Extract(strategy, lines, target)
	}

	src := []byte(strings.Join(lines, ""))
	parser := sitter.NewParser()
	parser.SetLanguage(x.lang)
	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return x.heuristic.Extract(strategy, lines, target)
	}
	defer tree.Close()

	node := nodeAt(tree.RootNode(), target)
	if node == nil {
		return x.heuristic.Extract(strategy, lines, target)
	}

	block := enclosing(node, strategy.Kind)
	if block == nil {
		return x.heuristic.Extract(strategy, lines, target)
	}

	startRow := int(block.StartPoint().Row) + 1
	endRow := int(block.EndPoint().Row) + 1
	if strategy.Kind == StrategyImports {
		startRow, endRow = expandImports(block, startRow, endRow)
	}
	if endRow > len(lines) {
		endRow = len(lines)
	}

	w := Window{
		StartRow: startRow,
		EndRow:   endRow,
		Text:     strings.Join(lines[startRow-1:endRow], ""),
		Strategy: strategy.Kind,
	}
	if !containsTarget(w, target) {
		return x.heuristic.fallbackWindow(lines, target, strategy.Kind)
	}
	return w
}

func nodeAt(root *sitter.Node, target schemas.Span) *sitter.Node {
	point := sitter.Point{
		Row:    uint32(target.Start.Row - 1),
		Column: uint32(target.Start.Col),
	}
	return root.NamedDescendantForPointRange(point, point)
}

// enclosing walks to the nearest ancestor matching the strategy's node kind.
func enclosing(node *sitter.Node, kind StrategyKind) *sitter.Node {
	for n := node; n != nil; n = n.Parent() {
		switch kind {
		case StrategyFunction:
			if n.Type() == "function_definition" {
				return n
			}
		case StrategyClass:
			if n.Type() == "class_definition" {
				return n
			}
		case StrategyTryExcept:
			if n.Type() == "try_statement" {
				return n
			}
		case StrategyImports:
			if isImportNode(n) {
				return n
			}
		}
	}
	return nil
}

// expandImports widens a single import statement to the contiguous run of
// import statements around it.
func expandImports(node *sitter.Node, startRow, endRow int) (int, int) {
	for prev := node.PrevNamedSibling(); prev != nil && isImportNode(prev); prev = prev.PrevNamedSibling() {
		startRow = int(prev.StartPoint().Row) + 1
	}
	for next := node.NextNamedSibling(); next != nil && isImportNode(next); next = next.NextNamedSibling() {
		endRow = int(next.EndPoint().Row) + 1
	}
	return startRow, endRow
}

func isImportNode(n *sitter.Node) bool {
	switch n.Type() {
	case "import_statement", "import_from_statement", "future_import_statement":
		return true
	}
	return false
}
