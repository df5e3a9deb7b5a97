// File: internal/orchestrator/contextbuilder.go
package orchestrator

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/davidjmoloney/cicd-ai-assistant/api/schemas"
	"github.com/davidjmoloney/cicd-ai-assistant/internal/config"
	"github.com/davidjmoloney/cicd-ai-assistant/internal/observability"
	"github.com/davidjmoloney/cicd-ai-assistant/internal/window"
)

// Snippet is a contiguous slice of a file handed to the generation agent,
// with 1-based inclusive row bounds.
type Snippet struct {
	FilePath string `json:"file_path"`
	StartRow int    `json:"start_row"`
	EndRow   int    `json:"end_row"`
	Text     string `json:"text"`
	Strategy string `json:"strategy,omitempty"`
	Fallback bool   `json:"fallback,omitempty"`
}

// SignalContext pairs one diagnostic with the code the agent needs to fix
// it: a tight edit window chosen per rule, a broader surrounding window, and
// the file's import block when it is distinct from the edit window.
type SignalContext struct {
	Signal      schemas.FixSignal `json:"signal"`
	EditWindow  *Snippet          `json:"edit_window,omitempty"`
	Surrounding *Snippet          `json:"surrounding,omitempty"`
	Imports     *Snippet          `json:"imports,omitempty"`
	ReadError   string            `json:"read_error,omitempty"`
}

// GroupContext is the full prompt payload for one signal group. Edit windows
// of nearby signals in the same file are unioned into SharedWindows so the
// agent sees one coherent block instead of overlapping fragments.
type GroupContext struct {
	Tool          string          `json:"tool"`
	SignalType    string          `json:"signal_type"`
	Signals       []SignalContext `json:"signals"`
	SharedWindows []Snippet       `json:"shared_windows,omitempty"`
}

// ContextBuilder assembles GroupContexts from a SourceStore. File reads are
// cached for the builder's lifetime; create one per pipeline run.
type ContextBuilder struct {
	store     schemas.SourceStore
	selector  *window.Selector
	extractor window.Extractor
	cfg       config.WindowConfig
	logger    *zap.Logger

	mu    sync.Mutex
	cache map[string]cachedFile
}

type cachedFile struct {
	lines []string
	err   error
}

func NewContextBuilder(store schemas.SourceStore, cfg config.WindowConfig) *ContextBuilder {
	var extractor window.Extractor = window.NewHeuristicExtractor(cfg.DefaultLines)
	if cfg.UseTreeSitter {
		extractor = window.NewTreeSitterExtractor(cfg.DefaultLines)
	}
	return &ContextBuilder{
		store:     store,
		selector:  window.NewSelector(cfg.DefaultLines),
		extractor: extractor,
		cfg:       cfg,
		logger:    observability.GetLogger().Named("context"),
		cache:     make(map[string]cachedFile),
	}
}

// BuildGroupContext extracts context for every signal in the group. Signals
// whose file cannot be read still appear, carrying ReadError, so the plan
// can report them instead of silently dropping them.
func (b *ContextBuilder) BuildGroupContext(group schemas.SignalGroup) GroupContext {
	gc := GroupContext{
		Tool:       group.Tool,
		SignalType: string(group.Type),
	}

	for _, sig := range group.Signals {
		gc.Signals = append(gc.Signals, b.buildSignalContext(sig))
	}
	gc.SharedWindows = b.mergeEditWindows(gc.Signals)
	return gc
}

func (b *ContextBuilder) buildSignalContext(sig schemas.FixSignal) SignalContext {
	sc := SignalContext{Signal: sig}

	lines, err := b.readLines(sig.FilePath)
	if err != nil {
		sc.ReadError = err.Error()
		b.logger.Warn("cannot read file for context",
			zap.String("file", sig.FilePath), zap.Error(err))
		return sc
	}
	if sig.Span == nil {
		sc.ReadError = "signal carries no source span"
		return sc
	}

	strategy := b.selector.Select(sig.RuleCode, sig.Message)
	edit := b.extractor.Extract(strategy, lines, *sig.Span)
	sc.EditWindow = toSnippet(sig.FilePath, edit)

	broad := b.extractor.Extract(
		window.Strategy{Kind: window.StrategyFixedLines, Lines: b.cfg.ContextLines},
		lines, *sig.Span)
	sc.Surrounding = toSnippet(sig.FilePath, broad)

	if strategy.Kind != window.StrategyImports {
		imp := b.extractor.Extract(
			window.Strategy{Kind: window.StrategyImports}, lines, topOfFileSpan())
		if !imp.Fallback {
			sc.Imports = toSnippet(sig.FilePath, imp)
		}
	}
	return sc
}

// mergeEditWindows unions edit windows per file. Windows whose row gap is at
// most MergeGap become one shared snippet rebuilt from the file, so the text
// between them is included.
func (b *ContextBuilder) mergeEditWindows(sctxs []SignalContext) []Snippet {
	byFile := make(map[string][]Snippet)
	var fileOrder []string
	for _, sc := range sctxs {
		if sc.EditWindow == nil {
			continue
		}
		if _, ok := byFile[sc.EditWindow.FilePath]; !ok {
			fileOrder = append(fileOrder, sc.EditWindow.FilePath)
		}
		byFile[sc.EditWindow.FilePath] = append(byFile[sc.EditWindow.FilePath], *sc.EditWindow)
	}

	var merged []Snippet
	for _, file := range fileOrder {
		snips := byFile[file]
		if len(snips) < 2 {
			continue
		}
		sort.SliceStable(snips, func(i, j int) bool { return snips[i].StartRow < snips[j].StartRow })

		cur := snips[0]
		grew := false
		flush := func() {
			if grew {
				merged = append(merged, b.rebuildSnippet(cur))
			}
			grew = false
		}
		for _, next := range snips[1:] {
			if next.StartRow-cur.EndRow <= b.cfg.MergeGap {
				if next.EndRow > cur.EndRow {
					cur.EndRow = next.EndRow
				}
				grew = true
				continue
			}
			flush()
			cur = next
		}
		flush()
	}
	return merged
}

// rebuildSnippet re-reads the merged row range from the file so the gap
// lines between the original windows are present in the text.
func (b *ContextBuilder) rebuildSnippet(s Snippet) Snippet {
	lines, err := b.readLines(s.FilePath)
	if err != nil {
		return s
	}
	start, end := s.StartRow, s.EndRow
	if start < 1 {
		start = 1
	}
	if end > len(lines) {
		end = len(lines)
	}
	var sb strings.Builder
	for _, line := range lines[start-1 : end] {
		sb.WriteString(line)
	}
	return Snippet{
		FilePath: s.FilePath,
		StartRow: start,
		EndRow:   end,
		Text:     sb.String(),
		Strategy: "merged",
	}
}

func (b *ContextBuilder) readLines(path string) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if cached, ok := b.cache[path]; ok {
		return cached.lines, cached.err
	}

	lines, err := b.store.ReadLines(path)
	if err == nil {
		total := 0
		for _, l := range lines {
			total += len(l)
		}
		if b.cfg.MaxFileBytes > 0 && total > b.cfg.MaxFileBytes {
			lines, err = nil, fmt.Errorf("file %s is %d bytes, over the %d byte context limit",
				path, total, b.cfg.MaxFileBytes)
		}
	}
	b.cache[path] = cachedFile{lines: lines, err: err}
	return lines, err
}

func toSnippet(path string, w window.Window) *Snippet {
	return &Snippet{
		FilePath: path,
		StartRow: w.StartRow,
		EndRow:   w.EndRow,
		Text:     w.Text,
		Strategy: string(w.Strategy),
		Fallback: w.Fallback,
	}
}

func topOfFileSpan() schemas.Span {
	return schemas.Span{
		Start: schemas.Position{Row: 1, Col: 0},
		End:   schemas.Position{Row: 1, Col: 0},
	}
}
