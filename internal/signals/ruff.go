package signals

import (
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/davidjmoloney/cicd-ai-assistant/api/schemas"
	"github.com/davidjmoloney/cicd-ai-assistant/internal/diffparse"
	"github.com/davidjmoloney/cicd-ai-assistant/internal/observability"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	toolRuff       = "ruff"
	toolRuffFormat = "ruff-format"

	ruffFormatDocsURL = "https://docs.astral.sh/ruff/formatter/"
)

// ruffViolation mirrors one entry of `ruff check --output-format=json`.
type ruffViolation struct {
	Code        string        `json:"code"`
	Filename    string        `json:"filename"`
	Message     string        `json:"message"`
	URL         string        `json:"url"`
	Location    *ruffPosition `json:"location"`
	EndLocation *ruffPosition `json:"end_location"`
	Fix         *ruffFix      `json:"fix"`
}

type ruffPosition struct {
	Row    int `json:"row"`
	Column int `json:"column"`
}

type ruffFix struct {
	Applicability string     `json:"applicability"`
	Message       string     `json:"message"`
	Edits         []ruffEdit `json:"edits"`
}

type ruffEdit struct {
	Content     string        `json:"content"`
	Location    *ruffPosition `json:"location"`
	EndLocation *ruffPosition `json:"end_location"`
}

// ruff reports 1-based columns; the canonical convention is 0-based.
func (p *ruffPosition) toPosition() schemas.Position {
	col := p.Column - 1
	if col < 0 {
		col = 0
	}
	return schemas.Position{Row: p.Row, Col: col}
}

func ruffSpan(loc, end *ruffPosition) schemas.Span {
	return schemas.NewSpan(loc.toPosition(), end.toPosition())
}

// ParseRuffLint converts `ruff check --output-format=json` output into lint
// signals. Violations carrying deterministic edits keep them as a Fix;
// malformed records are skipped, not fatal.
func ParseRuffLint(raw []byte, repoRoot string) ([]schemas.FixSignal, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, nil
	}

	var violations []ruffViolation
	if err := json.Unmarshal(raw, &violations); err != nil {
		return nil, fmt.Errorf("decoding ruff lint output: %w", err)
	}

	log := observability.GetLogger().Named("signals")
	out := make([]schemas.FixSignal, 0, len(violations))

	for _, v := range violations {
		if v.Code == "" || v.Filename == "" || v.Location == nil || v.EndLocation == nil {
			log.Warn("Skipping malformed ruff violation.",
				zap.String("code", v.Code),
				zap.String("filename", v.Filename))
			continue
		}

		span := ruffSpan(v.Location, v.EndLocation)
		sig := schemas.FixSignal{
			Type:     schemas.SignalLint,
			Severity: severityForRuff(v.Code),
			FilePath: toRepoRelative(v.Filename, repoRoot),
			Span:     &span,
			RuleCode: v.Code,
			Message:  v.Message,
			DocsURL:  v.URL,
			Tool:     toolRuff,
		}
		if v.Fix != nil {
			sig.Fix = convertRuffFix(v.Fix)
		}
		out = append(out, sig)
	}
	return out, nil
}

func convertRuffFix(f *ruffFix) *schemas.Fix {
	fix := &schemas.Fix{
		Applicability: schemas.ParseApplicability(strings.ToLower(f.Applicability)),
		Message:       f.Message,
	}
	for _, e := range f.Edits {
		if e.Location == nil || e.EndLocation == nil {
			continue
		}
		fix.Edits = append(fix.Edits, schemas.TextEdit{
			Span:    ruffSpan(e.Location, e.EndLocation),
			Content: e.Content,
		})
	}
	return fix
}

// ParseRuffFormatDiff converts `ruff format --diff` output into one FORMAT
// signal per file, with all of the file's hunks merged into a single safe
// fix. Format signals are always low severity; the diff already is the fix,
// so no generation step is needed.
func ParseRuffFormatDiff(diffText, repoRoot string) ([]schemas.FixSignal, error) {
	if strings.TrimSpace(diffText) == "" {
		return nil, nil
	}

	files, err := diffparse.Parse(diffText)

	out := make([]schemas.FixSignal, 0, len(files))
	for _, fd := range files {
		if len(fd.Hunks) == 0 {
			continue
		}

		edits := diffparse.FileEdits(fd)
		lines := 0
		for _, h := range fd.Hunks {
			lines += len(h.OldLines) + len(h.NewLines)
		}

		first, last := fd.Hunks[0], fd.Hunks[len(fd.Hunks)-1]
		span := schemas.NewSpan(
			schemas.Position{Row: first.OldStart},
			schemas.Position{Row: last.OldStart + last.OldCount - 1},
		)

		out = append(out, schemas.FixSignal{
			Type:     schemas.SignalFormat,
			Severity: schemas.SeverityLow,
			FilePath: toRepoRelative(fd.FilePath, repoRoot),
			Span:     &span,
			RuleCode: "FORMAT",
			Message:  fmt.Sprintf("%d formatting region(s) to update (%d lines affected)", len(fd.Hunks), lines),
			DocsURL:  ruffFormatDocsURL,
			Tool:     toolRuffFormat,
			Fix: &schemas.Fix{
				Applicability: schemas.FixSafe,
				Message:       fmt.Sprintf("Apply %d formatting change(s)", len(fd.Hunks)),
				Edits:         edits,
			},
		})
	}
	return out, err
}
