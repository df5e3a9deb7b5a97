package signals

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/davidjmoloney/cicd-ai-assistant/api/schemas"
	"github.com/davidjmoloney/cicd-ai-assistant/internal/observability"
)

const toolMypy = "mypy"

// mypyEntry mirrors one line of `mypy --output=json` (newline-delimited).
type mypyEntry struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Message  string `json:"message"`
	Hint     string `json:"hint"`
	Code     string `json:"code"`
	Severity string `json:"severity"`
}

// ParseMypy converts mypy NDJSON output into type-check signals. MyPy never
// supplies deterministic fixes, so every signal goes through generation.
// MyPy columns are already 0-based and pass through unchanged.
func ParseMypy(raw string, repoRoot string) []schemas.FixSignal {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	log := observability.GetLogger().Named("signals")
	var out []schemas.FixSignal

	for lineNum, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var entry mypyEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			log.Warn("Skipping malformed mypy JSON line.",
				zap.Int("line", lineNum+1),
				zap.Error(err))
			continue
		}
		if entry.File == "" || entry.Line == 0 {
			log.Warn("Skipping mypy entry missing file or line.",
				zap.Int("line", lineNum+1))
			continue
		}

		message := entry.Message
		if entry.Hint != "" {
			message = fmt.Sprintf("%s (hint: %s)", entry.Message, entry.Hint)
		}

		// MyPy reports a point, not a range.
		at := schemas.Position{Row: entry.Line, Col: entry.Column}
		span := schemas.NewSpan(at, at)

		out = append(out, schemas.FixSignal{
			Type:     schemas.SignalTypeCheck,
			Severity: severityForMypy(entry.Severity),
			FilePath: toRepoRelative(entry.File, repoRoot),
			Span:     &span,
			RuleCode: entry.Code,
			Message:  message,
			DocsURL:  mypyDocsURL(entry.Code),
			Tool:     toolMypy,
		})
	}
	return out
}

func mypyDocsURL(code string) string {
	if code == "" {
		return ""
	}
	return fmt.Sprintf("https://mypy.readthedocs.io/en/stable/error_code_list.html#code-%s", code)
}
