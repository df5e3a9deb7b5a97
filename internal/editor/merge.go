package editor

import (
	"strings"

	"github.com/davidjmoloney/cicd-ai-assistant/api/schemas"
)

// Merge combines edit batches targeting the same file into one batch per
// path, preserving first-seen path order. Edit lists are concatenated and
// rationale strings joined; overlap between batches is not reconciled here
// and still fails in Apply.
func Merge(batches []schemas.FileEdit) []schemas.FileEdit {
	index := make(map[string]int, len(batches))
	var merged []schemas.FileEdit

	for _, b := range batches {
		i, ok := index[b.FilePath]
		if !ok {
			index[b.FilePath] = len(merged)
			merged = append(merged, schemas.FileEdit{
				FilePath:  b.FilePath,
				Edits:     append([]schemas.TextEdit(nil), b.Edits...),
				Reasoning: b.Reasoning,
			})
			continue
		}
		merged[i].Edits = append(merged[i].Edits, b.Edits...)
		if b.Reasoning != "" {
			if merged[i].Reasoning != "" {
				merged[i].Reasoning = strings.Join([]string{merged[i].Reasoning, b.Reasoning}, "\n")
			} else {
				merged[i].Reasoning = b.Reasoning
			}
		}
	}
	return merged
}
