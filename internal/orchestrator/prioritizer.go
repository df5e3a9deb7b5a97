// Package orchestrator turns normalized signals into executable fix plans:
// prioritizing and grouping diagnostics, assembling code context for the
// generation agent, and converting agent or tool output into FixPlans.
package orchestrator

import (
	"sort"

	"github.com/davidjmoloney/cicd-ai-assistant/api/schemas"
)

// typePriority orders signal types for processing, lowest number first.
// Formatting is always last; it is cosmetic and safe.
var typePriority = map[schemas.SignalType]int{
	schemas.SignalSecurity:  0,
	schemas.SignalTypeCheck: 1,
	schemas.SignalLint:      2,
	schemas.SignalDocstring: 3,
	schemas.SignalFormat:    4,
}

// Prioritizer packs signals into tool-homogeneous groups. Non-format
// signals are chunked by maxGroupSize; format signals are grouped per file
// because a file's format edits are interdependent and applied atomically.
type Prioritizer struct {
	maxGroupSize int
}

func NewPrioritizer(maxGroupSize int) *Prioritizer {
	if maxGroupSize < 1 {
		maxGroupSize = 3
	}
	return &Prioritizer{maxGroupSize: maxGroupSize}
}

// Prioritize returns groups ordered by signal type priority. Encounter
// order is preserved inside each tool bucket and each chunk.
func (p *Prioritizer) Prioritize(signals []schemas.FixSignal) []schemas.SignalGroup {
	if len(signals) == 0 {
		return nil
	}

	var formatSignals, others []schemas.FixSignal
	for _, s := range signals {
		if s.Type == schemas.SignalFormat {
			formatSignals = append(formatSignals, s)
		} else {
			others = append(others, s)
		}
	}

	groups := p.groupByToolChunked(others)
	groups = append(groups, groupFormatByFile(formatSignals)...)

	sort.SliceStable(groups, func(i, j int) bool {
		return priorityOf(groups[i].Type) < priorityOf(groups[j].Type)
	})
	return groups
}

func priorityOf(t schemas.SignalType) int {
	if p, ok := typePriority[t]; ok {
		return p
	}
	return 99
}

func (p *Prioritizer) groupByToolChunked(signals []schemas.FixSignal) []schemas.SignalGroup {
	buckets := make(map[string][]schemas.FixSignal)
	var toolOrder []string

	for _, s := range signals {
		if _, ok := buckets[s.Tool]; !ok {
			toolOrder = append(toolOrder, s.Tool)
		}
		buckets[s.Tool] = append(buckets[s.Tool], s)
	}

	var groups []schemas.SignalGroup
	for _, tool := range toolOrder {
		bucket := buckets[tool]
		for i := 0; i < len(bucket); i += p.maxGroupSize {
			end := i + p.maxGroupSize
			if end > len(bucket) {
				end = len(bucket)
			}
			chunk := bucket[i:end]
			groups = append(groups, schemas.SignalGroup{
				Tool:    tool,
				Type:    dominantType(chunk),
				Signals: chunk,
			})
		}
	}
	return groups
}

func groupFormatByFile(signals []schemas.FixSignal) []schemas.SignalGroup {
	byFile := make(map[string][]schemas.FixSignal)
	var fileOrder []string

	for _, s := range signals {
		if _, ok := byFile[s.FilePath]; !ok {
			fileOrder = append(fileOrder, s.FilePath)
		}
		byFile[s.FilePath] = append(byFile[s.FilePath], s)
	}

	var groups []schemas.SignalGroup
	for _, file := range fileOrder {
		groups = append(groups, schemas.SignalGroup{
			Tool:    byFile[file][0].Tool,
			Type:    schemas.SignalFormat,
			Signals: byFile[file],
		})
	}
	return groups
}

// dominantType picks the most frequent signal type in a chunk, breaking
// ties toward the higher priority type.
func dominantType(chunk []schemas.FixSignal) schemas.SignalType {
	counts := make(map[schemas.SignalType]int)
	for _, s := range chunk {
		counts[s.Type]++
	}

	best := chunk[0].Type
	for t, n := range counts {
		if n > counts[best] || (n == counts[best] && priorityOf(t) < priorityOf(best)) {
			best = t
		}
	}
	return best
}
