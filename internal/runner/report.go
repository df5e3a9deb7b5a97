// File: internal/runner/report.go
package runner

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/davidjmoloney/cicd-ai-assistant/api/schemas"
)

func newReport(runID string) *schemas.RunReport {
	return &schemas.RunReport{
		RunID:        runID,
		StartedAt:    time.Now().UTC(),
		SignalCounts: make(map[schemas.SignalType]int),
	}
}

func finishReport(r *schemas.RunReport) {
	r.FinishedAt = time.Now().UTC()
}

func countSignals(r *schemas.RunReport, sigs []schemas.FixSignal) {
	for _, s := range sigs {
		r.SignalCounts[s.Type]++
	}
}

func commitMessage(plan *schemas.FixPlan) string {
	summary := plan.Summary
	if summary == "" {
		summary = fmt.Sprintf("apply %s fixes", plan.GroupTool)
	}
	return "fix: " + summary
}

func prTitle(plan *schemas.FixPlan) string {
	return commitMessage(plan)
}

// prBody renders the PR description: what was fixed, which diagnostics
// drove it, and any warnings the reviewer should read.
func prBody(plan *schemas.FixPlan, group schemas.SignalGroup) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Automated fix for %d %s diagnostic(s) reported by %s.\n\n",
		len(group.Signals), group.Type, group.Tool)

	if plan.Summary != "" {
		fmt.Fprintf(&b, "%s\n\n", plan.Summary)
	}

	b.WriteString("## Diagnostics\n\n")
	for _, s := range group.Signals {
		loc := s.FilePath
		if s.Span != nil {
			loc = fmt.Sprintf("%s:%d", s.FilePath, s.Span.Start.Row)
		}
		if s.RuleCode != "" {
			fmt.Fprintf(&b, "- `%s` %s (%s)\n", loc, s.Message, s.RuleCode)
		} else {
			fmt.Fprintf(&b, "- `%s` %s\n", loc, s.Message)
		}
	}

	if len(plan.Warnings) > 0 {
		b.WriteString("\n## Warnings\n\n")
		for _, w := range plan.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}

	fmt.Fprintf(&b, "\nConfidence: %.2f\n", plan.Confidence)
	return b.String()
}

// WriteReport writes the run report as a JSON artifact next to the inputs
// and returns its path.
func WriteReport(report *schemas.RunReport, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating report directory: %w", err)
	}
	payload, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling run report: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("run-report-%s.json", report.RunID))
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return "", fmt.Errorf("writing run report: %w", err)
	}
	return path, nil
}
