// File: internal/orchestrator/planner.go
package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/davidjmoloney/cicd-ai-assistant/api/schemas"
	"github.com/davidjmoloney/cicd-ai-assistant/internal/config"
	"github.com/davidjmoloney/cicd-ai-assistant/internal/editor"
	"github.com/davidjmoloney/cicd-ai-assistant/internal/observability"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// codeFenceRe tolerates models that wrap their JSON in a markdown fence
// despite being told not to.
var codeFenceRe = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")

// MalformedPlanError reports a model response that could not be decoded
// into a fix plan. The raw response is preserved for debugging.
type MalformedPlanError struct {
	Reason string
	Raw    string
}

func (e *MalformedPlanError) Error() string {
	return fmt.Sprintf("malformed fix plan: %s", e.Reason)
}

// Planner converts a signal group into an executable FixPlan. Format groups
// with deterministic tool fixes bypass the model entirely; everything else
// goes through the generation client.
type Planner struct {
	llm     schemas.LLMClient
	builder *ContextBuilder
	cfg     config.PlannerConfig
	logger  *zap.Logger
}

func NewPlanner(llm schemas.LLMClient, builder *ContextBuilder, cfg config.PlannerConfig) *Planner {
	return &Planner{
		llm:     llm,
		builder: builder,
		cfg:     cfg,
		logger:  observability.GetLogger().Named("planner"),
	}
}

// CreateFixPlan plans fixes for one group. A nil plan with a nil error
// means every signal in the group was skipped.
func (p *Planner) CreateFixPlan(ctx context.Context, group schemas.SignalGroup) (*schemas.FixPlan, error) {
	if group.Type == schemas.SignalFormat && p.cfg.AutoApplyFormatFixes {
		return p.planFromToolFixes(group), nil
	}

	attemptable := p.filterSkipped(group)
	if len(attemptable.Signals) == 0 {
		p.logger.Info("all signals in group skipped",
			zap.String("tool", group.Tool), zap.Int("signals", len(group.Signals)))
		return nil, nil
	}
	return p.planWithModel(ctx, attemptable)
}

// planFromToolFixes builds a plan directly from the deterministic fixes
// format tools attach. Unsafe fixes are dropped with a warning.
func (p *Planner) planFromToolFixes(group schemas.SignalGroup) *schemas.FixPlan {
	plan := &schemas.FixPlan{
		GroupTool:  group.Tool,
		GroupType:  group.Type,
		Summary:    fmt.Sprintf("Apply %s formatting fixes", group.Tool),
		Confidence: 1.0,
	}

	var batches []schemas.FileEdit
	for _, sig := range group.Signals {
		if sig.Fix == nil || len(sig.Fix.Edits) == 0 {
			plan.Warnings = append(plan.Warnings,
				fmt.Sprintf("%s: %s has no deterministic fix", sig.FilePath, sig.RuleCode))
			continue
		}
		if sig.Fix.Applicability == schemas.FixUnsafe {
			plan.Warnings = append(plan.Warnings,
				fmt.Sprintf("%s: %s fix is marked unsafe, skipping", sig.FilePath, sig.RuleCode))
			continue
		}
		batches = append(batches, schemas.FileEdit{
			FilePath:  sig.FilePath,
			Edits:     sig.Fix.Edits,
			Reasoning: sig.Fix.Message,
		})
	}
	plan.FileEdits = editor.Merge(batches)
	return plan
}

func (p *Planner) filterSkipped(group schemas.SignalGroup) schemas.SignalGroup {
	out := group
	out.Signals = nil
	for _, sig := range group.Signals {
		if p.builder.selector.ShouldSkip(sig.RuleCode) {
			p.logger.Debug("skipping unfixable rule",
				zap.String("rule", sig.RuleCode), zap.String("file", sig.FilePath))
			continue
		}
		out.Signals = append(out.Signals, sig)
	}
	return out
}

func (p *Planner) planWithModel(ctx context.Context, group schemas.SignalGroup) (*schemas.FixPlan, error) {
	gctx := p.builder.BuildGroupContext(group)
	payload, err := json.MarshalIndent(gctx, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling group context: %w", err)
	}

	req := schemas.GenerationRequest{
		SystemPrompt: fixSystemPrompt,
		UserPrompt:   string(payload),
		Tier:         tierForGroup(group.Type),
		Options: schemas.GenerationOptions{
			Temperature:     0.1,
			ForceJSONFormat: true,
		},
	}

	raw, err := p.llm.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("generating fix plan for %s group: %w", group.Tool, err)
	}
	p.dumpDebugContext(group, payload, raw)

	plan, err := parseFixPlan(raw)
	if err != nil {
		return nil, err
	}
	plan.GroupTool = group.Tool
	plan.GroupType = group.Type

	if plan.Confidence < p.cfg.MinConfidence {
		plan.Warnings = append(plan.Warnings,
			fmt.Sprintf("confidence %.2f is below the %.2f threshold", plan.Confidence, p.cfg.MinConfidence))
	}
	return plan, nil
}

// tierForGroup routes cheap mechanical fixes to the fast model and
// reasoning-heavy ones to the powerful model.
func tierForGroup(t schemas.SignalType) schemas.ModelTier {
	switch t {
	case schemas.SignalTypeCheck, schemas.SignalSecurity:
		return schemas.TierPowerful
	default:
		return schemas.TierFast
	}
}

// parseFixPlan decodes a model response into a FixPlan, stripping a
// markdown code fence if present.
func parseFixPlan(raw string) (*schemas.FixPlan, error) {
	text := strings.TrimSpace(raw)
	if m := codeFenceRe.FindStringSubmatch(text); m != nil {
		text = m[1]
	}
	if text == "" {
		return nil, &MalformedPlanError{Reason: "empty response", Raw: raw}
	}

	var decoded struct {
		Summary    string   `json:"summary"`
		Confidence float64  `json:"confidence"`
		Warnings   []string `json:"warnings"`
		FileEdits  []struct {
			FilePath  string `json:"file_path"`
			Reasoning string `json:"reasoning"`
			Edits     []struct {
				EditType string `json:"edit_type"`
				Span     struct {
					Start struct {
						Row    int `json:"row"`
						Column int `json:"column"`
					} `json:"start"`
					End struct {
						Row    int `json:"row"`
						Column int `json:"column"`
					} `json:"end"`
				} `json:"span"`
				Content     string `json:"content"`
				Description string `json:"description"`
			} `json:"edits"`
		} `json:"file_edits"`
	}
	if err := json.Unmarshal([]byte(text), &decoded); err != nil {
		return nil, &MalformedPlanError{Reason: err.Error(), Raw: raw}
	}
	if decoded.Confidence < 0 || decoded.Confidence > 1 {
		return nil, &MalformedPlanError{
			Reason: fmt.Sprintf("confidence %v outside [0, 1]", decoded.Confidence),
			Raw:    raw,
		}
	}

	plan := &schemas.FixPlan{
		Summary:    decoded.Summary,
		Confidence: decoded.Confidence,
		Warnings:   decoded.Warnings,
	}
	for _, fe := range decoded.FileEdits {
		if fe.FilePath == "" {
			return nil, &MalformedPlanError{Reason: "file edit with empty file_path", Raw: raw}
		}
		batch := schemas.FileEdit{FilePath: fe.FilePath, Reasoning: fe.Reasoning}
		for _, e := range fe.Edits {
			batch.Edits = append(batch.Edits, schemas.TextEdit{
				Span: schemas.NewSpan(
					schemas.Position{Row: e.Span.Start.Row, Col: e.Span.Start.Column},
					schemas.Position{Row: e.Span.End.Row, Col: e.Span.End.Column},
				),
				Content: e.Content,
			})
		}
		plan.FileEdits = append(plan.FileEdits, batch)
	}
	return plan, nil
}

// dumpDebugContext writes the prompt payload and raw response to disk when
// a debug directory is configured. Failures are logged, never fatal.
func (p *Planner) dumpDebugContext(group schemas.SignalGroup, payload []byte, response string) {
	if p.cfg.DebugContextDir == "" {
		return
	}
	if err := os.MkdirAll(p.cfg.DebugContextDir, 0o755); err != nil {
		p.logger.Warn("cannot create debug context dir", zap.Error(err))
		return
	}
	name := fmt.Sprintf("%s_%s_%d.json", group.Tool, group.Type, time.Now().UnixNano())
	dump, _ := json.MarshalIndent(map[string]any{
		"group_tool": group.Tool,
		"group_type": group.Type,
		"context":    jsoniter.RawMessage(payload),
		"response":   response,
	}, "", "  ")
	path := filepath.Join(p.cfg.DebugContextDir, name)
	if err := os.WriteFile(path, dump, 0o644); err != nil {
		p.logger.Warn("cannot write debug context", zap.String("path", path), zap.Error(err))
	}
}
