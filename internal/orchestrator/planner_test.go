package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidjmoloney/cicd-ai-assistant/api/schemas"
	"github.com/davidjmoloney/cicd-ai-assistant/internal/config"
)

type stubLLM struct {
	resp    string
	err     error
	lastReq schemas.GenerationRequest
	calls   int
}

func (s *stubLLM) Generate(_ context.Context, req schemas.GenerationRequest) (string, error) {
	s.lastReq = req
	s.calls++
	return s.resp, s.err
}

func plannerCfg() config.PlannerConfig {
	return config.PlannerConfig{
		AutoApplyFormatFixes: true,
		MaxGroupSize:         3,
		MinConfidence:        0.75,
	}
}

func newTestPlanner(llm schemas.LLMClient, cfg config.PlannerConfig) *Planner {
	builder := NewContextBuilder(mapStore{"app.py": sampleFile}, windowCfg())
	return NewPlanner(llm, builder, cfg)
}

func safeFix(row int, content string) *schemas.Fix {
	return &schemas.Fix{
		Applicability: schemas.FixSafe,
		Message:       "reformat",
		Edits: []schemas.TextEdit{{
			Span:    *spanAt(row, 0),
			Content: content,
		}},
	}
}

func TestCreateFixPlanFormatBypassesModel(t *testing.T) {
	llm := &stubLLM{}
	p := newTestPlanner(llm, plannerCfg())

	s := lintSignal("app.py", "", 4)
	s.Type = schemas.SignalFormat
	s.Tool = "ruff-format"
	s.Fix = safeFix(4, "VALUE = 1\n")

	plan, err := p.CreateFixPlan(context.Background(), schemas.SignalGroup{
		Tool: "ruff-format", Type: schemas.SignalFormat,
		Signals: []schemas.FixSignal{s},
	})
	require.NoError(t, err)
	require.NotNil(t, plan)

	assert.Zero(t, llm.calls)
	assert.Equal(t, 1.0, plan.Confidence)
	assert.Equal(t, "ruff-format", plan.GroupTool)
	require.Len(t, plan.FileEdits, 1)
	assert.Equal(t, "app.py", plan.FileEdits[0].FilePath)
	require.Len(t, plan.FileEdits[0].Edits, 1)
}

func TestCreateFixPlanFormatMergesSameFileBatches(t *testing.T) {
	p := newTestPlanner(&stubLLM{}, plannerCfg())

	a := lintSignal("app.py", "", 4)
	a.Type = schemas.SignalFormat
	a.Fix = safeFix(4, "VALUE = 1\n")
	b := lintSignal("app.py", "", 12)
	b.Type = schemas.SignalFormat
	b.Fix = safeFix(12, "    unused = 2\n")

	plan, err := p.CreateFixPlan(context.Background(), schemas.SignalGroup{
		Tool: "ruff-format", Type: schemas.SignalFormat,
		Signals: []schemas.FixSignal{a, b},
	})
	require.NoError(t, err)
	require.Len(t, plan.FileEdits, 1)
	assert.Len(t, plan.FileEdits[0].Edits, 2)
}

func TestCreateFixPlanFormatSkipsUnsafeFixes(t *testing.T) {
	p := newTestPlanner(&stubLLM{}, plannerCfg())

	s := lintSignal("app.py", "", 4)
	s.Type = schemas.SignalFormat
	s.Fix = safeFix(4, "x\n")
	s.Fix.Applicability = schemas.FixUnsafe

	plan, err := p.CreateFixPlan(context.Background(), schemas.SignalGroup{
		Tool: "ruff-format", Type: schemas.SignalFormat,
		Signals: []schemas.FixSignal{s},
	})
	require.NoError(t, err)
	assert.Empty(t, plan.FileEdits)
	require.Len(t, plan.Warnings, 1)
	assert.Contains(t, plan.Warnings[0], "unsafe")
}

const validPlanJSON = `{
  "summary": "Remove unused variable",
  "confidence": 0.9,
  "warnings": [],
  "file_edits": [
    {
      "file_path": "app.py",
      "reasoning": "unused is never read",
      "edits": [
        {
          "edit_type": "delete",
          "span": {"start": {"row": 12, "column": 0}, "end": {"row": 12, "column": 15}},
          "content": "",
          "description": "drop the assignment"
        }
      ]
    }
  ]
}`

func TestCreateFixPlanModelPath(t *testing.T) {
	llm := &stubLLM{resp: validPlanJSON}
	p := newTestPlanner(llm, plannerCfg())

	plan, err := p.CreateFixPlan(context.Background(), schemas.SignalGroup{
		Tool: "ruff", Type: schemas.SignalLint,
		Signals: []schemas.FixSignal{lintSignal("app.py", "F841", 12)},
	})
	require.NoError(t, err)
	require.NotNil(t, plan)

	assert.Equal(t, 1, llm.calls)
	assert.Equal(t, "ruff", plan.GroupTool)
	assert.Equal(t, schemas.SignalLint, plan.GroupType)
	assert.Equal(t, 0.9, plan.Confidence)
	require.Len(t, plan.FileEdits, 1)
	assert.Equal(t, "app.py", plan.FileEdits[0].FilePath)
	assert.Equal(t, 12, plan.FileEdits[0].Edits[0].Span.Start.Row)

	assert.True(t, llm.lastReq.Options.ForceJSONFormat)
	assert.Equal(t, schemas.TierFast, llm.lastReq.Tier)
	assert.Contains(t, llm.lastReq.UserPrompt, "unused = 2")
}

func TestCreateFixPlanRoutesTypeCheckToPowerfulTier(t *testing.T) {
	llm := &stubLLM{resp: validPlanJSON}
	p := newTestPlanner(llm, plannerCfg())

	s := lintSignal("app.py", "arg-type", 8)
	s.Type = schemas.SignalTypeCheck
	s.Tool = "mypy"

	_, err := p.CreateFixPlan(context.Background(), schemas.SignalGroup{
		Tool: "mypy", Type: schemas.SignalTypeCheck,
		Signals: []schemas.FixSignal{s},
	})
	require.NoError(t, err)
	assert.Equal(t, schemas.TierPowerful, llm.lastReq.Tier)
}

func TestCreateFixPlanStripsMarkdownFence(t *testing.T) {
	llm := &stubLLM{resp: "```json\n" + validPlanJSON + "\n```"}
	p := newTestPlanner(llm, plannerCfg())

	plan, err := p.CreateFixPlan(context.Background(), schemas.SignalGroup{
		Tool: "ruff", Type: schemas.SignalLint,
		Signals: []schemas.FixSignal{lintSignal("app.py", "F841", 12)},
	})
	require.NoError(t, err)
	assert.Equal(t, "Remove unused variable", plan.Summary)
}

func TestCreateFixPlanMalformedResponse(t *testing.T) {
	llm := &stubLLM{resp: "I cannot help with that."}
	p := newTestPlanner(llm, plannerCfg())

	_, err := p.CreateFixPlan(context.Background(), schemas.SignalGroup{
		Tool: "ruff", Type: schemas.SignalLint,
		Signals: []schemas.FixSignal{lintSignal("app.py", "F841", 12)},
	})
	var malformed *MalformedPlanError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "I cannot help with that.", malformed.Raw)
}

func TestCreateFixPlanRejectsConfidenceOutOfRange(t *testing.T) {
	llm := &stubLLM{resp: `{"summary": "x", "confidence": 1.5, "file_edits": []}`}
	p := newTestPlanner(llm, plannerCfg())

	_, err := p.CreateFixPlan(context.Background(), schemas.SignalGroup{
		Tool: "ruff", Type: schemas.SignalLint,
		Signals: []schemas.FixSignal{lintSignal("app.py", "F841", 12)},
	})
	var malformed *MalformedPlanError
	require.ErrorAs(t, err, &malformed)
}

func TestCreateFixPlanLowConfidenceWarning(t *testing.T) {
	llm := &stubLLM{resp: `{"summary": "x", "confidence": 0.3, "file_edits": []}`}
	p := newTestPlanner(llm, plannerCfg())

	plan, err := p.CreateFixPlan(context.Background(), schemas.SignalGroup{
		Tool: "ruff", Type: schemas.SignalLint,
		Signals: []schemas.FixSignal{lintSignal("app.py", "F841", 12)},
	})
	require.NoError(t, err)
	require.NotEmpty(t, plan.Warnings)
	assert.Contains(t, plan.Warnings[0], "below the 0.75 threshold")
}

func TestCreateFixPlanSkipsWholeGroup(t *testing.T) {
	llm := &stubLLM{}
	p := newTestPlanner(llm, plannerCfg())

	plan, err := p.CreateFixPlan(context.Background(), schemas.SignalGroup{
		Tool: "ruff", Type: schemas.SignalLint,
		Signals: []schemas.FixSignal{lintSignal("app.py", "E999", 1)},
	})
	require.NoError(t, err)
	assert.Nil(t, plan)
	assert.Zero(t, llm.calls)
}

func TestCreateFixPlanGenerateError(t *testing.T) {
	llm := &stubLLM{err: errors.New("quota exceeded")}
	p := newTestPlanner(llm, plannerCfg())

	_, err := p.CreateFixPlan(context.Background(), schemas.SignalGroup{
		Tool: "ruff", Type: schemas.SignalLint,
		Signals: []schemas.FixSignal{lintSignal("app.py", "F841", 12)},
	})
	require.ErrorContains(t, err, "quota exceeded")
}
