package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidjmoloney/cicd-ai-assistant/api/schemas"
)

func sig(tool string, t schemas.SignalType, file, rule string) schemas.FixSignal {
	return schemas.FixSignal{
		Type:     t,
		Severity: schemas.SeverityMedium,
		FilePath: file,
		RuleCode: rule,
		Tool:     tool,
	}
}

func TestPrioritizeOrdersByTypePriority(t *testing.T) {
	signals := []schemas.FixSignal{
		sig("ruff-format", schemas.SignalFormat, "a.py", ""),
		sig("ruff", schemas.SignalLint, "a.py", "F401"),
		sig("mypy", schemas.SignalTypeCheck, "b.py", "arg-type"),
		sig("bandit", schemas.SignalSecurity, "c.py", "B602"),
	}

	groups := NewPrioritizer(3).Prioritize(signals)
	require.Len(t, groups, 4)
	assert.Equal(t, schemas.SignalSecurity, groups[0].Type)
	assert.Equal(t, schemas.SignalTypeCheck, groups[1].Type)
	assert.Equal(t, schemas.SignalLint, groups[2].Type)
	assert.Equal(t, schemas.SignalFormat, groups[3].Type)
}

func TestPrioritizeChunksByMaxGroupSize(t *testing.T) {
	var signals []schemas.FixSignal
	for _, rule := range []string{"F401", "F841", "E711", "E712", "F821"} {
		signals = append(signals, sig("ruff", schemas.SignalLint, "a.py", rule))
	}

	groups := NewPrioritizer(2).Prioritize(signals)
	require.Len(t, groups, 3)
	assert.Len(t, groups[0].Signals, 2)
	assert.Len(t, groups[1].Signals, 2)
	assert.Len(t, groups[2].Signals, 1)

	// encounter order survives chunking
	assert.Equal(t, "F401", groups[0].Signals[0].RuleCode)
	assert.Equal(t, "F841", groups[0].Signals[1].RuleCode)
	assert.Equal(t, "F821", groups[2].Signals[0].RuleCode)
}

func TestPrioritizeKeepsToolsSeparate(t *testing.T) {
	signals := []schemas.FixSignal{
		sig("ruff", schemas.SignalLint, "a.py", "F401"),
		sig("pydocstyle", schemas.SignalDocstring, "a.py", "D103"),
		sig("ruff", schemas.SignalLint, "b.py", "E711"),
	}

	groups := NewPrioritizer(3).Prioritize(signals)
	require.Len(t, groups, 2)
	assert.Equal(t, "ruff", groups[0].Tool)
	assert.Len(t, groups[0].Signals, 2)
	assert.Equal(t, "pydocstyle", groups[1].Tool)
}

func TestPrioritizeGroupsFormatPerFile(t *testing.T) {
	signals := []schemas.FixSignal{
		sig("ruff-format", schemas.SignalFormat, "a.py", ""),
		sig("ruff-format", schemas.SignalFormat, "b.py", ""),
		sig("ruff-format", schemas.SignalFormat, "a.py", ""),
	}

	groups := NewPrioritizer(1).Prioritize(signals)
	require.Len(t, groups, 2)
	assert.Len(t, groups[0].Signals, 2)
	assert.Equal(t, "a.py", groups[0].Signals[0].FilePath)
	assert.Equal(t, "b.py", groups[1].Signals[0].FilePath)
}

func TestPrioritizeEmptyInput(t *testing.T) {
	assert.Nil(t, NewPrioritizer(3).Prioritize(nil))
}

func TestDominantType(t *testing.T) {
	chunk := []schemas.FixSignal{
		sig("mypy", schemas.SignalLint, "a.py", "x"),
		sig("mypy", schemas.SignalTypeCheck, "a.py", "y"),
		sig("mypy", schemas.SignalTypeCheck, "a.py", "z"),
	}
	assert.Equal(t, schemas.SignalTypeCheck, dominantType(chunk))

	// a tie resolves toward the higher priority type
	tie := []schemas.FixSignal{
		sig("mypy", schemas.SignalLint, "a.py", "x"),
		sig("mypy", schemas.SignalTypeCheck, "a.py", "y"),
	}
	assert.Equal(t, schemas.SignalTypeCheck, dominantType(tie))
}
