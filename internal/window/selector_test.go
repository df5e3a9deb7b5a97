package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectTableEntries(t *testing.T) {
	s := NewSelector(7)

	tests := []struct {
		rule string
		want Strategy
	}{
		{"F401", Strategy{Kind: StrategyImports}},
		{"I001", Strategy{Kind: StrategyImports}},
		{"E402", Strategy{Kind: StrategyImports}},
		{"E722", Strategy{Kind: StrategyTryExcept}},
		{"F823", Strategy{Kind: StrategyFunction}},
		{"union-attr", Strategy{Kind: StrategyFunction}},
		{"return-value", Strategy{Kind: StrategyFunction}},
		{"D101", Strategy{Kind: StrategyClass}},
		{"D102", Strategy{Kind: StrategyFunction}},
		{"D103", Strategy{Kind: StrategyFunction}},
		{"E711", fixedLines(1)},
		{"F841", fixedLines(3)},
		{"name-defined", fixedLines(5)},
		{"arg-type", fixedLines(7)},
	}

	for _, tt := range tests {
		t.Run(tt.rule, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Select(tt.rule, "any message"))
		})
	}
}

func TestSelectDefaultsToConfiguredWidth(t *testing.T) {
	s := NewSelector(9)
	assert.Equal(t, fixedLines(9), s.Select("X999", ""))
	assert.Equal(t, fixedLines(7), NewSelector(0).Select("X999", ""))
}

func TestSelectIsDeterministic(t *testing.T) {
	s := NewSelector(7)
	for i := 0; i < 50; i++ {
		assert.Equal(t, s.Select("F401", "unused import"), s.Select("F401", "unused import"))
		assert.Equal(t, s.Select("unknown", "m"), s.Select("unknown", "m"))
	}
}

func TestShouldSkip(t *testing.T) {
	s := NewSelector(7)
	assert.True(t, s.ShouldSkip("override"))
	assert.True(t, s.ShouldSkip("E999"))
	assert.False(t, s.ShouldSkip("F401"))
	assert.False(t, s.ShouldSkip(""))
}
